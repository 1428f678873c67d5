// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/knxnet"
	"github.com/edgelink/knxip/knx/util"
)

// Errors surfaced by the connection logic.
var (
	// ErrTunnelClosed indicates that the connection is no longer usable.
	ErrTunnelClosed = errors.New("knx: tunnel is closed")

	// ErrNoResponse indicates that a request was not acknowledged in
	// time.
	ErrNoResponse = errors.New("knx: no response")

	// ErrNoGatewayFound indicates that discovery produced no usable
	// gateway.
	ErrNoGatewayFound = errors.New("knx: no gateway found")
)

// A tunnelJob is one queued outbound request together with its completion
// channel. The id correlates the final acknowledgement with the caller.
type tunnelJob struct {
	id      uuid.UUID
	payload cemi.Message
	ack     chan error
}

func newTunnelJob(payload cemi.Message) *tunnelJob {
	return &tunnelJob{
		id:      uuid.New(),
		payload: payload,
		ack:     make(chan error, 1),
	}
}

func (job *tunnelJob) complete(err error) {
	select {
	case job.ack <- err:
	default:
	}
}

// stopReason tells the serve loop how to leave the steady state.
type stopReason int

const (
	stopNone stopReason = iota

	// stopLocal: a protocol failure on our side; a disconnect request is
	// owed to the gateway.
	stopLocal

	// stopPeer: the gateway asked to disconnect or the socket died; no
	// disconnect request is sent.
	stopPeer

	// stopClosed: the user closed the tunnel.
	stopClosed
)

// A Tunnel is a tunneling connection to a gateway. It owns the sockets and
// the session state; all of it is mutated from a single goroutine so every
// input (socket receive, timer, API call) is handled serially.
type Tunnel struct {
	config TunnelConfig

	sock     knxnet.Socket
	physAddr cemi.IndividualAddr

	// Session state, owned by the serve goroutine after startup.
	channel uint8
	seqOut  uint8
	seqIn   uint8
	hbFails uint

	jobs    chan *tunnelJob
	inbound chan cemi.Message
	states  chan ConnectionState

	done chan struct{}
	once sync.Once
	wait sync.WaitGroup
}

// NewTunnel establishes a tunneling connection. If the config names no
// gateway, one is located via multicast discovery first. The returned
// tunnel is online.
func NewTunnel(config TunnelConfig) (*Tunnel, error) {
	config = checkTunnelConfig(config)

	gateway := config.Gateway
	if gateway == "" {
		res, err := DiscoverGateway(config.GatewayFilter, config.SearchTimeout)
		if err != nil {
			return nil, err
		}
		gateway = res.Control.UDPAddr().String()
	}

	sock, err := knxnet.DialTunnelUDP(gateway)
	if err != nil {
		return nil, err
	}

	tunnel, err := newTunnelWithSocket(config, sock)
	if err != nil {
		sock.Close()
		return nil, err
	}

	return tunnel, nil
}

// newTunnelWithSocket runs the handshake over an already open socket and
// starts the session goroutine.
func newTunnelWithSocket(config TunnelConfig, sock knxnet.Socket) (*Tunnel, error) {
	config = checkTunnelConfig(config)

	physAddr, err := cemi.ParseIndividualAddr(config.PhysAddr)
	if err != nil {
		return nil, fmt.Errorf("knx: bad physical address %q: %w", config.PhysAddr, err)
	}

	tunnel := &Tunnel{
		config:   config,
		physAddr: physAddr,
		sock:     sock,
		jobs:     make(chan *tunnelJob, 16),
		inbound:  make(chan cemi.Message, 32),
		states:   make(chan ConnectionState, 4),
		done:     make(chan struct{}),
	}

	if err = tunnel.requestConn(); err != nil {
		return nil, err
	}

	tunnel.wait.Add(1)
	go tunnel.serve()

	return tunnel, nil
}

// requestConn performs the connection handshake. On success the channel
// identifier is stored and both sequence counters are reset.
func (tunnel *Tunnel) requestConn() error {
	req, err := knxnet.NewConnReq(tunnel.sock.LocalAddr())
	if err != nil {
		return err
	}

	if err = tunnel.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(tunnel.config.ConnectTimeout)

	for {
		select {
		case <-timeout:
			// Leave connecting via disconnecting: tell the gateway we
			// gave up, in case the response is merely late.
			if disc, err := knxnet.NewDiscReq(0, tunnel.sock.LocalAddr()); err == nil {
				tunnel.sock.Send(disc)
			}
			return fmt.Errorf("knx: connect: %w", ErrNoResponse)

		case msg, ok := <-tunnel.sock.Inbound():
			if !ok {
				return ErrTunnelClosed
			}

			res, ok := msg.(*knxnet.ConnRes)
			if !ok {
				continue
			}

			switch res.Status {
			case knxnet.NoError:
				tunnel.channel = res.Channel
				tunnel.seqOut = 0
				tunnel.seqIn = 0
				tunnel.hbFails = 0
				return nil

			case knxnet.ErrNoMoreConnections:
				util.Warn(tunnel, "gateway has no free tunnel slots")
				return res.Status

			default:
				return res.Status
			}
		}
	}
}

// Send submits a CEMI frame as the payload of a tunneling request and
// waits until the gateway acknowledges it, the tunnel dies or the
// configured response timeout elapses (ErrNoResponse). Requests are
// dispatched in submission order, at most one in flight.
func (tunnel *Tunnel) Send(payload cemi.Message) error {
	job := newTunnelJob(payload)
	deadline := time.After(tunnel.config.ResponseTimeout)

	select {
	case tunnel.jobs <- job:
	case <-tunnel.done:
		return ErrTunnelClosed
	case <-deadline:
		return ErrNoResponse
	}

	select {
	case err := <-job.ack:
		return err
	case <-tunnel.done:
		return ErrTunnelClosed
	case <-deadline:
		return ErrNoResponse
	}
}

// Inbound returns the channel of L_Data payloads received from the bus, in
// on-wire order.
func (tunnel *Tunnel) Inbound() <-chan cemi.Message {
	return tunnel.inbound
}

// States returns the channel of lifecycle notifications.
func (tunnel *Tunnel) States() <-chan ConnectionState {
	return tunnel.states
}

// SourceAddr is the physical address stamped into outbound frames.
func (tunnel *Tunnel) SourceAddr() cemi.IndividualAddr {
	return tunnel.physAddr
}

// Close terminates the connection. Queued requests are purged; a
// disconnect request is sent to the gateway.
func (tunnel *Tunnel) Close() error {
	tunnel.once.Do(func() { close(tunnel.done) })
	tunnel.wait.Wait()
	return nil
}

// serve is the single goroutine that owns the session. It multiplexes the
// steady state over API jobs, inbound traffic and the heartbeat timer.
func (tunnel *Tunnel) serve() {
	defer tunnel.wait.Done()
	defer tunnel.sock.Close()
	defer close(tunnel.inbound)

	// Once the session is over, pending and future senders are released
	// through the done channel, whether the shutdown was ours or not.
	defer tunnel.once.Do(func() { close(tunnel.done) })

	tunnel.notifyState(ConnectionOnline)

	heartbeat := time.NewTicker(tunnel.config.HeartbeatInterval)
	defer heartbeat.Stop()

	reason := stopNone

steady:
	for {
		select {
		case <-tunnel.done:
			reason = stopClosed
			break steady

		case job := <-tunnel.jobs:
			if reason = tunnel.performJob(job); reason != stopNone {
				break steady
			}

		case <-heartbeat.C:
			if reason = tunnel.performHeartbeat(); reason != stopNone {
				break steady
			}

		case msg, ok := <-tunnel.sock.Inbound():
			if !ok {
				reason = stopPeer
				break steady
			}
			if reason = tunnel.handleInbound(msg); reason != stopNone {
				break steady
			}
		}
	}

	tunnel.purgeJobs()

	if reason == stopLocal || reason == stopClosed {
		tunnel.requestDisc()
	}

	tunnel.notifyState(ConnectionOffline)
}

// performJob sends one tunneling request, stamped with the current
// outbound sequence number, and awaits its acknowledgement. The request is
// re-sent once with the same sequence number; a second failure terminates
// the connection. A short pacing window follows every success.
func (tunnel *Tunnel) performJob(job *tunnelJob) stopReason {
	req := &knxnet.TunnelReq{
		Channel:   tunnel.channel,
		SeqNumber: tunnel.seqOut,
		Payload:   job.payload,
	}

	if err := tunnel.sock.Send(req); err != nil {
		job.complete(err)
		return stopPeer
	}

	timer := time.NewTimer(tunnel.config.AckTimeout)
	defer timer.Stop()

	failures := 0

	for {
		select {
		case <-tunnel.done:
			job.complete(ErrTunnelClosed)
			return stopClosed

		case <-timer.C:
			failures++
			if failures > 1 {
				util.Warn(tunnel, "request %s: no acknowledgement, giving up", job.id)
				job.complete(ErrNoResponse)
				return stopLocal
			}

			// Retransmit the identical request; the sequence number must
			// not advance without a positive acknowledgement.
			if err := tunnel.sock.Send(req); err != nil {
				job.complete(err)
				return stopPeer
			}
			timer.Reset(tunnel.config.AckTimeout)

		case msg, ok := <-tunnel.sock.Inbound():
			if !ok {
				job.complete(ErrTunnelClosed)
				return stopPeer
			}

			if res, isAck := msg.(*knxnet.TunnelRes); isAck {
				if res.Channel != tunnel.channel || res.SeqNumber != tunnel.seqOut {
					// Stray acknowledgement; the timer keeps running.
					continue
				}

				if res.Status == knxnet.NoError {
					tunnel.seqOut++
					util.Log(tunnel, "request %s acknowledged", job.id)
					job.complete(nil)
					return tunnel.pace()
				}

				failures++
				if failures > 1 {
					job.complete(res.Status)
					return stopLocal
				}

				if err := tunnel.sock.Send(req); err != nil {
					job.complete(err)
					return stopPeer
				}
				timer.Reset(tunnel.config.AckTimeout)
				continue
			}

			if reason := tunnel.handleInbound(msg); reason != stopNone {
				job.complete(ErrTunnelClosed)
				return reason
			}
		}
	}
}

// pace enforces the minimum interval between outbound requests. Inbound
// traffic keeps being served during the window.
func (tunnel *Tunnel) pace() stopReason {
	timer := time.NewTimer(tunnel.config.Pace)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return stopNone

		case <-tunnel.done:
			return stopClosed

		case msg, ok := <-tunnel.sock.Inbound():
			if !ok {
				return stopPeer
			}
			if reason := tunnel.handleInbound(msg); reason != stopNone {
				return reason
			}
		}
	}
}

// performHeartbeat probes the connection state. Failed probes are re-sent
// immediately; more than three consecutive failures terminate the
// connection. Inbound traffic keeps being served while waiting.
func (tunnel *Tunnel) performHeartbeat() stopReason {
	for {
		req, err := knxnet.NewConnStateReq(tunnel.channel, tunnel.sock.LocalAddr())
		if err != nil {
			return stopLocal
		}

		if err = tunnel.sock.Send(req); err != nil {
			return stopPeer
		}

		timer := time.NewTimer(tunnel.config.HeartbeatTimeout)

	await:
		for {
			select {
			case <-tunnel.done:
				timer.Stop()
				return stopClosed

			case <-timer.C:
				break await

			case msg, ok := <-tunnel.sock.Inbound():
				if !ok {
					timer.Stop()
					return stopPeer
				}

				if res, isState := msg.(*knxnet.ConnStateRes); isState {
					if res.Channel != tunnel.channel {
						continue
					}

					timer.Stop()

					if res.Status == knxnet.NoError {
						tunnel.hbFails = 0
						return stopNone
					}
					break await
				}

				if reason := tunnel.handleInbound(msg); reason != stopNone {
					timer.Stop()
					return reason
				}
			}
		}

		tunnel.hbFails++
		if tunnel.hbFails > 3 {
			util.Warn(tunnel, "heartbeat failed %d times, disconnecting", tunnel.hbFails)
			return stopLocal
		}
	}
}

// handleInbound processes a single inbound service in the steady state.
// Frames carrying a foreign channel identifier are dropped silently.
func (tunnel *Tunnel) handleInbound(msg knxnet.Service) stopReason {
	switch msg := msg.(type) {
	case *knxnet.TunnelReq:
		if msg.Channel != tunnel.channel {
			return stopNone
		}
		tunnel.handleTunnelReq(msg)

	case *knxnet.TunnelRes:
		// Stray acknowledgement outside a request cycle.

	case *knxnet.ConnStateRes:
		// Late heartbeat response; the failure counter already moved on.

	case *knxnet.DiscReq:
		if msg.Channel != tunnel.channel {
			return stopNone
		}

		res := &knxnet.DiscRes{Channel: tunnel.channel, Status: knxnet.NoError}
		tunnel.sock.Send(res)
		return stopPeer

	case *knxnet.DiscRes:
		if msg.Channel == tunnel.channel {
			return stopPeer
		}

	default:
		util.Log(tunnel, "ignoring unexpected service %T", msg)
	}

	return stopNone
}

// handleTunnelReq applies the sequence number rules to an inbound
// tunneling request: the expected number is acknowledged and delivered,
// its predecessor is acknowledged again without re-delivery, anything else
// is dropped without acknowledgement.
func (tunnel *Tunnel) handleTunnelReq(req *knxnet.TunnelReq) {
	expected := tunnel.seqIn

	if req.SeqNumber != expected && req.SeqNumber != expected-1 {
		util.Log(tunnel, "dropping tunnel request with sequence %d, expected %d",
			req.SeqNumber, expected)
		return
	}

	res := &knxnet.TunnelRes{
		Channel:   tunnel.channel,
		SeqNumber: req.SeqNumber,
		Status:    knxnet.NoError,
	}
	tunnel.sock.Send(res)

	if req.SeqNumber != expected {
		// A duplicate: acknowledged again, never re-delivered.
		return
	}

	tunnel.seqIn++
	tunnel.deliver(req.Payload)
}

// deliver hands an inbound payload to the consumer without ever blocking
// the session goroutine.
func (tunnel *Tunnel) deliver(payload cemi.Message) {
	select {
	case tunnel.inbound <- payload:
	default:
		util.Warn(tunnel, "inbound queue full, dropping frame")
	}
}

// purgeJobs rejects every queued request.
func (tunnel *Tunnel) purgeJobs() {
	for {
		select {
		case job := <-tunnel.jobs:
			job.complete(ErrTunnelClosed)
		default:
			return
		}
	}
}

// requestDisc sends a disconnect request and waits briefly for the
// confirmation. Running out of patience is not an error; the connection is
// gone either way.
func (tunnel *Tunnel) requestDisc() {
	req, err := knxnet.NewDiscReq(tunnel.channel, tunnel.sock.LocalAddr())
	if err != nil {
		return
	}

	if err = tunnel.sock.Send(req); err != nil {
		return
	}

	timeout := time.After(tunnel.config.DisconnectTimeout)

	for {
		select {
		case <-timeout:
			return

		case msg, ok := <-tunnel.sock.Inbound():
			if !ok {
				return
			}

			if res, isDisc := msg.(*knxnet.DiscRes); isDisc && res.Channel == tunnel.channel {
				return
			}
		}
	}
}

func (tunnel *Tunnel) notifyState(state ConnectionState) {
	select {
	case tunnel.states <- state:
	default:
	}
}
