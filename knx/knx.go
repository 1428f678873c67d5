// Licensed under the MIT license which can be found in the LICENSE file.

// Package knx provides clients for KNXnet/IP gateways: a tunneling client
// with discovery, pacing, heartbeat and fault recovery, and a routing
// client for multicast operation.
package knx

import (
	"sync"
	"time"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/dpt"
	"github.com/edgelink/knxip/knx/util"
)

// A GroupClient can submit group operations to the bus and observe the
// ones that appear on it.
type GroupClient interface {
	// Send submits a group event to the bus.
	Send(event GroupEvent) error

	// Inbound returns the channel of observed group events.
	Inbound() <-chan GroupEvent
}

// A GroupTunnel talks group telegrams through a tunneling connection.
type GroupTunnel struct {
	tunnel  *Tunnel
	config  TunnelConfig
	inbound chan GroupEvent

	mu      sync.Mutex
	waiters map[cemi.GroupAddr][]chan []byte
}

// NewGroupTunnel establishes a tunneling connection for group
// communication.
func NewGroupTunnel(config TunnelConfig) (*GroupTunnel, error) {
	tunnel, err := NewTunnel(config)
	if err != nil {
		return nil, err
	}

	return newGroupTunnel(tunnel, checkTunnelConfig(config)), nil
}

func newGroupTunnel(tunnel *Tunnel, config TunnelConfig) *GroupTunnel {
	client := &GroupTunnel{
		tunnel:  tunnel,
		config:  config,
		inbound: make(chan GroupEvent, 32),
		waiters: make(map[cemi.GroupAddr][]chan []byte),
	}

	go client.serve()

	return client
}

// serve fans inbound L_Data indications out to the event channel and to
// pending read waiters, in on-wire order.
func (client *GroupTunnel) serve() {
	defer close(client.inbound)

	for msg := range client.tunnel.Inbound() {
		ind, ok := msg.(*cemi.LDataInd)
		if !ok {
			continue
		}

		event, ok := groupEventFromLData(&ind.LData)
		if !ok {
			continue
		}

		if event.Command == GroupResponse {
			client.fulfillRead(event)
		}

		select {
		case client.inbound <- event:
		default:
			util.Warn(client, "event queue full, dropping %v from %v",
				event.Command, event.Source)
		}
	}
}

func (client *GroupTunnel) fulfillRead(event GroupEvent) {
	client.mu.Lock()
	defer client.mu.Unlock()

	pending := client.waiters[event.Destination]
	if len(pending) == 0 {
		return
	}

	// Waiters are completed in request order.
	waiter := pending[0]
	client.waiters[event.Destination] = pending[1:]

	data := make([]byte, len(event.Data))
	copy(data, event.Data)
	waiter <- data
}

func (client *GroupTunnel) addWaiter(addr cemi.GroupAddr) chan []byte {
	waiter := make(chan []byte, 1)

	client.mu.Lock()
	client.waiters[addr] = append(client.waiters[addr], waiter)
	client.mu.Unlock()

	return waiter
}

func (client *GroupTunnel) removeWaiter(addr cemi.GroupAddr, waiter chan []byte) {
	client.mu.Lock()
	defer client.mu.Unlock()

	pending := client.waiters[addr]
	for i, w := range pending {
		if w == waiter {
			client.waiters[addr] = append(pending[:i], pending[i+1:]...)
			return
		}
	}
}

// Send submits a group event through the tunnel and waits for the
// gateway's acknowledgement.
func (client *GroupTunnel) Send(event GroupEvent) error {
	req, err := buildGroupOutbound(
		client.tunnel.SourceAddr(), event.Command, event.Destination,
		event.Data, client.config.RequestL2Ack,
	)
	if err != nil {
		return err
	}

	return client.tunnel.Send(req)
}

// Inbound returns the channel of observed group events.
func (client *GroupTunnel) Inbound() <-chan GroupEvent {
	return client.inbound
}

// States returns the channel of lifecycle notifications of the underlying
// tunnel.
func (client *GroupTunnel) States() <-chan ConnectionState {
	return client.tunnel.States()
}

// Close terminates the connection.
func (client *GroupTunnel) Close() {
	client.tunnel.Close()
}

// parseGroup applies the configured group address text format.
func (client *GroupTunnel) parseGroup(group string) (cemi.GroupAddr, error) {
	if group == "" {
		util.Warn(client, "missing group address")
		return 0, ErrBadGroupAddr
	}

	addr, err := cemi.ParseGroupAddr(group, client.config.TwoLevelAddressing)
	if err != nil {
		util.Warn(client, "bad group address %q: %v", group, err)
		return 0, ErrBadGroupAddr
	}

	return addr, nil
}

// Read requests the value of the given group address and waits for the
// matching response telegram. A non-positive timeout uses the configured
// response timeout.
func (client *GroupTunnel) Read(group string, timeout time.Duration) ([]byte, error) {
	addr, err := client.parseGroup(group)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = client.config.ResponseTimeout
	}

	// Register before sending so a fast response cannot slip past.
	waiter := client.addWaiter(addr)
	defer client.removeWaiter(addr, waiter)

	if err := client.Send(GroupEvent{Command: GroupRead, Destination: addr}); err != nil {
		return nil, err
	}

	select {
	case data := <-waiter:
		return data, nil
	case <-time.After(timeout):
		return nil, ErrNoResponse
	case <-client.tunnel.done:
		return nil, ErrTunnelClosed
	}
}

// Write submits a datapoint value to the given group address. It returns
// once the gateway acknowledges the request.
func (client *GroupTunnel) Write(group string, value dpt.DatapointValue) error {
	addr, err := client.parseGroup(group)
	if err != nil {
		return err
	}

	return client.Send(GroupEvent{
		Command:     GroupWrite,
		Destination: addr,
		Data:        value.Pack(),
	})
}

// WriteRaw submits pre-encoded payload bytes to the given group address,
// bypassing datapoint encoding. bitLength declares the payload width;
// widths up to six bits travel embedded in the APCI word.
func (client *GroupTunnel) WriteRaw(group string, data []byte, bitLength uint) error {
	addr, err := client.parseGroup(group)
	if err != nil {
		return err
	}

	return client.Send(GroupEvent{
		Command:     GroupWrite,
		Destination: addr,
		Data:        rawAppData(data, bitLength),
	})
}

// Respond answers a read request on the given group address.
func (client *GroupTunnel) Respond(group string, value dpt.DatapointValue) error {
	addr, err := client.parseGroup(group)
	if err != nil {
		return err
	}

	return client.Send(GroupEvent{
		Command:     GroupResponse,
		Destination: addr,
		Data:        value.Pack(),
	})
}
