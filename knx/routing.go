// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"fmt"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/dpt"
	"github.com/edgelink/knxip/knx/knxnet"
	"github.com/edgelink/knxip/knx/util"
)

// A Router speaks routing mode: CEMI frames are exchanged with the
// multicast group directly, without a tunnel, sequence numbers or
// acknowledgements.
type Router struct {
	sock    knxnet.Socket
	inbound chan cemi.Message
}

// NewRouter joins the multicast group and starts serving inbound routing
// indications.
func NewRouter(config RouterConfig) (*Router, error) {
	config = checkRouterConfig(config)

	sock, err := knxnet.ListenRouterUDP(config.Multicast)
	if err != nil {
		return nil, err
	}

	router := &Router{
		sock:    sock,
		inbound: make(chan cemi.Message, 32),
	}

	go router.serve()

	return router, nil
}

func (router *Router) serve() {
	defer close(router.inbound)

	for msg := range router.sock.Inbound() {
		ind, ok := msg.(*knxnet.RoutingInd)
		if !ok {
			continue
		}

		select {
		case router.inbound <- ind.Payload:
		default:
			util.Warn(router, "inbound queue full, dropping frame")
		}
	}
}

// Send forwards a CEMI frame to the multicast group. There is no
// acknowledgement to wait for.
func (router *Router) Send(payload cemi.Message) error {
	return router.sock.Send(&knxnet.RoutingInd{Payload: payload})
}

// Inbound returns the channel of received CEMI frames.
func (router *Router) Inbound() <-chan cemi.Message {
	return router.inbound
}

// Close shuts the router down.
func (router *Router) Close() error {
	return router.sock.Close()
}

// A GroupRouter talks group telegrams in routing mode. It is the
// counterpart of GroupTunnel for setups without a tunneling gateway.
type GroupRouter struct {
	router   *Router
	config   RouterConfig
	physAddr cemi.IndividualAddr
	inbound  chan GroupEvent
}

// NewGroupRouter joins the multicast group for group communication.
func NewGroupRouter(config RouterConfig) (*GroupRouter, error) {
	config = checkRouterConfig(config)

	physAddr, err := cemi.ParseIndividualAddr(config.PhysAddr)
	if err != nil {
		return nil, fmt.Errorf("knx: bad physical address %q: %w", config.PhysAddr, err)
	}

	router, err := NewRouter(config)
	if err != nil {
		return nil, err
	}

	client := &GroupRouter{
		router:   router,
		config:   config,
		physAddr: physAddr,
		inbound:  make(chan GroupEvent, 32),
	}

	go client.serve()

	return client, nil
}

func (client *GroupRouter) serve() {
	defer close(client.inbound)

	for msg := range client.router.Inbound() {
		ind, ok := msg.(*cemi.LDataInd)
		if !ok {
			continue
		}

		event, ok := groupEventFromLData(&ind.LData)
		if !ok {
			continue
		}

		select {
		case client.inbound <- event:
		default:
			util.Warn(client, "event queue full, dropping %v from %v",
				event.Command, event.Source)
		}
	}
}

// Send submits a group event to the multicast group. Routing mode carries
// indications, not requests.
func (client *GroupRouter) Send(event GroupEvent) error {
	req, err := buildGroupOutbound(
		client.physAddr, event.Command, event.Destination, event.Data, false,
	)
	if err != nil {
		return err
	}

	return client.router.Send(&cemi.LDataInd{LData: req.LData})
}

// Inbound returns the channel of observed group events.
func (client *GroupRouter) Inbound() <-chan GroupEvent {
	return client.inbound
}

// Close shuts the client down.
func (client *GroupRouter) Close() {
	client.router.Close()
}

// Write submits a datapoint value to the given group address. No
// acknowledgement exists in routing mode; a nil error means the frame was
// handed to the network.
func (client *GroupRouter) Write(group string, value dpt.DatapointValue) error {
	addr, err := cemi.ParseGroupAddr(group, client.config.TwoLevelAddressing)
	if err != nil {
		util.Warn(client, "bad group address %q: %v", group, err)
		return ErrBadGroupAddr
	}

	return client.Send(GroupEvent{
		Command:     GroupWrite,
		Destination: addr,
		Data:        value.Pack(),
	})
}
