// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"net"

	"github.com/edgelink/knxip/knx/util"
)

// A ConnStateReq is a heartbeat probe for an established connection.
type ConnStateReq struct {
	Channel uint8
	Status  ErrCode
	Control HostInfo
}

// NewConnStateReq creates a heartbeat probe for the given channel.
func NewConnStateReq(channel uint8, addr net.Addr) (*ConnStateReq, error) {
	hostinfo, err := HostInfoFromAddress(addr)
	if err != nil {
		return nil, err
	}

	return &ConnStateReq{Channel: channel, Control: hostinfo}, nil
}

// Service returns the service identifier for a Connection State Request.
func (ConnStateReq) Service() ServiceID {
	return ConnStateReqService
}

// Size returns the packed size.
func (req ConnStateReq) Size() uint {
	return 2 + req.Control.Size()
}

// Pack assembles the connection state request in the given buffer.
func (req *ConnStateReq) Pack(buffer []byte) {
	util.PackSome(buffer, req.Channel, uint8(req.Status), &req.Control)
}

// Unpack parses the given service payload in order to initialize the
// connection state request.
func (req *ConnStateReq) Unpack(data []byte) (uint, error) {
	return util.UnpackSome(data, &req.Channel, (*uint8)(&req.Status), &req.Control)
}

// A ConnStateRes answers a heartbeat probe.
type ConnStateRes struct {
	Channel uint8
	Status  ErrCode
}

// Service returns the service identifier for a Connection State Response.
func (ConnStateRes) Service() ServiceID {
	return ConnStateResService
}

// Size returns the packed size.
func (ConnStateRes) Size() uint {
	return 2
}

// Pack assembles the connection state response in the given buffer.
func (res *ConnStateRes) Pack(buffer []byte) {
	util.PackSome(buffer, res.Channel, uint8(res.Status))
}

// Unpack parses the given service payload in order to initialize the
// connection state response.
func (res *ConnStateRes) Unpack(data []byte) (uint, error) {
	return util.UnpackSome(data, &res.Channel, (*uint8)(&res.Status))
}

// A DiscReq asks the peer to terminate the connection.
type DiscReq struct {
	Channel uint8
	Status  ErrCode
	Control HostInfo
}

// NewDiscReq creates a disconnect request for the given channel.
func NewDiscReq(channel uint8, addr net.Addr) (*DiscReq, error) {
	hostinfo, err := HostInfoFromAddress(addr)
	if err != nil {
		return nil, err
	}

	return &DiscReq{Channel: channel, Control: hostinfo}, nil
}

// Service returns the service identifier for a Disconnect Request.
func (DiscReq) Service() ServiceID {
	return DiscReqService
}

// Size returns the packed size.
func (req DiscReq) Size() uint {
	return 2 + req.Control.Size()
}

// Pack assembles the disconnect request in the given buffer.
func (req *DiscReq) Pack(buffer []byte) {
	util.PackSome(buffer, req.Channel, uint8(req.Status), &req.Control)
}

// Unpack parses the given service payload in order to initialize the
// disconnect request.
func (req *DiscReq) Unpack(data []byte) (uint, error) {
	return util.UnpackSome(data, &req.Channel, (*uint8)(&req.Status), &req.Control)
}

// A DiscRes confirms the termination of a connection.
type DiscRes struct {
	Channel uint8
	Status  ErrCode
}

// Service returns the service identifier for a Disconnect Response.
func (DiscRes) Service() ServiceID {
	return DiscResService
}

// Size returns the packed size.
func (DiscRes) Size() uint {
	return 2
}

// Pack assembles the disconnect response in the given buffer.
func (res *DiscRes) Pack(buffer []byte) {
	util.PackSome(buffer, res.Channel, uint8(res.Status))
}

// Unpack parses the given service payload in order to initialize the
// disconnect response.
func (res *DiscRes) Unpack(data []byte) (uint, error) {
	return util.UnpackSome(data, &res.Channel, (*uint8)(&res.Status))
}
