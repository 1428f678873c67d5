// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"
	"net"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/util"
)

// ConnType is the requested connection type.
type ConnType uint8

const (
	// DeviceMgmtConnType requests a device management connection. Accepted
	// on the wire, never requested by this stack.
	DeviceMgmtConnType ConnType = 0x03

	// TunnelConnType requests a tunneling connection.
	TunnelConnType ConnType = 0x04
)

// TunnelLayer is the KNX layer a tunnel operates on.
type TunnelLayer uint8

// TunnelLayerData is the link-layer tunnel mode, the only one the stack
// requests.
const TunnelLayerData TunnelLayer = 0x02

// A ConnReq requests a connection from a KNXnet/IP server. It carries the
// control and tunnel endpoints plus the connection request information.
type ConnReq struct {
	Control HostInfo
	Tunnel  HostInfo
	Type    ConnType
	Layer   TunnelLayer
}

// NewConnReq creates a tunneling connection request. The same endpoint is
// advertised for control and data; the tunnel reuses the control socket.
func NewConnReq(addr net.Addr) (*ConnReq, error) {
	hostinfo, err := HostInfoFromAddress(addr)
	if err != nil {
		return nil, err
	}

	return &ConnReq{
		Control: hostinfo,
		Tunnel:  hostinfo,
		Type:    TunnelConnType,
		Layer:   TunnelLayerData,
	}, nil
}

// Service returns the service identifier for a Connection Request.
func (ConnReq) Service() ServiceID {
	return ConnReqService
}

// Size returns the packed size.
func (req ConnReq) Size() uint {
	return req.Control.Size() + req.Tunnel.Size() + 4
}

// Pack assembles the connection request in the given buffer.
func (req *ConnReq) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		&req.Control, &req.Tunnel,
		uint8(4), uint8(req.Type), uint8(req.Layer), uint8(0),
	)
}

// Unpack parses the given service payload in order to initialize the
// connection request.
func (req *ConnReq) Unpack(data []byte) (n uint, err error) {
	var length, reserved uint8

	if n, err = util.UnpackSome(
		data,
		&req.Control, &req.Tunnel,
		&length, (*uint8)(&req.Type), (*uint8)(&req.Layer), &reserved,
	); err != nil {
		return
	}

	if length != 4 {
		return n, errors.New("knxnet: connection request info length is invalid")
	}

	if req.Type != TunnelConnType && req.Type != DeviceMgmtConnType {
		return n, errors.New("knxnet: unsupported connection type")
	}

	return
}

// A ConnRes is the server's answer to a connection request. Channel and
// status are always present; the data endpoint and the assigned bus
// address follow only when the total length permits (i.e. on success).
type ConnRes struct {
	Channel  uint8
	Status   ErrCode
	Control  HostInfo
	BusAddr  cemi.IndividualAddr
	Complete bool
}

// Service returns the service identifier for a Connection Response.
func (ConnRes) Service() ServiceID {
	return ConnResService
}

// Size returns the packed size.
func (res ConnRes) Size() uint {
	if !res.Complete {
		return 2
	}
	return 2 + res.Control.Size() + 4
}

// Pack assembles the connection response in the given buffer.
func (res *ConnRes) Pack(buffer []byte) {
	if !res.Complete {
		util.PackSome(buffer, res.Channel, uint8(res.Status))
		return
	}

	util.PackSome(
		buffer,
		res.Channel, uint8(res.Status),
		&res.Control,
		uint8(4), uint8(TunnelConnType), uint16(res.BusAddr),
	)
}

// Unpack parses the given service payload in order to initialize the
// connection response. Error responses carry only channel and status.
func (res *ConnRes) Unpack(data []byte) (n uint, err error) {
	if n, err = util.UnpackSome(data, &res.Channel, (*uint8)(&res.Status)); err != nil {
		return
	}

	res.Complete = false
	if uint(len(data)) <= n {
		return
	}

	var length, connType uint8
	nn, err := util.UnpackSome(
		data[n:],
		&res.Control,
		&length, &connType, (*uint16)(&res.BusAddr),
	)
	n += nn
	if err != nil {
		return
	}

	res.Complete = true
	return
}
