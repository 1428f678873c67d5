// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/util"
)

// A TunnelReq forwards a CEMI frame through an established tunnel. Both
// directions use it; each carries its own 8-bit sequence number.
type TunnelReq struct {
	Channel   uint8
	SeqNumber uint8
	Payload   cemi.Message
}

// Service returns the service identifier for a Tunneling Request.
func (TunnelReq) Service() ServiceID {
	return TunnelReqService
}

// Size returns the packed size.
func (req TunnelReq) Size() uint {
	return 4 + cemi.Size(req.Payload)
}

// Pack assembles the tunneling request in the given buffer.
func (req *TunnelReq) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(4), req.Channel, req.SeqNumber, uint8(0),
	)
	cemi.Pack(buffer[4:], req.Payload)
}

// Unpack parses the given service payload in order to initialize the
// tunneling request.
func (req *TunnelReq) Unpack(data []byte) (n uint, err error) {
	var length, reserved uint8

	if n, err = util.UnpackSome(
		data,
		&length, &req.Channel, &req.SeqNumber, &reserved,
	); err != nil {
		return
	}

	if length != 4 {
		return n, errors.New("knxnet: tunnel connection header length is invalid")
	}

	nn, payload, err := cemi.Unpack(data[n:])
	req.Payload = payload

	return n + nn, err
}

// A TunnelRes acknowledges a tunneling request with the sequence number it
// answers and a status code.
type TunnelRes struct {
	Channel   uint8
	SeqNumber uint8
	Status    ErrCode
}

// Service returns the service identifier for a Tunneling Acknowledgement.
func (TunnelRes) Service() ServiceID {
	return TunnelResService
}

// Size returns the packed size.
func (TunnelRes) Size() uint {
	return 4
}

// Pack assembles the tunneling acknowledgement in the given buffer.
func (res *TunnelRes) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(4), res.Channel, res.SeqNumber, uint8(res.Status),
	)
}

// Unpack parses the given service payload in order to initialize the
// tunneling acknowledgement.
func (res *TunnelRes) Unpack(data []byte) (n uint, err error) {
	var length uint8

	if n, err = util.UnpackSome(
		data,
		&length, &res.Channel, &res.SeqNumber, (*uint8)(&res.Status),
	); err != nil {
		return
	}

	if length != 4 {
		return n, errors.New("knxnet: tunnel connection header length is invalid")
	}

	return
}
