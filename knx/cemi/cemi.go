// Licensed under the MIT license which can be found in the LICENSE file.

// Package cemi implements the Common External Message Interface: the KNX
// frame body carried inside tunneling requests and routing indications.
package cemi

import (
	"io"

	"github.com/edgelink/knxip/knx/util"
)

// MessageCode identifies the primitive a CEMI frame carries.
type MessageCode uint8

const (
	// LDataReqCode is the message code for L_Data.req.
	LDataReqCode MessageCode = 0x11

	// LDataIndCode is the message code for L_Data.ind.
	LDataIndCode MessageCode = 0x29

	// LDataConCode is the message code for L_Data.con.
	LDataConCode MessageCode = 0x2E
)

// A Message is the body of a CEMI frame.
type Message interface {
	util.Packable

	// MessageCode returns the message code of the frame.
	MessageCode() MessageCode
}

// Size returns the packed size of a full CEMI frame carrying the message.
func Size(msg Message) uint {
	return 2 + msg.Size()
}

// Pack assembles a full CEMI frame (message code, additional-info length,
// body) in the given buffer.
func Pack(buffer []byte, msg Message) {
	util.PackSome(buffer, uint8(msg.MessageCode()), uint8(0), msg)
}

// Unpack parses a CEMI frame. Additional information is skipped; message
// codes other than the L_Data primitives yield an UnsupportedMessage whose
// payload is kept verbatim.
func Unpack(data []byte) (n uint, msg Message, err error) {
	var code, infoLen uint8
	if n, err = util.UnpackSome(data, &code, &infoLen); err != nil {
		return
	}

	if uint(len(data)) < n+uint(infoLen) {
		return n, nil, io.ErrUnexpectedEOF
	}
	n += uint(infoLen)

	switch MessageCode(code) {
	case LDataReqCode:
		msg = &LDataReq{}
	case LDataIndCode:
		msg = &LDataInd{}
	case LDataConCode:
		msg = &LDataCon{}
	default:
		msg = &UnsupportedMessage{Code: MessageCode(code)}
	}

	nn, err := util.Unpack(data[n:], msg)
	return n + nn, msg, err
}

// An UnsupportedMessage is a CEMI frame with a message code the stack does
// not interpret. Its body is carried as-is.
type UnsupportedMessage struct {
	Code MessageCode
	Data []byte
}

// MessageCode returns the message code of the frame.
func (msg *UnsupportedMessage) MessageCode() MessageCode {
	return msg.Code
}

// Size returns the packed size.
func (msg *UnsupportedMessage) Size() uint {
	return uint(len(msg.Data))
}

// Pack copies the retained body into the buffer.
func (msg *UnsupportedMessage) Pack(buffer []byte) {
	copy(buffer, msg.Data)
}

// Unpack retains the remaining data verbatim.
func (msg *UnsupportedMessage) Unpack(data []byte) (uint, error) {
	msg.Data = make([]byte, len(data))
	copy(msg.Data, data)
	return uint(len(data)), nil
}
