// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"errors"
	"fmt"
	"io"

	"github.com/edgelink/knxip/knx/util"
)

// TPCI is the Transport Protocol Control Information.
type TPCI uint8

// These are usable TPCI values.
const (
	Connect    TPCI = 0b00
	Disconnect TPCI = 0b01
	Ack        TPCI = 0b10
	Nak        TPCI = 0b11
)

// APCI is the Application-layer Protocol Control Information. The upper
// four bits select the command; for group commands the lower six bits are
// available to embed small payloads.
type APCI uint16

// These are the APCI values the stack emits and understands.
const (
	GroupValueRead     APCI = 0b0000000000
	GroupValueResponse APCI = 0b0001000000
	GroupValueWrite    APCI = 0b0010000000

	IndividualAddrWrite    APCI = 0b0011000000
	IndividualAddrRequest  APCI = 0b0100000000
	IndividualAddrResponse APCI = 0b0101000000

	AdcRead             APCI = 0b0110000000
	AdcResponse         APCI = 0b0111000000
	MemoryRead          APCI = 0b1000000000
	MemoryResponse      APCI = 0b1001000000
	MemoryWrite         APCI = 0b1010000000
	UserMessage         APCI = 0b1011000000
	MaskVersionRead     APCI = 0b1100000000
	MaskVersionResponse APCI = 0b1101000000
	Restart             APCI = 0b1110000000
	Escape              APCI = 0b1111000000
)

// IsGroupCommand determines if the APCI indicates a group command.
func (apci APCI) IsGroupCommand() bool {
	return (apci >> 6) < 3
}

// IsValid determines if the APCI is part of the supported command set.
func (apci APCI) IsValid() bool {
	return apci&0x3F == 0 && (apci>>6) <= 15
}

// String names the command for event reporting.
func (apci APCI) String() string {
	switch apci {
	case GroupValueRead:
		return "GroupValue_Read"
	case GroupValueResponse:
		return "GroupValue_Response"
	case GroupValueWrite:
		return "GroupValue_Write"
	default:
		return fmt.Sprintf("APCI(%#04x)", uint16(apci))
	}
}

// Errors returned when assembling an application data unit.
var (
	// ErrUnknownAPCI indicates a command outside the supported set.
	ErrUnknownAPCI = errors.New("cemi: unknown APCI")

	// ErrDataTooLong indicates a payload that exceeds the 17-byte APDU
	// limit.
	ErrDataTooLong = errors.New("cemi: APDU payload too long")
)

// An AppData is a transport unit that carries application data. The low
// six bits of Data[0] are embedded into the APCI word (higher bits of that
// byte are dropped); any further bytes follow the word verbatim. A
// single-byte payload therefore yields the three-byte form.
type AppData struct {
	Numbered  bool
	SeqNumber uint8
	Command   APCI
	Data      []byte
}

// Check validates that the unit can be assembled: the command must be part
// of the supported set and the payload must fit the 17-byte APDU limit.
func (app *AppData) Check() error {
	if !app.Command.IsValid() {
		return ErrUnknownAPCI
	}

	if len(app.Data) > 15 {
		return ErrDataTooLong
	}

	return nil
}

// Size returns the packed size including the leading length byte.
func (app *AppData) Size() uint {
	dataLength := uint(len(app.Data))

	if dataLength > 15 {
		dataLength = 15
	} else if dataLength < 1 {
		dataLength = 1
	}

	return 2 + dataLength
}

// Pack assembles the transport unit including its leading length byte.
func (app *AppData) Pack(buffer []byte) {
	dataLength := len(app.Data)

	if dataLength > 15 {
		dataLength = 15
	} else if dataLength < 1 {
		dataLength = 1
	}

	buffer[0] = byte(dataLength)

	buffer[1] = 0
	if app.Numbered {
		buffer[1] |= 1<<6 | (app.SeqNumber&15)<<2
	}

	// The lowest two bits of the first byte hold the upper two bits of
	// the APCI.
	buffer[1] |= byte(app.Command>>8) & 3

	copy(buffer[2:2+dataLength], app.Data)

	// The upper two bits of the second byte hold the remaining APCI bits;
	// the lower six bits belong to an embedded payload.
	buffer[2] &= 63
	buffer[2] |= byte((app.Command>>6)&3) << 6
}

// A ControlData is a transport unit that carries control information only.
type ControlData struct {
	Numbered  bool
	SeqNumber uint8
	Command   TPCI
}

// TAck creates a T_ACK control unit with the given sequence number.
func TAck(seqNumber uint8) *ControlData {
	return &ControlData{Numbered: true, SeqNumber: seqNumber, Command: Ack}
}

// TConnect creates a T_CONNECT control unit.
func TConnect() *ControlData {
	return &ControlData{Command: Connect}
}

// TDisconnect creates a T_DISCONNECT control unit.
func TDisconnect() *ControlData {
	return &ControlData{Command: Disconnect}
}

// Size returns the packed size.
func (ControlData) Size() uint {
	return 2
}

// Pack assembles the transport unit including its leading length byte.
func (control *ControlData) Pack(buffer []byte) {
	buffer[0] = 0
	buffer[1] = 1<<7 | uint8(control.Command)&3

	if control.Numbered {
		buffer[1] |= 1<<6 | (control.SeqNumber&15)<<2
	}
}

// A TransportUnit is the payload of an L_Data body.
type TransportUnit interface {
	util.Packable
}

// unpackTransportUnit parses the transport unit encoded in the given data.
func unpackTransportUnit(data []byte, unit *TransportUnit) (uint, error) {
	if len(data) < 2 {
		return 0, io.ErrUnexpectedEOF
	}

	// The most significant bit distinguishes control from data units.
	if data[1]&(1<<7) != 0 {
		*unit = &ControlData{
			Numbered:  data[1]&(1<<6) != 0,
			SeqNumber: (data[1] >> 2) & 15,
			Command:   TPCI(data[1] & 3),
		}

		return 2, nil
	}

	dataLength := uint(data[0])

	if len(data) < 3 || uint(len(data)) < dataLength+2 {
		return 0, io.ErrUnexpectedEOF
	}

	app := &AppData{
		Numbered:  data[1]&(1<<6) != 0,
		SeqNumber: (data[1] >> 2) & 15,
		Command:   APCI(uint16(data[1]&3)<<8 | uint16(data[2]>>6)<<6),
	}

	if dataLength > 1 {
		// The payload follows the APCI word; the first byte holds the six
		// bits left over from the word.
		app.Data = make([]byte, dataLength)
		copy(app.Data, data[2:])
		app.Data[0] &= 63
	} else {
		// A small payload is embedded in the low six bits of the word.
		app.Data = []byte{data[2] & 63}
	}

	*unit = app

	return dataLength + 2, nil
}
