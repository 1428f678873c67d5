// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"github.com/edgelink/knxip/knx/util"
)

// ControlField1 is the first control byte of an L_Data frame. From the most
// significant bit downwards it packs: frame type (1), reserved (1), repeat
// (1), system broadcast (1), priority (2), acknowledge request (1) and
// confirm error (1).
type ControlField1 uint8

const (
	// Control1StdFrame indicates a standard frame.
	Control1StdFrame ControlField1 = 1 << 7

	// Control1NoRepeat disables repetition on the medium.
	Control1NoRepeat ControlField1 = 1 << 5

	// Control1NoSysBroadcast indicates a regular broadcast.
	Control1NoSysBroadcast ControlField1 = 1 << 4

	// Control1WantAck requests a Layer-2 acknowledgement.
	Control1WantAck ControlField1 = 1 << 1

	// Control1Con signals a transmission error within a L_Data.con.
	Control1Con ControlField1 = 1
)

// Priority is the bus access priority of a frame.
type Priority uint8

const (
	PrioritySystem Priority = 0
	PriorityNormal Priority = 1
	PriorityUrgent Priority = 2
	PriorityLow    Priority = 3
)

// Control1Prio places the given priority inside a ControlField1.
func Control1Prio(prio Priority) ControlField1 {
	return ControlField1(prio&3) << 2
}

// Priority extracts the priority bits.
func (ctrl1 ControlField1) Priority() Priority {
	return Priority(ctrl1>>2) & 3
}

// ControlField2 is the second control byte of an L_Data frame. It packs the
// destination address type (1 bit), the hop count (3 bits) and the extended
// frame format (4 bits).
type ControlField2 uint8

// Control2GroupAddr marks the destination address as a group address.
const Control2GroupAddr ControlField2 = 1 << 7

// Control2Hops places the given hop count inside a ControlField2.
func Control2Hops(hops uint8) ControlField2 {
	return ControlField2(hops&7) << 4
}

// Hops extracts the hop count.
func (ctrl2 ControlField2) Hops() uint8 {
	return uint8(ctrl2>>4) & 7
}

// A LData is the body shared by every L_Data primitive.
type LData struct {
	Control1    ControlField1
	Control2    ControlField2
	Source      IndividualAddr
	Destination uint16
	Data        TransportUnit
}

// IsGroupDest determines if the destination is a group address.
func (ldata *LData) IsGroupDest() bool {
	return ldata.Control2&Control2GroupAddr != 0
}

// Size returns the packed size.
func (ldata *LData) Size() uint {
	return 6 + ldata.Data.Size()
}

// Pack assembles the L_Data body in the given buffer.
func (ldata *LData) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(ldata.Control1), uint8(ldata.Control2),
		uint16(ldata.Source), ldata.Destination,
		ldata.Data,
	)
}

// Unpack parses the given data in order to initialize the L_Data body.
func (ldata *LData) Unpack(data []byte) (n uint, err error) {
	if n, err = util.UnpackSome(
		data,
		(*uint8)(&ldata.Control1), (*uint8)(&ldata.Control2),
		(*uint16)(&ldata.Source), &ldata.Destination,
	); err != nil {
		return
	}

	nn, err := unpackTransportUnit(data[n:], &ldata.Data)
	return n + nn, err
}

// A LDataReq is a request to transmit an L_Data frame.
type LDataReq struct {
	LData
}

// MessageCode returns the message code for L_Data.req.
func (*LDataReq) MessageCode() MessageCode {
	return LDataReqCode
}

// A LDataCon is a confirmation of a previously requested transmission.
type LDataCon struct {
	LData
}

// MessageCode returns the message code for L_Data.con.
func (*LDataCon) MessageCode() MessageCode {
	return LDataConCode
}

// A LDataInd is an indication of an L_Data frame received from the bus.
type LDataInd struct {
	LData
}

// MessageCode returns the message code for L_Data.ind.
func (*LDataInd) MessageCode() MessageCode {
	return LDataIndCode
}
