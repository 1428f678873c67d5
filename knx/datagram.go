// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"errors"

	"github.com/edgelink/knxip/knx/cemi"
)

// ErrBadGroupAddr indicates a missing or unparsable group address in an
// API call.
var ErrBadGroupAddr = errors.New("knx: bad group address")

// buildGroupOutbound assembles the L_Data.req skeleton for an outbound
// group operation: standard frame, no repetition, regular broadcast, low
// priority, group destination, hop count 6. The command and payload are
// checked here; an unknown APCI or an oversized payload yields an error.
func buildGroupOutbound(
	source cemi.IndividualAddr,
	cmd GroupCommand,
	dest cemi.GroupAddr,
	data []byte,
	requestAck bool,
) (*cemi.LDataReq, error) {
	app := &cemi.AppData{Command: cmd.apci(), Data: data}
	if err := app.Check(); err != nil {
		return nil, err
	}

	ctrl1 := cemi.Control1StdFrame | cemi.Control1NoRepeat |
		cemi.Control1NoSysBroadcast | cemi.Control1Prio(cemi.PriorityLow)
	if requestAck {
		ctrl1 |= cemi.Control1WantAck
	}

	return &cemi.LDataReq{
		LData: cemi.LData{
			Control1:    ctrl1,
			Control2:    cemi.Control2GroupAddr | cemi.Control2Hops(6),
			Source:      source,
			Destination: uint16(dest),
			Data:        app,
		},
	}, nil
}

// rawAppData converts raw payload bytes into the APDU data layout: values
// of up to six bits travel embedded in the APCI word, anything longer
// follows it with a zero placeholder byte in front.
func rawAppData(data []byte, bitLength uint) []byte {
	if bitLength <= 6 && len(data) == 1 {
		return []byte{data[0] & 63}
	}

	out := make([]byte, len(data)+1)
	copy(out[1:], data)
	return out
}

// groupEventFromLData extracts a group event from an inbound L_Data body.
// Non-group destinations and non-group commands yield no event.
func groupEventFromLData(ldata *cemi.LData) (GroupEvent, bool) {
	if !ldata.IsGroupDest() {
		return GroupEvent{}, false
	}

	app, ok := ldata.Data.(*cemi.AppData)
	if !ok {
		return GroupEvent{}, false
	}

	cmd, ok := commandFromAPCI(app.Command)
	if !ok {
		return GroupEvent{}, false
	}

	return GroupEvent{
		Command:     cmd,
		Source:      ldata.Source,
		Destination: cemi.GroupAddr(ldata.Destination),
		Data:        app.Data,
	}, true
}
