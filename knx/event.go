// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"github.com/edgelink/knxip/knx/cemi"
)

// GroupCommand is the group operation carried by a group event.
type GroupCommand uint8

const (
	// GroupRead requests the current value of a datapoint.
	GroupRead GroupCommand = 0

	// GroupResponse answers a read request.
	GroupResponse GroupCommand = 1

	// GroupWrite updates the value of a datapoint.
	GroupWrite GroupCommand = 2
)

// String names the command the way bus monitors report it.
func (cmd GroupCommand) String() string {
	switch cmd {
	case GroupRead:
		return "GroupValue_Read"
	case GroupResponse:
		return "GroupValue_Response"
	case GroupWrite:
		return "GroupValue_Write"
	default:
		return "Unknown"
	}
}

func commandFromAPCI(apci cemi.APCI) (GroupCommand, bool) {
	switch apci {
	case cemi.GroupValueRead:
		return GroupRead, true
	case cemi.GroupValueResponse:
		return GroupResponse, true
	case cemi.GroupValueWrite:
		return GroupWrite, true
	default:
		return 0, false
	}
}

func (cmd GroupCommand) apci() cemi.APCI {
	switch cmd {
	case GroupResponse:
		return cemi.GroupValueResponse
	case GroupWrite:
		return cemi.GroupValueWrite
	default:
		return cemi.GroupValueRead
	}
}

// A GroupEvent is a group operation observed on or submitted to the bus.
type GroupEvent struct {
	Command     GroupCommand
	Source      cemi.IndividualAddr
	Destination cemi.GroupAddr
	Data        []byte
}

// ConnectionState signals a lifecycle change of a connection.
type ConnectionState int

const (
	// ConnectionOnline is emitted when the tunnel reaches its steady
	// state.
	ConnectionOnline ConnectionState = iota

	// ConnectionOffline is emitted when the tunnel returns to idle.
	ConnectionOffline
)

// String describes the state.
func (state ConnectionState) String() string {
	if state == ConnectionOnline {
		return "online"
	}
	return "offline"
}
