// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppDataEmbeddedPayload(t *testing.T) {
	// Payloads of up to six bits occupy the low bits of the APCI word;
	// the whole unit is three bytes.
	app := &AppData{Command: GroupValueWrite, Data: []byte{0x2A}}
	require.NoError(t, app.Check())
	require.Equal(t, uint(3), app.Size())

	buffer := make([]byte, app.Size())
	app.Pack(buffer)
	assert.Equal(t, []byte{0x01, 0x00, 0x80 | 0x2A}, buffer)

	var unit TransportUnit
	n, err := unpackTransportUnit(buffer, &unit)
	require.NoError(t, err)
	assert.Equal(t, uint(3), n)

	out, ok := unit.(*AppData)
	require.True(t, ok)
	assert.Equal(t, GroupValueWrite, out.Command)
	assert.Equal(t, []byte{0x2A}, out.Data)
}

func TestAppDataLongPayload(t *testing.T) {
	// A full 14-byte payload (plus the word's leftover byte) yields the
	// maximum 17-byte APDU.
	data := make([]byte, 15)
	for i := 1; i < len(data); i++ {
		data[i] = byte(i)
	}

	app := &AppData{Command: GroupValueResponse, Data: data}
	require.NoError(t, app.Check())
	require.Equal(t, uint(17), app.Size())

	buffer := make([]byte, app.Size())
	app.Pack(buffer)
	assert.Equal(t, byte(15), buffer[0])

	var unit TransportUnit
	n, err := unpackTransportUnit(buffer, &unit)
	require.NoError(t, err)
	assert.Equal(t, uint(17), n)

	out, ok := unit.(*AppData)
	require.True(t, ok)
	assert.Equal(t, GroupValueResponse, out.Command)
	assert.Equal(t, data, out.Data)
}

func TestAppDataCheckRejectsOversizedPayload(t *testing.T) {
	app := &AppData{Command: GroupValueWrite, Data: make([]byte, 16)}
	assert.ErrorIs(t, app.Check(), ErrDataTooLong)
}

func TestAppDataRoundTripCommands(t *testing.T) {
	for _, apci := range []APCI{GroupValueRead, GroupValueResponse, GroupValueWrite} {
		app := &AppData{Command: apci, Data: []byte{0x01}}

		buffer := make([]byte, app.Size())
		app.Pack(buffer)

		var unit TransportUnit
		_, err := unpackTransportUnit(buffer, &unit)
		require.NoError(t, err)

		out := unit.(*AppData)
		assert.Equal(t, apci, out.Command)
	}
}

func TestAppDataCheckRejectsUnknownAPCI(t *testing.T) {
	app := &AppData{Command: APCI(0b0000000001), Data: []byte{0}}
	assert.ErrorIs(t, app.Check(), ErrUnknownAPCI)
}

func TestControlDataRoundTrip(t *testing.T) {
	control := TAck(5)

	buffer := make([]byte, control.Size())
	control.Pack(buffer)
	assert.Equal(t, []byte{0x00, 0xC0 | 5<<2 | uint8(Ack)}, buffer)

	var unit TransportUnit
	n, err := unpackTransportUnit(buffer, &unit)
	require.NoError(t, err)
	assert.Equal(t, uint(2), n)

	out, ok := unit.(*ControlData)
	require.True(t, ok)
	assert.True(t, out.Numbered)
	assert.Equal(t, uint8(5), out.SeqNumber)
	assert.Equal(t, Ack, out.Command)
}

func TestUnpackTransportUnitShortData(t *testing.T) {
	var unit TransportUnit

	_, err := unpackTransportUnit([]byte{0x01}, &unit)
	assert.Error(t, err)

	// Length byte announces more data than present.
	_, err = unpackTransportUnit([]byte{0x05, 0x00, 0x80}, &unit)
	assert.Error(t, err)
}

func TestAPCIString(t *testing.T) {
	assert.Equal(t, "GroupValue_Read", GroupValueRead.String())
	assert.Equal(t, "GroupValue_Response", GroupValueResponse.String())
	assert.Equal(t, "GroupValue_Write", GroupValueWrite.String())
}
