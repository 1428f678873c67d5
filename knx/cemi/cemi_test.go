// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink/knxip/knx/util"
)

func makeTestLData() LData {
	return LData{
		Control1:    Control1StdFrame | Control1NoRepeat | Control1NoSysBroadcast | Control1Prio(PriorityLow),
		Control2:    Control2GroupAddr | Control2Hops(6),
		Source:      0x110C,
		Destination: 0x0A03,
		Data:        &AppData{Command: GroupValueWrite, Data: []byte{0x01}},
	}
}

func TestLDataRoundTrip(t *testing.T) {
	req := &LDataReq{LData: makeTestLData()}

	buffer := make([]byte, Size(req))
	Pack(buffer, req)

	assert.Equal(t, byte(LDataReqCode), buffer[0])
	assert.Equal(t, byte(0), buffer[1])

	n, msg, err := Unpack(buffer)
	require.NoError(t, err)
	assert.Equal(t, uint(len(buffer)), n)

	out, ok := msg.(*LDataReq)
	require.True(t, ok)
	assert.Equal(t, req.LData.Control1, out.LData.Control1)
	assert.Equal(t, req.LData.Control2, out.LData.Control2)
	assert.Equal(t, req.LData.Source, out.LData.Source)
	assert.Equal(t, req.LData.Destination, out.LData.Destination)
	assert.Equal(t, req.LData.Data, out.LData.Data)
}

func TestLDataIndRoundTrip(t *testing.T) {
	ind := &LDataInd{LData: makeTestLData()}

	data := util.AllocAndPack(packableMessage{ind})

	n, msg, err := Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, uint(len(data)), n)

	out, ok := msg.(*LDataInd)
	require.True(t, ok)
	assert.True(t, out.LData.IsGroupDest())
	assert.Equal(t, uint8(6), out.LData.Control2.Hops())
	assert.Equal(t, PriorityLow, out.LData.Control1.Priority())
}

// packableMessage adapts a Message to util.Packable including the CEMI
// head.
type packableMessage struct{ msg Message }

func (p packableMessage) Size() uint         { return Size(p.msg) }
func (p packableMessage) Pack(buffer []byte) { Pack(buffer, p.msg) }

func TestUnpackUnsupportedMessageCode(t *testing.T) {
	// An L_Busmon.ind (0x2B) head parses into an opaque body.
	data := []byte{0x2B, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}

	n, msg, err := Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, uint(len(data)), n)

	out, ok := msg.(*UnsupportedMessage)
	require.True(t, ok)
	assert.Equal(t, MessageCode(0x2B), out.Code)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, out.Data)
}

func TestUnpackSkipsAdditionalInfo(t *testing.T) {
	req := &LDataReq{LData: makeTestLData()}

	body := make([]byte, req.LData.Size())
	req.LData.Pack(body)

	// Two bytes of additional information precede the body.
	data := append([]byte{byte(LDataReqCode), 2, 0xAA, 0xBB}, body...)

	_, msg, err := Unpack(data)
	require.NoError(t, err)

	out, ok := msg.(*LDataReq)
	require.True(t, ok)
	assert.Equal(t, req.LData.Destination, out.LData.Destination)
}
