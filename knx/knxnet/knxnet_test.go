// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink/knxip/knx/cemi"
)

func testHostInfo() HostInfo {
	return HostInfo{
		Protocol: UDP4,
		Address:  Address{192, 168, 1, 10},
		Port:     3671,
	}
}

func testLDataReq() *cemi.LDataReq {
	return &cemi.LDataReq{
		LData: cemi.LData{
			Control1:    cemi.Control1StdFrame | cemi.Control1NoRepeat | cemi.Control1NoSysBroadcast,
			Control2:    cemi.Control2GroupAddr | cemi.Control2Hops(6),
			Source:      0xFFFF,
			Destination: 0x0A03,
			Data:        &cemi.AppData{Command: cemi.GroupValueWrite, Data: []byte{0x2A}},
		},
	}
}

// roundTrip packs the service into a full packet and parses it back.
func roundTrip(t *testing.T, srv ServicePackable) Service {
	t.Helper()

	data := AllocAndPack(srv)

	// The total length field must match the emitted byte count.
	total := uint16(data[4])<<8 | uint16(data[5])
	require.Equal(t, len(data), int(total))

	n, out, err := Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, uint(len(data)), n)
	require.Equal(t, srv.Service(), out.Service())

	return out
}

func TestHeaderConstants(t *testing.T) {
	req := &SearchReq{testHostInfo()}
	data := AllocAndPack(req)

	assert.Equal(t, byte(0x06), data[0])
	assert.Equal(t, byte(0x10), data[1])
	assert.Equal(t, byte(0x02), data[2])
	assert.Equal(t, byte(0x01), data[3])
}

func TestUnpackIncompletePacket(t *testing.T) {
	data := AllocAndPack(&SearchReq{testHostInfo()})

	_, _, err := Unpack(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrIncompletePacket)
}

func TestUnpackHeaderMismatch(t *testing.T) {
	data := AllocAndPack(&SearchReq{testHostInfo()})

	data[1] = 0x20
	_, _, err := Unpack(data)
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestSearchReqRoundTrip(t *testing.T) {
	out := roundTrip(t, &SearchReq{testHostInfo()})
	assert.Equal(t, testHostInfo(), out.(*SearchReq).HostInfo)
}

func TestSearchResRoundTrip(t *testing.T) {
	res := &SearchRes{
		Control: testHostInfo(),
		DescriptionB: DescriptionBlock{
			DeviceHardware: DeviceInformationBlock{
				Type:         DescriptionTypeDeviceInfo,
				Medium:       KNXMediumTP1,
				Source:       0x11DC,
				SerialNumber: DeviceSerialNumber{1, 2, 3, 4, 5, 6},
				HardwareAddr: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01},
				FriendlyName: "Test Gateway",
			},
			SupportedServices: SupportedServicesDIB{
				Type: DescriptionTypeSupportedServiceFamilies,
				Families: []ServiceFamily{
					{Type: ServiceFamilyTypeIPCore, Version: 1},
					{Type: ServiceFamilyTypeIPTunnelling, Version: 1},
				},
			},
		},
	}

	out := roundTrip(t, res).(*SearchRes)
	assert.Equal(t, res.Control, out.Control)
	assert.Equal(t, cemi.IndividualAddr(0x11DC), out.DescriptionB.DeviceHardware.Source)
	assert.Equal(t, "Test Gateway", out.DescriptionB.DeviceHardware.FriendlyName)
	assert.True(t, out.DescriptionB.SupportedServices.SupportsTunnelling())
}

func TestHostInfoRejectsTCP(t *testing.T) {
	info := testHostInfo()
	buffer := make([]byte, info.Size())
	info.Pack(buffer)

	buffer[1] = byte(TCP4)

	var out HostInfo
	_, err := out.Unpack(buffer)
	assert.ErrorIs(t, err, ErrUnsupportedTransport)
}

func TestDeviceInfoRejectsForeignType(t *testing.T) {
	dib := DeviceInformationBlock{
		Type:         DescriptionTypeDeviceInfo,
		HardwareAddr: []byte{0, 0, 0, 0, 0, 0},
	}

	buffer := make([]byte, dib.Size())
	dib.Pack(buffer)
	buffer[1] = 0x02

	var out DeviceInformationBlock
	_, err := out.Unpack(buffer)
	assert.ErrorIs(t, err, ErrUnknownDescription)
}

func TestConnReqRoundTrip(t *testing.T) {
	req := &ConnReq{
		Control: testHostInfo(),
		Tunnel:  testHostInfo(),
		Type:    TunnelConnType,
		Layer:   TunnelLayerData,
	}

	out := roundTrip(t, req).(*ConnReq)
	assert.Equal(t, req.Control, out.Control)
	assert.Equal(t, TunnelConnType, out.Type)
	assert.Equal(t, TunnelLayerData, out.Layer)
}

func TestConnResRoundTrip(t *testing.T) {
	res := &ConnRes{
		Channel:  7,
		Status:   NoError,
		Control:  testHostInfo(),
		BusAddr:  0x11FE,
		Complete: true,
	}

	out := roundTrip(t, res).(*ConnRes)
	assert.Equal(t, uint8(7), out.Channel)
	assert.Equal(t, NoError, out.Status)
	assert.True(t, out.Complete)
	assert.Equal(t, cemi.IndividualAddr(0x11FE), out.BusAddr)
}

func TestConnResErrorOnly(t *testing.T) {
	res := &ConnRes{Channel: 0, Status: ErrNoMoreConnections}

	out := roundTrip(t, res).(*ConnRes)
	assert.Equal(t, ErrNoMoreConnections, out.Status)
	assert.False(t, out.Complete)
}

func TestConnStateRoundTrip(t *testing.T) {
	req := &ConnStateReq{Channel: 7, Control: testHostInfo()}
	out := roundTrip(t, req).(*ConnStateReq)
	assert.Equal(t, uint8(7), out.Channel)

	res := &ConnStateRes{Channel: 7, Status: NoError}
	outRes := roundTrip(t, res).(*ConnStateRes)
	assert.Equal(t, NoError, outRes.Status)
}

func TestDisconnectRoundTrip(t *testing.T) {
	req := &DiscReq{Channel: 7, Control: testHostInfo()}
	out := roundTrip(t, req).(*DiscReq)
	assert.Equal(t, uint8(7), out.Channel)

	res := &DiscRes{Channel: 7, Status: NoError}
	outRes := roundTrip(t, res).(*DiscRes)
	assert.Equal(t, uint8(7), outRes.Channel)
}

func TestTunnelReqRoundTrip(t *testing.T) {
	req := &TunnelReq{Channel: 7, SeqNumber: 42, Payload: testLDataReq()}

	out := roundTrip(t, req).(*TunnelReq)
	assert.Equal(t, uint8(7), out.Channel)
	assert.Equal(t, uint8(42), out.SeqNumber)

	payload, ok := out.Payload.(*cemi.LDataReq)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0A03), payload.LData.Destination)

	app, ok := payload.LData.Data.(*cemi.AppData)
	require.True(t, ok)
	assert.Equal(t, cemi.GroupValueWrite, app.Command)
	assert.Equal(t, []byte{0x2A}, app.Data)
}

func TestTunnelResRoundTrip(t *testing.T) {
	res := &TunnelRes{Channel: 7, SeqNumber: 42, Status: NoError}

	out := roundTrip(t, res).(*TunnelRes)
	assert.Equal(t, uint8(42), out.SeqNumber)
	assert.Equal(t, NoError, out.Status)
}

func TestRoutingIndRoundTrip(t *testing.T) {
	ind := &RoutingInd{Payload: testLDataReq()}

	out := roundTrip(t, ind).(*RoutingInd)
	payload, ok := out.Payload.(*cemi.LDataReq)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0A03), payload.LData.Destination)
}

func TestDescriptionRoundTrip(t *testing.T) {
	req := &DescriptionReq{testHostInfo()}
	out := roundTrip(t, req).(*DescriptionReq)
	assert.Equal(t, testHostInfo(), out.HostInfo)
}
