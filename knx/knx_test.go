// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/dpt"
	"github.com/edgelink/knxip/knx/knxnet"
)

func switchPtr(v bool) *dpt.Switch {
	sw := dpt.Switch(v)
	return &sw
}

func makeOnlineGroupTunnel(t *testing.T, config TunnelConfig) (*GroupTunnel, *dummySocket) {
	t.Helper()

	tunnel, sock := makeOnlineTunnel(t, config)
	client := newGroupTunnel(tunnel, checkTunnelConfig(config))
	t.Cleanup(client.Close)

	return client, sock
}

// ackAll acknowledges every tunneling request the client sends.
func ackAll(sock *dummySocket, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case srv := <-sock.out:
			if req, ok := srv.(*knxnet.TunnelReq); ok {
				sock.gatewaySends(&knxnet.TunnelRes{
					Channel:   req.Channel,
					SeqNumber: req.SeqNumber,
					Status:    knxnet.NoError,
				})
			}
		}
	}
}

func TestGroupTunnelWrite(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	result := make(chan error, 1)
	go func() { result <- client.Write("1/2/3", switchPtr(true)) }()

	req, ok := sock.expect(t, time.Second).(*knxnet.TunnelReq)
	require.True(t, ok)
	assert.Equal(t, uint8(0), req.SeqNumber)

	ldata, ok := req.Payload.(*cemi.LDataReq)
	require.True(t, ok)
	assert.True(t, ldata.LData.IsGroupDest())
	assert.Equal(t, uint16(1<<11|2<<8|3), ldata.LData.Destination)
	assert.Equal(t, cemi.IndividualAddr(0xFF0F), ldata.LData.Source)
	assert.Equal(t, uint8(6), ldata.LData.Control2.Hops())

	app, ok := ldata.LData.Data.(*cemi.AppData)
	require.True(t, ok)
	assert.Equal(t, cemi.GroupValueWrite, app.Command)
	assert.Equal(t, []byte{1}, app.Data)

	sock.gatewaySends(&knxnet.TunnelRes{Channel: 7, SeqNumber: 0, Status: knxnet.NoError})
	require.NoError(t, <-result)
}

func TestGroupTunnelWriteBadAddress(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	assert.ErrorIs(t, client.Write("", switchPtr(true)), ErrBadGroupAddr)
	assert.ErrorIs(t, client.Write("32/0/0", switchPtr(true)), ErrBadGroupAddr)

	// Nothing went out on the wire.
	sock.expectNothing(t, 50*time.Millisecond)
}

func TestGroupTunnelWriteRaw(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	result := make(chan error, 1)
	go func() { result <- client.WriteRaw("1/2/3", []byte{0x0C, 0x80}, 16) }()

	req, ok := sock.expect(t, time.Second).(*knxnet.TunnelReq)
	require.True(t, ok)

	app := req.Payload.(*cemi.LDataReq).LData.Data.(*cemi.AppData)
	assert.Equal(t, []byte{0x00, 0x0C, 0x80}, app.Data)

	sock.gatewaySends(&knxnet.TunnelRes{Channel: 7, SeqNumber: 0, Status: knxnet.NoError})
	require.NoError(t, <-result)
}

func TestGroupTunnelRead(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	result := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		data, err := client.Read("0/1/2", time.Second)
		result <- data
		errs <- err
	}()

	req, ok := sock.expect(t, time.Second).(*knxnet.TunnelReq)
	require.True(t, ok)

	app := req.Payload.(*cemi.LDataReq).LData.Data.(*cemi.AppData)
	assert.Equal(t, cemi.GroupValueRead, app.Command)

	sock.gatewaySends(&knxnet.TunnelRes{Channel: 7, SeqNumber: 0, Status: knxnet.NoError})

	// The response arrives as an inbound indication.
	sock.gatewaySends(&knxnet.TunnelReq{
		Channel:   7,
		SeqNumber: 0,
		Payload: &cemi.LDataInd{
			LData: cemi.LData{
				Control1:    cemi.Control1StdFrame,
				Control2:    cemi.Control2GroupAddr | cemi.Control2Hops(6),
				Source:      0x1101,
				Destination: 1<<8 | 2,
				Data:        &cemi.AppData{Command: cemi.GroupValueResponse, Data: []byte{0x17}},
			},
		},
	})

	// The indication is acknowledged by the session layer.
	_, ok = sock.expect(t, time.Second).(*knxnet.TunnelRes)
	require.True(t, ok)

	assert.Equal(t, []byte{0x17}, <-result)
	require.NoError(t, <-errs)
}

func TestGroupTunnelReadTimeout(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	done := make(chan struct{})
	defer close(done)
	go ackAll(sock, done)

	_, err := client.Read("0/1/2", 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestGroupTunnelInboundEvents(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	sock.gatewaySends(inboundWrite(0, 0x1101, 0x0102, []byte{0x42}))

	_, ok := sock.expect(t, time.Second).(*knxnet.TunnelRes)
	require.True(t, ok)

	event := <-client.Inbound()
	assert.Equal(t, GroupWrite, event.Command)
	assert.Equal(t, cemi.IndividualAddr(0x1101), event.Source)
	assert.Equal(t, cemi.GroupAddr(0x0102), event.Destination)
	assert.Equal(t, []byte{0x42}, event.Data)
	assert.Equal(t, "1.1.1", event.Source.String())
	assert.Equal(t, "0/1/2", event.Destination.String())
}

func TestGroupTunnelFIFO(t *testing.T) {
	client, sock := makeOnlineGroupTunnel(t, testConfig())

	done := make(chan struct{})
	defer close(done)
	go ackAll(sock, done)

	// Submissions complete in order; sequence numbers follow call order.
	for i := 0; i < 5; i++ {
		require.NoError(t, client.Write("1/2/3", switchPtr(i%2 == 0)))
	}

	assert.Equal(t, uint8(5), client.tunnel.seqOut)
}
