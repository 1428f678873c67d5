// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/knxnet"
)

func searchResFrom(source cemi.IndividualAddr) *knxnet.SearchRes {
	return &knxnet.SearchRes{
		Control: knxnet.HostInfo{
			Protocol: knxnet.UDP4,
			Address:  knxnet.Address{192, 168, 1, 10},
			Port:     3671,
		},
		DescriptionB: knxnet.DescriptionBlock{
			DeviceHardware: knxnet.DeviceInformationBlock{
				Type:   knxnet.DescriptionTypeDeviceInfo,
				Source: source,
			},
		},
	}
}

func TestMatchesGatewayFilter(t *testing.T) {
	res := searchResFrom(0x11DC)

	// Unfiltered discovery accepts any responder.
	assert.True(t, matchesGatewayFilter(res, 0, false))

	// "1.1.220" is 0x11DC on the wire.
	assert.True(t, matchesGatewayFilter(res, 0x11DC, true))
	assert.False(t, matchesGatewayFilter(res, 0x11DD, true))
}
