// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"github.com/edgelink/knxip/knx/cemi"
)

// A RoutingInd is a CEMI frame forwarded via multicast. No acknowledgement
// is expected.
type RoutingInd struct {
	Payload cemi.Message
}

// Service returns the service identifier for a Routing Indication.
func (RoutingInd) Service() ServiceID {
	return RoutingIndService
}

// Size returns the packed size.
func (ind RoutingInd) Size() uint {
	return cemi.Size(ind.Payload)
}

// Pack assembles the routing indication in the given buffer.
func (ind *RoutingInd) Pack(buffer []byte) {
	cemi.Pack(buffer, ind.Payload)
}

// Unpack parses the given service payload in order to initialize the
// routing indication.
func (ind *RoutingInd) Unpack(data []byte) (n uint, err error) {
	n, ind.Payload, err = cemi.Unpack(data)
	return
}
