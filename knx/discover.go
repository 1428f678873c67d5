// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"fmt"
	"time"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/knxnet"
	"github.com/edgelink/knxip/knx/util"
)

// Discover sends a search request to the KNXnet/IP multicast group and
// collects every response that arrives within the timeout.
func Discover(timeout time.Duration) ([]*knxnet.SearchRes, error) {
	sock, err := knxnet.ListenRouterUDP(knxnet.MulticastAddress)
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	req, err := knxnet.NewSearchReq(nil)
	if err != nil {
		return nil, err
	}

	if err = sock.Send(req); err != nil {
		return nil, err
	}

	var results []*knxnet.SearchRes
	deadline := time.After(timeout)

	for {
		select {
		case <-deadline:
			return results, nil

		case msg, ok := <-sock.Inbound():
			if !ok {
				return results, nil
			}

			if res, isSearch := msg.(*knxnet.SearchRes); isSearch {
				results = append(results, res)
			}
		}
	}
}

// matchesGatewayFilter decides whether a search response passes the
// configured discovery filter.
func matchesGatewayFilter(res *knxnet.SearchRes, filter cemi.IndividualAddr, filtered bool) bool {
	return !filtered || res.DescriptionB.DeviceHardware.Source == filter
}

// DiscoverGateway returns the first gateway whose advertised physical
// address matches the filter. An empty filter accepts any responder.
func DiscoverGateway(filter string, timeout time.Duration) (*knxnet.SearchRes, error) {
	var filterAddr cemi.IndividualAddr
	if filter != "" {
		var err error
		filterAddr, err = cemi.ParseIndividualAddr(filter)
		if err != nil {
			return nil, fmt.Errorf("knx: bad gateway filter %q: %w", filter, err)
		}
	}

	sock, err := knxnet.ListenRouterUDP(knxnet.MulticastAddress)
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	req, err := knxnet.NewSearchReq(nil)
	if err != nil {
		return nil, err
	}

	if err = sock.Send(req); err != nil {
		return nil, err
	}

	deadline := time.After(timeout)

	for {
		select {
		case <-deadline:
			return nil, ErrNoGatewayFound

		case msg, ok := <-sock.Inbound():
			if !ok {
				return nil, ErrNoGatewayFound
			}

			res, isSearch := msg.(*knxnet.SearchRes)
			if !isSearch {
				continue
			}

			if !matchesGatewayFilter(res, filterAddr, filter != "") {
				util.Log(res, "skipping gateway %v, filter is %v",
					res.DescriptionB.DeviceHardware.Source, filterAddr)
				continue
			}

			return res, nil
		}
	}
}
