// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"time"

	"github.com/edgelink/knxip/knx/knxnet"
)

// Describe asks a single KNXnet/IP server for its self-description over
// unicast UDP. The address format is "ip:port".
func Describe(address string, timeout time.Duration) (*knxnet.DescriptionRes, error) {
	sock, err := knxnet.DialTunnelUDP(address)
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	req, err := knxnet.NewDescriptionReq(sock.LocalAddr())
	if err != nil {
		return nil, err
	}

	if err = sock.Send(req); err != nil {
		return nil, err
	}

	deadline := time.After(timeout)

	for {
		select {
		case msg, ok := <-sock.Inbound():
			if !ok {
				return nil, ErrNoResponse
			}

			if res, isDescr := msg.(*knxnet.DescriptionRes); isDescr {
				return res, nil
			}

		case <-deadline:
			return nil, ErrNoResponse
		}
	}
}
