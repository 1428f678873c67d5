// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"net"

	"github.com/edgelink/knxip/knx/util"
)

// NewDescriptionReq creates a new DescriptionReq; addr defines where the
// server should send the response to.
func NewDescriptionReq(addr net.Addr) (*DescriptionReq, error) {
	req := &DescriptionReq{}

	if addr == nil {
		req.HostInfo = HostInfo{Protocol: UDP4}
		return req, nil
	}

	hostinfo, err := HostInfoFromAddress(addr)
	if err != nil {
		return nil, err
	}
	req.HostInfo = hostinfo

	return req, nil
}

// A DescriptionReq asks a single server for its self-description over
// unicast.
type DescriptionReq struct {
	HostInfo
}

// Service returns the service identifier for a Description Request.
func (DescriptionReq) Service() ServiceID {
	return DescrReqService
}

// A DescriptionRes carries the server's self-description.
type DescriptionRes struct {
	DescriptionB DescriptionBlock
}

// Service returns the service identifier for a Description Response.
func (DescriptionRes) Service() ServiceID {
	return DescrResService
}

// Size returns the packed size.
func (res DescriptionRes) Size() uint {
	return res.DescriptionB.Size()
}

// Pack assembles the description response in the given buffer.
func (res *DescriptionRes) Pack(buffer []byte) {
	util.PackSome(buffer, &res.DescriptionB)
}

// Unpack parses the given service payload in order to initialize the
// description response.
func (res *DescriptionRes) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, &res.DescriptionB)
}
