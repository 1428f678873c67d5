// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"net"

	"github.com/edgelink/knxip/knx/util"
)

// NewSearchReq creates a new SearchReq; addr defines where the KNXnet/IP
// servers should send their responses to. A nil addr requests responses to
// the actual source of the datagram.
func NewSearchReq(addr net.Addr) (*SearchReq, error) {
	req := &SearchReq{}

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

// A SearchReq requests a discovery from all KNXnet/IP servers via
// multicast.
type SearchReq struct {
	HostInfo
}

// Service returns the service identifier for a Search Request.
func (SearchReq) Service() ServiceID {
	return SearchReqService
}

// A SearchRes is a single server's answer to a search request.
type SearchRes struct {
	Control      HostInfo
	DescriptionB DescriptionBlock
}

// Service returns the service identifier for a Search Response.
func (SearchRes) Service() ServiceID {
	return SearchResService
}

// Size returns the packed size.
func (res SearchRes) Size() uint {
	return res.Control.Size() + res.DescriptionB.Size()
}

// Pack assembles the search response in the given buffer.
func (res *SearchRes) Pack(buffer []byte) {
	util.PackSome(buffer, &res.Control, &res.DescriptionB)
}

// Unpack parses the given service payload in order to initialize the
// search response.
func (res *SearchRes) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, &res.Control, &res.DescriptionB)
}
