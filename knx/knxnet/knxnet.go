// Licensed under the MIT license which can be found in the LICENSE file.

// Package knxnet implements the KNXnet/IP frame family: the common header
// and the service bodies for discovery, connection management, tunneling
// and routing.
package knxnet

import (
	"errors"
	"fmt"

	"github.com/edgelink/knxip/knx/util"
)

// ServiceID identifies the service that a KNXnet/IP packet carries.
type ServiceID uint16

// These are the supported service identifiers.
const (
	SearchReqService ServiceID = 0x0201
	SearchResService ServiceID = 0x0202
	DescrReqService  ServiceID = 0x0203
	DescrResService  ServiceID = 0x0204
	ConnReqService   ServiceID = 0x0205
	ConnResService   ServiceID = 0x0206

	ConnStateReqService ServiceID = 0x0207
	ConnStateResService ServiceID = 0x0208
	DiscReqService      ServiceID = 0x0209
	DiscResService      ServiceID = 0x020a

	TunnelReqService ServiceID = 0x0420
	TunnelResService ServiceID = 0x0421

	RoutingIndService ServiceID = 0x0530
)

const (
	headerLen    uint8 = 0x06
	protoVersion uint8 = 0x10
)

// DefaultPort is the UDP port KNXnet/IP servers listen on.
const DefaultPort = 3671

// MulticastAddress is the IPv4 multicast group used for discovery and
// routing.
const MulticastAddress = "224.0.23.12:3671"

// A Service is the body of a KNXnet/IP packet.
type Service interface {
	// Service returns the service identifier.
	Service() ServiceID
}

// A ServicePackable is a service that can be assembled into a packet.
type ServicePackable interface {
	util.Packable
	Service
}

// A ServiceUnpackable is a service that can parse its body.
type ServiceUnpackable interface {
	Service
	util.Unpackable
}

// Codec errors. All of them are non-fatal: the offending packet is dropped.
var (
	// ErrIncompletePacket indicates fewer bytes than the header announced.
	ErrIncompletePacket = errors.New("knxnet: packet is shorter than its total length")

	// ErrHeaderMismatch indicates an unexpected header length or protocol
	// version.
	ErrHeaderMismatch = errors.New("knxnet: header length or protocol version mismatch")

	// ErrUnsupportedTransport indicates a host info structure announcing a
	// transport protocol other than UDP.
	ErrUnsupportedTransport = errors.New("knxnet: unsupported transport protocol")

	// ErrUnknownDescription indicates a device information block with an
	// unexpected description type.
	ErrUnknownDescription = errors.New("knxnet: unknown description type")
)

// Size returns the packed size of a full packet carrying the service.
func Size(srv ServicePackable) uint {
	return 6 + srv.Size()
}

// Pack assembles a full packet (header plus body) in the given buffer. The
// total length field is computed from the body's packed size.
func Pack(buffer []byte, srv ServicePackable) {
	util.PackSome(
		buffer,
		headerLen, protoVersion,
		uint16(srv.Service()),
		uint16(6+srv.Size()),
		srv,
	)
}

// AllocAndPack allocates a buffer of the exact packet size and packs the
// service into it.
func AllocAndPack(srv ServicePackable) []byte {
	buffer := make([]byte, Size(srv))
	Pack(buffer, srv)
	return buffer
}

// Unpack parses a full packet and dispatches on its service identifier.
func Unpack(data []byte) (n uint, srv Service, err error) {
	var hlen, version uint8
	var srvID, totalLen uint16

	if n, err = util.UnpackSome(data, &hlen, &version, &srvID, &totalLen); err != nil {
		return
	}

	if hlen != headerLen || version != protoVersion || totalLen < 6 {
		return n, nil, ErrHeaderMismatch
	}

	if uint(len(data)) < uint(totalLen) {
		return n, nil, ErrIncompletePacket
	}

	body := data[n:totalLen]

	var target ServiceUnpackable
	switch ServiceID(srvID) {
	case SearchReqService:
		target = &SearchReq{}
	case SearchResService:
		target = &SearchRes{}
	case DescrReqService:
		target = &DescriptionReq{}
	case DescrResService:
		target = &DescriptionRes{}
	case ConnReqService:
		target = &ConnReq{}
	case ConnResService:
		target = &ConnRes{}
	case ConnStateReqService:
		target = &ConnStateReq{}
	case ConnStateResService:
		target = &ConnStateRes{}
	case DiscReqService:
		target = &DiscReq{}
	case DiscResService:
		target = &DiscRes{}
	case TunnelReqService:
		target = &TunnelReq{}
	case TunnelResService:
		target = &TunnelRes{}
	case RoutingIndService:
		target = &RoutingInd{}
	default:
		return n, nil, fmt.Errorf("knxnet: unknown service identifier %#04x", srvID)
	}

	nn, err := target.Unpack(body)
	return n + nn, target, err
}
