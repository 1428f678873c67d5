// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"
	"fmt"
	"net"

	"github.com/edgelink/knxip/knx/util"
)

// Protocol identifies the transport protocol of a host info structure.
type Protocol uint8

const (
	// UDP4 indicates UDP over IPv4.
	UDP4 Protocol = 1

	// TCP4 indicates TCP over IPv4. It is rejected on receipt; the stack
	// only speaks UDP.
	TCP4 Protocol = 2
)

// Address is an IPv4 address.
type Address [4]byte

// String formats the address in dotted form.
func (addr Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", addr[0], addr[1], addr[2], addr[3])
}

// Port is a UDP port number.
type Port uint16

// HostInfo is a Host Protocol Address Information (HPAI) structure. The
// zero endpoint 0.0.0.0:0 is legal on the wire and means "use the actual
// source of the datagram"; receivers fill it in from the sender.
type HostInfo struct {
	Protocol Protocol
	Address  Address
	Port     Port
}

// HostInfoFromAddress constructs a host info structure from a UDP address.
func HostInfoFromAddress(address net.Addr) (HostInfo, error) {
	udpAddr, ok := address.(*net.UDPAddr)
	if !ok {
		return HostInfo{}, errors.New("knxnet: address is not a UDP address")
	}

	hostinfo := HostInfo{Protocol: UDP4, Port: Port(udpAddr.Port)}

	ip := udpAddr.IP.To4()
	if ip == nil {
		return HostInfo{}, fmt.Errorf("knxnet: %v is not an IPv4 address", udpAddr.IP)
	}
	copy(hostinfo.Address[:], ip)

	return hostinfo, nil
}

// IsZero reports whether the structure holds the wildcard endpoint.
func (info HostInfo) IsZero() bool {
	return info.Address == Address{} && info.Port == 0
}

// UDPAddr converts the structure into a UDP address.
func (info HostInfo) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.IP(info.Address[:]),
		Port: int(info.Port),
	}
}

// Size returns the packed size.
func (HostInfo) Size() uint {
	return 8
}

// Pack assembles the host info structure in the given buffer.
func (info *HostInfo) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(8), uint8(info.Protocol),
		info.Address[:], uint16(info.Port),
	)
}

// Unpack parses the given data in order to initialize the structure.
// Structures announcing a transport other than UDP are rejected.
func (info *HostInfo) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&info.Protocol),
		info.Address[:], (*uint16)(&info.Port),
	); err != nil {
		return
	}

	if length != 8 {
		return n, errors.New("knxnet: host info structure length is invalid")
	}

	if info.Protocol != UDP4 {
		return n, ErrUnsupportedTransport
	}

	return
}
