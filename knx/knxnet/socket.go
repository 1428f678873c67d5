// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"

	"github.com/edgelink/knxip/knx/util"
)

// A Socket delivers inbound services and transmits outbound ones. Malformed
// inbound packets are logged and dropped; they never surface as errors.
type Socket interface {
	// Send transmits the given service.
	Send(payload ServicePackable) error

	// Inbound returns the channel on which decoded inbound services are
	// delivered. It is closed when the socket shuts down.
	Inbound() <-chan Service

	// LocalAddr returns the local endpoint of the socket.
	LocalAddr() net.Addr

	// Close shuts the socket down.
	Close() error
}

// A TunnelSocket is the unicast UDP socket used for control and tunneling
// traffic towards a single gateway. The classical separate control and data
// channels are folded onto this one socket; the connect request advertises
// its endpoint for both.
type TunnelSocket struct {
	conn    *net.UDPConn
	inbound chan Service
}

// DialTunnelUDP creates a unicast socket towards the gateway at the given
// "ip:port" address.
func DialTunnelUDP(address string) (*TunnelSocket, error) {
	addr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, fmt.Errorf("knxnet: resolve gateway address: %w", err)
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("knxnet: dial gateway: %w", err)
	}

	sock := &TunnelSocket{
		conn:    conn,
		inbound: make(chan Service),
	}
	go sock.serveInbound(addr)

	return sock, nil
}

// Send transmits the given service to the gateway.
func (sock *TunnelSocket) Send(payload ServicePackable) error {
	_, err := sock.conn.Write(AllocAndPack(payload))
	return err
}

// Inbound returns the channel of decoded inbound services.
func (sock *TunnelSocket) Inbound() <-chan Service {
	return sock.inbound
}

// LocalAddr returns the local endpoint of the socket.
func (sock *TunnelSocket) LocalAddr() net.Addr {
	return sock.conn.LocalAddr()
}

// Close shuts the socket down. The inbound channel is closed once the
// receiver terminates.
func (sock *TunnelSocket) Close() error {
	return sock.conn.Close()
}

func (sock *TunnelSocket) serveInbound(source *net.UDPAddr) {
	defer close(sock.inbound)

	buffer := make([]byte, 1500)

	for {
		len, err := sock.conn.Read(buffer)
		if err != nil {
			util.Log(sock, "receiver terminated: %v", err)
			return
		}

		_, srv, err := Unpack(buffer[:len])
		if err != nil {
			util.Log(sock, "dropping malformed packet: %v", err)
			continue
		}

		completeFromSource(srv, source)
		sock.inbound <- srv
	}
}

// A RouterSocket is a multicast UDP socket joined to the KNXnet/IP group.
// It serves gateway discovery as well as routing mode.
type RouterSocket struct {
	conn    net.PacketConn
	group   *net.UDPAddr
	inbound chan Service
}

// ListenRouterUDP creates a socket bound to the port of the given multicast
// group and joins the group on all suitable interfaces.
func ListenRouterUDP(multicastAddress string) (*RouterSocket, error) {
	group, err := net.ResolveUDPAddr("udp4", multicastAddress)
	if err != nil {
		return nil, fmt.Errorf("knxnet: resolve multicast group: %w", err)
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", group.Port))
	if err != nil {
		return nil, fmt.Errorf("knxnet: listen multicast: %w", err)
	}

	packet := ipv4.NewPacketConn(conn)

	if err := joinGroup(packet, group); err != nil {
		conn.Close()
		return nil, err
	}

	// Multicast loopback is left on so local gateways and tests on the
	// same host can be reached.
	packet.SetMulticastLoopback(true)
	packet.SetMulticastTTL(16)

	sock := &RouterSocket{
		conn:    conn,
		group:   group,
		inbound: make(chan Service),
	}
	go sock.serveInbound()

	return sock, nil
}

func joinGroup(packet *ipv4.PacketConn, group *net.UDPAddr) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("knxnet: list interfaces: %w", err)
	}

	joined := false
	for i := range ifaces {
		ifi := &ifaces[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}

		if err := packet.JoinGroup(ifi, group); err == nil {
			joined = true
		}
	}

	if !joined {
		// Fall back to the default interface.
		if err := packet.JoinGroup(nil, group); err != nil {
			return fmt.Errorf("knxnet: join multicast group: %w", err)
		}
	}

	return nil
}

// Send transmits the given service to the multicast group.
func (sock *RouterSocket) Send(payload ServicePackable) error {
	_, err := sock.conn.WriteTo(AllocAndPack(payload), sock.group)
	return err
}

// Inbound returns the channel of decoded inbound services.
func (sock *RouterSocket) Inbound() <-chan Service {
	return sock.inbound
}

// LocalAddr returns the local endpoint of the socket.
func (sock *RouterSocket) LocalAddr() net.Addr {
	return sock.conn.LocalAddr()
}

// Close shuts the socket down.
func (sock *RouterSocket) Close() error {
	return sock.conn.Close()
}

func (sock *RouterSocket) serveInbound() {
	defer close(sock.inbound)

	buffer := make([]byte, 1500)

	for {
		len, addr, err := sock.conn.ReadFrom(buffer)
		if err != nil {
			util.Log(sock, "receiver terminated: %v", err)
			return
		}

		_, srv, err := Unpack(buffer[:len])
		if err != nil {
			util.Log(sock, "dropping malformed packet from %v: %v", addr, err)
			continue
		}

		if udpAddr, ok := addr.(*net.UDPAddr); ok {
			completeFromSource(srv, udpAddr)
		}
		sock.inbound <- srv
	}
}

// completeFromSource substitutes wildcard host info endpoints with the
// actual source of the datagram.
func completeFromSource(srv Service, source *net.UDPAddr) {
	fill := func(info *HostInfo) {
		if !info.IsZero() {
			return
		}

		if filled, err := HostInfoFromAddress(source); err == nil {
			*info = filled
		}
	}

	switch srv := srv.(type) {
	case *SearchRes:
		fill(&srv.Control)
	case *ConnRes:
		fill(&srv.Control)
	case *ConnStateReq:
		fill(&srv.Control)
	case *DiscReq:
		fill(&srv.Control)
	}
}
