// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"time"
)

// TunnelConfig bundles the options of a tunneling connection. The zero
// value is usable: empty or zero fields are replaced with the defaults
// below when the connection is opened.
type TunnelConfig struct {
	// Gateway is the "ip:port" control endpoint of the gateway. When
	// empty, the gateway is located through multicast discovery.
	Gateway string

	// GatewayFilter restricts discovery to gateways advertising this
	// physical address. An empty filter accepts any responder.
	GatewayFilter string

	// PhysAddr is the source physical address stamped into outbound
	// frames. Defaults to "15.15.15".
	PhysAddr string

	// TwoLevelAddressing selects the "main/sub" group address text format
	// instead of "main/middle/sub".
	TwoLevelAddressing bool

	// RequestL2Ack sets the acknowledge-request bit on outbound
	// L_Data.req frames. Off by default; most gateways ignore it.
	RequestL2Ack bool

	// SearchTimeout bounds gateway discovery.
	SearchTimeout time.Duration

	// ConnectTimeout bounds the connection handshake.
	ConnectTimeout time.Duration

	// AckTimeout bounds the wait for a tunneling acknowledgement. The
	// request is re-sent once with the same sequence number before the
	// connection is given up.
	AckTimeout time.Duration

	// Pace is the minimum interval between two outbound tunneling
	// requests, protecting the bus from overload.
	Pace time.Duration

	// HeartbeatInterval is the period of connection state probes.
	HeartbeatInterval time.Duration

	// HeartbeatTimeout bounds the wait for a single probe response. More
	// than three consecutive failures terminate the connection.
	HeartbeatTimeout time.Duration

	// DisconnectTimeout bounds the wait for a disconnect response.
	DisconnectTimeout time.Duration

	// ResponseTimeout is the default deadline for caller-facing requests.
	ResponseTimeout time.Duration
}

// DefaultTunnelConfig are the values used to fill in a zero config.
var DefaultTunnelConfig = TunnelConfig{
	PhysAddr:          "15.15.15",
	SearchTimeout:     15 * time.Second,
	ConnectTimeout:    15 * time.Second,
	AckTimeout:        time.Second,
	Pace:              50 * time.Millisecond,
	HeartbeatInterval: 45 * time.Second,
	HeartbeatTimeout:  10 * time.Second,
	DisconnectTimeout: 10 * time.Second,
	ResponseTimeout:   5 * time.Second,
}

// checkTunnelConfig fills in the defaults for unset fields.
func checkTunnelConfig(config TunnelConfig) TunnelConfig {
	if config.PhysAddr == "" {
		config.PhysAddr = DefaultTunnelConfig.PhysAddr
	}
	if config.SearchTimeout <= 0 {
		config.SearchTimeout = DefaultTunnelConfig.SearchTimeout
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultTunnelConfig.ConnectTimeout
	}
	if config.AckTimeout <= 0 {
		config.AckTimeout = DefaultTunnelConfig.AckTimeout
	}
	if config.Pace <= 0 {
		config.Pace = DefaultTunnelConfig.Pace
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultTunnelConfig.HeartbeatInterval
	}
	if config.HeartbeatTimeout <= 0 {
		config.HeartbeatTimeout = DefaultTunnelConfig.HeartbeatTimeout
	}
	if config.DisconnectTimeout <= 0 {
		config.DisconnectTimeout = DefaultTunnelConfig.DisconnectTimeout
	}
	if config.ResponseTimeout <= 0 {
		config.ResponseTimeout = DefaultTunnelConfig.ResponseTimeout
	}
	return config
}

// RouterConfig bundles the options of a routing connection.
type RouterConfig struct {
	// Multicast is the multicast group to join. Defaults to the standard
	// KNXnet/IP group.
	Multicast string

	// PhysAddr is the source physical address stamped into outbound
	// frames.
	PhysAddr string

	// TwoLevelAddressing selects the "main/sub" group address text
	// format.
	TwoLevelAddressing bool
}

// DefaultRouterConfig are the values used to fill in a zero config.
var DefaultRouterConfig = RouterConfig{
	Multicast: "224.0.23.12:3671",
	PhysAddr:  "15.15.15",
}

func checkRouterConfig(config RouterConfig) RouterConfig {
	if config.Multicast == "" {
		config.Multicast = DefaultRouterConfig.Multicast
	}
	if config.PhysAddr == "" {
		config.PhysAddr = DefaultRouterConfig.PhysAddr
	}
	return config
}
