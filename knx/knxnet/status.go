// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "fmt"

// ErrCode is a status code carried in connection-oriented responses.
type ErrCode uint8

// These are the status codes relevant to the client.
const (
	// NoError indicates a successful operation.
	NoError ErrCode = 0x00

	// ErrConnectionID indicates an unknown channel identifier.
	ErrConnectionID ErrCode = 0x21

	// ErrConnectionType indicates an unsupported connection type.
	ErrConnectionType ErrCode = 0x22

	// ErrConnectionOption indicates an unsupported connection option.
	ErrConnectionOption ErrCode = 0x23

	// ErrNoMoreConnections indicates that the server cannot accept another
	// connection.
	ErrNoMoreConnections ErrCode = 0x24

	// ErrDataConnection indicates an error concerning the data connection.
	ErrDataConnection ErrCode = 0x26

	// ErrKNXConnection indicates an error concerning the KNX connection.
	ErrKNXConnection ErrCode = 0x27

	// ErrTunnellingLayer indicates an unsupported tunneling layer.
	ErrTunnellingLayer ErrCode = 0x29
)

// String describes the status code.
func (code ErrCode) String() string {
	switch code {
	case NoError:
		return "no error"
	case ErrConnectionID:
		return "connection identifier not known"
	case ErrConnectionType:
		return "unsupported connection type"
	case ErrConnectionOption:
		return "unsupported connection option"
	case ErrNoMoreConnections:
		return "no more connections"
	case ErrDataConnection:
		return "data connection error"
	case ErrKNXConnection:
		return "KNX connection error"
	case ErrTunnellingLayer:
		return "unsupported tunneling layer"
	default:
		return fmt.Sprintf("status %#02x", uint8(code))
	}
}

// Error makes a status code usable as an error value.
func (code ErrCode) Error() string {
	return "knxnet: " + code.String()
}
