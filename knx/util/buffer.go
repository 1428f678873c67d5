// Licensed under the MIT license which can be found in the LICENSE file.

package util

import (
	"encoding/binary"
	"fmt"
	"io"
)

// A Packable can be packed into a byte buffer.
type Packable interface {
	// Size returns the packed size.
	Size() uint

	// Pack assembles the structure in the given buffer. The buffer is
	// assumed to be at least Size() bytes long.
	Pack(buffer []byte)
}

// Pack serializes a single value into the buffer and returns the number of
// bytes written. Integers are packed in big endian byte order. It panics on
// unsupported types; the set of packable types is fixed at compile time.
func Pack(buffer []byte, value interface{}) uint {
	switch value := value.(type) {
	case uint8:
		buffer[0] = value
		return 1

	case uint16:
		binary.BigEndian.PutUint16(buffer, value)
		return 2

	case uint32:
		binary.BigEndian.PutUint32(buffer, value)
		return 4

	case uint64:
		binary.BigEndian.PutUint64(buffer, value)
		return 8

	case []byte:
		copy(buffer, value)
		return uint(len(value))

	case Packable:
		value.Pack(buffer)
		return value.Size()
	}

	panic(fmt.Sprintf("util: cannot pack type %T", value))
}

// PackSome serializes multiple values in sequence.
func PackSome(buffer []byte, values ...interface{}) uint {
	var n uint
	for _, value := range values {
		n += Pack(buffer[n:], value)
	}
	return n
}

// PackString packs a zero-padded string of the given maximum length.
// Strings longer than maxLen are truncated, always leaving room for at
// least one terminating zero byte.
func PackString(buffer []byte, maxLen uint, value string) uint {
	data := []byte(value)
	if uint(len(data)) >= maxLen {
		data = data[:maxLen-1]
	}

	copy(buffer, data)
	for i := uint(len(data)); i < maxLen; i++ {
		buffer[i] = 0
	}

	return maxLen
}

// AllocAndPack allocates a buffer of the exact packed size and packs the
// given values into it.
func AllocAndPack(values ...Packable) []byte {
	var size uint
	for _, value := range values {
		size += value.Size()
	}

	buffer := make([]byte, size)

	var n uint
	for _, value := range values {
		value.Pack(buffer[n:])
		n += value.Size()
	}

	return buffer
}

// An Unpackable can be initialized from a byte slice.
type Unpackable interface {
	// Unpack parses the given data in order to initialize the structure. It
	// returns the number of bytes consumed.
	Unpack(data []byte) (uint, error)
}

// Unpack parses a single value from the data and returns the number of
// bytes consumed. Integers are read in big endian byte order.
func Unpack(data []byte, value interface{}) (uint, error) {
	switch value := value.(type) {
	case *uint8:
		if len(data) < 1 {
			return 0, io.ErrUnexpectedEOF
		}
		*value = data[0]
		return 1, nil

	case *uint16:
		if len(data) < 2 {
			return 0, io.ErrUnexpectedEOF
		}
		*value = binary.BigEndian.Uint16(data)
		return 2, nil

	case *uint32:
		if len(data) < 4 {
			return 0, io.ErrUnexpectedEOF
		}
		*value = binary.BigEndian.Uint32(data)
		return 4, nil

	case *uint64:
		if len(data) < 8 {
			return 0, io.ErrUnexpectedEOF
		}
		*value = binary.BigEndian.Uint64(data)
		return 8, nil

	case []byte:
		if len(data) < len(value) {
			return 0, io.ErrUnexpectedEOF
		}
		copy(value, data)
		return uint(len(value)), nil

	case Unpackable:
		return value.Unpack(data)
	}

	panic(fmt.Sprintf("util: cannot unpack type %T", value))
}

// UnpackSome parses multiple values in sequence.
func UnpackSome(data []byte, values ...interface{}) (uint, error) {
	var n uint
	for _, value := range values {
		nn, err := Unpack(data[n:], value)
		if err != nil {
			return n, err
		}
		n += nn
	}
	return n, nil
}

// UnpackString extracts a zero-terminated or fully padded string from a
// fixed-size field.
func UnpackString(data []byte, size uint, value *string) (uint, error) {
	if uint(len(data)) < size {
		return 0, io.ErrUnexpectedEOF
	}

	field := data[:size]
	for i, b := range field {
		if b == 0 {
			field = field[:i]
			break
		}
	}

	*value = string(field)
	return size, nil
}
