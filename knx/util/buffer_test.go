// Licensed under the MIT license which can be found in the LICENSE file.

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackIntegers(t *testing.T) {
	buffer := make([]byte, 15)

	n := PackSome(buffer, uint8(0xAB), uint16(0x1234), uint32(0xDEADBEEF), uint64(0x0102030405060708))
	assert.Equal(t, uint(15), n)
	assert.Equal(t, []byte{0xAB, 0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF, 1, 2, 3, 4, 5, 6, 7, 8}, buffer)

	var v8 uint8
	var v16 uint16
	var v32 uint32
	var v64 uint64

	n, err := UnpackSome(buffer, &v8, &v16, &v32, &v64)
	require.NoError(t, err)
	assert.Equal(t, uint(15), n)
	assert.Equal(t, uint8(0xAB), v8)
	assert.Equal(t, uint16(0x1234), v16)
	assert.Equal(t, uint32(0xDEADBEEF), v32)
	assert.Equal(t, uint64(0x0102030405060708), v64)
}

func TestUnpackShortBuffer(t *testing.T) {
	var v16 uint16
	_, err := Unpack([]byte{0x01}, &v16)
	assert.Error(t, err)

	var v8 uint8
	n, err := UnpackSome([]byte{0x01}, &v8, &v16)
	assert.Error(t, err)
	assert.Equal(t, uint(1), n)
}

func TestPackString(t *testing.T) {
	buffer := make([]byte, 10)

	PackString(buffer, 10, "hello")
	assert.Equal(t, []byte{'h', 'e', 'l', 'l', 'o', 0, 0, 0, 0, 0}, buffer)

	var out string
	n, err := UnpackString(buffer, 10, &out)
	require.NoError(t, err)
	assert.Equal(t, uint(10), n)
	assert.Equal(t, "hello", out)
}

func TestPackStringTruncates(t *testing.T) {
	buffer := make([]byte, 4)

	PackString(buffer, 4, "overflow")
	assert.Equal(t, []byte{'o', 'v', 'e', 0}, buffer)
}

type fixedPayload struct{ value uint16 }

func (fixedPayload) Size() uint           { return 2 }
func (p fixedPayload) Pack(buffer []byte) { Pack(buffer, p.value) }

func TestAllocAndPack(t *testing.T) {
	data := AllocAndPack(fixedPayload{0x0102}, fixedPayload{0x0304})
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}
