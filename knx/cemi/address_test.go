// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndividualAddr(t *testing.T) {
	addr, err := ParseIndividualAddr("1.1.220")
	require.NoError(t, err)
	assert.Equal(t, IndividualAddr(0x11DC), addr)
	assert.Equal(t, "1.1.220", addr.String())

	addr, err = ParseIndividualAddr("15.15.255")
	require.NoError(t, err)
	assert.Equal(t, IndividualAddr(0xFFFF), addr)
}

func TestParseIndividualAddrRejects(t *testing.T) {
	for _, text := range []string{"", "1.2", "1/2/3", "16.0.0", "0.16.0", "0.0.256", "a.b.c"} {
		_, err := ParseIndividualAddr(text)
		assert.Error(t, err, "expected error for %q", text)
	}
}

func TestParseGroupAddrThreeLevel(t *testing.T) {
	addr, err := ParseGroupAddr("1/2/3", false)
	require.NoError(t, err)
	assert.Equal(t, GroupAddr(1<<11|2<<8|3), addr)
	assert.Equal(t, "1/2/3", addr.String())
	assert.Equal(t, "1/2/3", addr.Format(false))
}

func TestParseGroupAddrTwoLevel(t *testing.T) {
	addr, err := ParseGroupAddr("1/515", true)
	require.NoError(t, err)
	assert.Equal(t, GroupAddr(1<<11|515), addr)
	assert.Equal(t, "1/515", addr.Format(true))
}

func TestParseGroupAddrRejects(t *testing.T) {
	cases := []struct {
		text     string
		twoLevel bool
	}{
		{"", false},
		{"1/2/3", true},
		{"1/2", false},
		{"32/0/0", false},
		{"0/8/0", false},
		{"0/0/256", false},
		{"32/0", true},
		{"0/2048", true},
		{"1.2.3", false},
	}

	for _, c := range cases {
		_, err := ParseGroupAddr(c.text, c.twoLevel)
		assert.Error(t, err, "expected error for %q (twoLevel=%v)", c.text, c.twoLevel)
	}
}

func TestGroupAddrRoundTrip(t *testing.T) {
	// Wire values sampled across the whole 16-bit range survive
	// format-then-parse in both layouts.
	for x := 0; x <= 0xFFFF; x += 7 {
		addr := GroupAddr(x)

		parsed, err := ParseGroupAddr(addr.Format(false), false)
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)

		parsed, err = ParseGroupAddr(addr.Format(true), true)
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)
	}
}

func TestIndividualAddrRoundTrip(t *testing.T) {
	for x := 0; x <= 0xFFFF; x += 13 {
		addr := IndividualAddr(x)

		parsed, err := ParseIndividualAddr(addr.String())
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)
	}
}

func TestNewGroupAddr(t *testing.T) {
	addr, err := NewGroupAddr3(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "1/2/3", fmt.Sprint(addr))

	_, err = NewGroupAddr3(32, 0, 0)
	assert.ErrorIs(t, err, ErrAddrOutOfRange)

	_, err = NewGroupAddr2(0, 2048)
	assert.ErrorIs(t, err, ErrAddrOutOfRange)

	_, err = NewIndividualAddr3(16, 0, 0)
	assert.ErrorIs(t, err, ErrAddrOutOfRange)
}
