// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// An IndividualAddr addresses a single device on the bus. On the wire it is
// packed as area (4 bits), line (4 bits) and device (8 bits).
type IndividualAddr uint16

// NewIndividualAddr3 generates an individual address from its three
// components.
func NewIndividualAddr3(area, line, device uint8) (IndividualAddr, error) {
	if area > 15 || line > 15 {
		return 0, ErrAddrOutOfRange
	}

	return IndividualAddr(uint16(area)<<12 | uint16(line)<<8 | uint16(device)), nil
}

// ParseIndividualAddr parses the textual representation "area.line.device".
func ParseIndividualAddr(text string) (IndividualAddr, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("cemi: %q is not an individual address", text)
	}

	comps, err := parseAddrComponents(parts, [3]uint{15, 15, 255})
	if err != nil {
		return 0, err
	}

	return IndividualAddr(comps[0]<<12 | comps[1]<<8 | comps[2]), nil
}

// String generates the textual representation "area.line.device".
func (addr IndividualAddr) String() string {
	return fmt.Sprintf("%d.%d.%d", uint8(addr>>12)&15, uint8(addr>>8)&15, uint8(addr))
}

// A GroupAddr addresses a datapoint shared by a group of devices. Two
// textual layouts exist: "main/middle/sub" (5/3/8 bits) and "main/sub"
// (5/11 bits); the wire form is the same 16-bit value either way.
type GroupAddr uint16

// NewGroupAddr3 generates a group address from its three-level components.
func NewGroupAddr3(main, middle, sub uint8) (GroupAddr, error) {
	if main > 31 || middle > 7 {
		return 0, ErrAddrOutOfRange
	}

	return GroupAddr(uint16(main)<<11 | uint16(middle)<<8 | uint16(sub)), nil
}

// NewGroupAddr2 generates a group address from its two-level components.
func NewGroupAddr2(main uint8, sub uint16) (GroupAddr, error) {
	if main > 31 || sub > 2047 {
		return 0, ErrAddrOutOfRange
	}

	return GroupAddr(uint16(main)<<11 | sub), nil
}

// ParseGroupAddr parses the textual representation of a group address.
// Both the two-level and the three-level form are accepted; twoLevel
// selects which one the text is expected to use.
func ParseGroupAddr(text string, twoLevel bool) (GroupAddr, error) {
	parts := strings.Split(text, "/")

	switch {
	case twoLevel && len(parts) == 2:
		comps, err := parseAddrComponents(parts, [3]uint{31, 2047, 0})
		if err != nil {
			return 0, err
		}
		return GroupAddr(comps[0]<<11 | comps[1]), nil

	case !twoLevel && len(parts) == 3:
		comps, err := parseAddrComponents(parts, [3]uint{31, 7, 255})
		if err != nil {
			return 0, err
		}
		return GroupAddr(comps[0]<<11 | comps[1]<<8 | comps[2]), nil
	}

	return 0, fmt.Errorf("cemi: %q is not a group address", text)
}

// Format generates the textual representation in the requested layout.
func (addr GroupAddr) Format(twoLevel bool) string {
	if twoLevel {
		return fmt.Sprintf("%d/%d", uint8(addr>>11)&31, uint16(addr)&2047)
	}
	return addr.String()
}

// String generates the three-level textual representation.
func (addr GroupAddr) String() string {
	return fmt.Sprintf("%d/%d/%d", uint8(addr>>11)&31, uint8(addr>>8)&7, uint8(addr))
}

// ErrAddrOutOfRange is returned when an address component exceeds the bit
// width of its field.
var ErrAddrOutOfRange = errors.New("cemi: address component out of range")

func parseAddrComponents(parts []string, limits [3]uint) (comps [3]uint16, err error) {
	for i, part := range parts {
		value, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return comps, fmt.Errorf("cemi: bad address component %q: %w", part, err)
		}

		if uint(value) > limits[i] {
			return comps, ErrAddrOutOfRange
		}

		comps[i] = uint16(value)
	}

	return comps, nil
}
