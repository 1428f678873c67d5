// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"
	"net"

	"golang.org/x/text/encoding/charmap"

	"github.com/edgelink/knxip/knx/cemi"
	"github.com/edgelink/knxip/knx/util"
)

const friendlyNameMaxLen = 30

// DescriptionType identifies the kind of a description information block.
type DescriptionType uint8

const (
	// DescriptionTypeDeviceInfo identifies the device information block.
	DescriptionTypeDeviceInfo DescriptionType = 0x01

	// DescriptionTypeSupportedServiceFamilies identifies the supported
	// service families block.
	DescriptionTypeSupportedServiceFamilies DescriptionType = 0x02

	// DescriptionTypeIPConfig identifies the IP configuration block.
	DescriptionTypeIPConfig DescriptionType = 0x03

	// DescriptionTypeIPCurrentConfig identifies the current IP
	// configuration block.
	DescriptionTypeIPCurrentConfig DescriptionType = 0x04

	// DescriptionTypeManufacturerData identifies a manufacturer-defined
	// block.
	DescriptionTypeManufacturerData DescriptionType = 0xfe
)

// KNXMedium describes the KNX medium type.
type KNXMedium uint8

const (
	// KNXMediumTP1 is the TP1 medium.
	KNXMediumTP1 KNXMedium = 0x02
	// KNXMediumPL110 is the PL110 medium.
	KNXMediumPL110 KNXMedium = 0x04
	// KNXMediumRF is the RF medium.
	KNXMediumRF KNXMedium = 0x10
	// KNXMediumIP is the IP medium.
	KNXMediumIP KNXMedium = 0x20
)

// DeviceStatus describes the device status.
type DeviceStatus uint8

// DeviceSerialNumber describes the serial number of a device.
type DeviceSerialNumber [6]byte

// DeviceInformationBlock contains identity information about a gateway.
// The friendly name field is ISO 8859-1 encoded on the wire.
type DeviceInformationBlock struct {
	Type                    DescriptionType
	Medium                  KNXMedium
	Status                  DeviceStatus
	Source                  cemi.IndividualAddr
	ProjectIdentifier       uint16
	SerialNumber            DeviceSerialNumber
	RoutingMulticastAddress Address
	HardwareAddr            net.HardwareAddr
	FriendlyName            string
}

// Size returns the packed size.
func (DeviceInformationBlock) Size() uint {
	return 54
}

// Pack assembles the device information structure in the given buffer.
func (dib *DeviceInformationBlock) Pack(buffer []byte) {
	name, err := charmap.ISO8859_1.NewEncoder().String(dib.FriendlyName)
	if err != nil {
		name = dib.FriendlyName
	}

	nameBuf := make([]byte, friendlyNameMaxLen)
	util.PackString(nameBuf, friendlyNameMaxLen, name)

	hwAddr := make([]byte, 6)
	copy(hwAddr, dib.HardwareAddr)

	util.PackSome(
		buffer,
		uint8(dib.Size()), uint8(dib.Type),
		uint8(dib.Medium), uint8(dib.Status),
		uint16(dib.Source),
		dib.ProjectIdentifier,
		dib.SerialNumber[:],
		dib.RoutingMulticastAddress[:],
		hwAddr,
		nameBuf,
	)
}

// Unpack parses the given data in order to initialize the structure. A
// description type other than device info is rejected.
func (dib *DeviceInformationBlock) Unpack(data []byte) (n uint, err error) {
	var length uint8

	dib.HardwareAddr = make(net.HardwareAddr, 6)
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&dib.Type),
		(*uint8)(&dib.Medium), (*uint8)(&dib.Status),
		(*uint16)(&dib.Source),
		&dib.ProjectIdentifier,
		dib.SerialNumber[:],
		dib.RoutingMulticastAddress[:],
		[]byte(dib.HardwareAddr),
	); err != nil {
		return
	}

	if dib.Type != DescriptionTypeDeviceInfo {
		return n, ErrUnknownDescription
	}

	var rawName string
	nn, err := util.UnpackString(data[n:], friendlyNameMaxLen, &rawName)
	if err != nil {
		return n, err
	}
	n += nn

	dib.FriendlyName, err = charmap.ISO8859_1.NewDecoder().String(rawName)
	if err != nil {
		dib.FriendlyName = rawName
		err = nil
	}

	if length != uint8(dib.Size()) {
		return n, errors.New("knxnet: device info structure length is invalid")
	}

	return
}

// ServiceFamilyType describes a KNXnet/IP service family.
type ServiceFamilyType uint8

const (
	// ServiceFamilyTypeIPCore is the KNXnet/IP Core family.
	ServiceFamilyTypeIPCore ServiceFamilyType = 0x02
	// ServiceFamilyTypeIPDeviceManagement is the Device Management family.
	ServiceFamilyTypeIPDeviceManagement ServiceFamilyType = 0x03
	// ServiceFamilyTypeIPTunnelling is the Tunnelling family.
	ServiceFamilyTypeIPTunnelling ServiceFamilyType = 0x04
	// ServiceFamilyTypeIPRouting is the Routing family.
	ServiceFamilyTypeIPRouting ServiceFamilyType = 0x05
)

// ServiceFamily describes a service supported by a device.
type ServiceFamily struct {
	Type    ServiceFamilyType
	Version uint8
}

// Size returns the packed size.
func (ServiceFamily) Size() uint {
	return 2
}

// Pack assembles the service family structure in the given buffer.
func (f *ServiceFamily) Pack(buffer []byte) {
	util.PackSome(buffer, uint8(f.Type), f.Version)
}

// Unpack parses the given data in order to initialize the structure.
func (f *ServiceFamily) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, (*uint8)(&f.Type), &f.Version)
}

// SupportedServicesDIB lists the service families a device supports.
type SupportedServicesDIB struct {
	Type     DescriptionType
	Families []ServiceFamily
}

// Size returns the packed size.
func (sdib SupportedServicesDIB) Size() uint {
	return uint(2 + len(sdib.Families)*2)
}

// Pack assembles the supported services structure in the given buffer.
func (sdib *SupportedServicesDIB) Pack(buffer []byte) {
	util.PackSome(buffer, uint8(sdib.Size()), uint8(sdib.Type))

	offset := uint(2)
	for i := range sdib.Families {
		sdib.Families[i].Pack(buffer[offset:])
		offset += 2
	}
}

// Unpack parses the given data in order to initialize the structure.
func (sdib *SupportedServicesDIB) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(data, &length, (*uint8)(&sdib.Type)); err != nil {
		return
	}

	for n < uint(length) {
		var f ServiceFamily
		nn, err := f.Unpack(data[n:])
		if err != nil {
			return n, errors.New("knxnet: unable to unpack service family")
		}

		n += nn
		sdib.Families = append(sdib.Families, f)
	}

	if length != uint8(sdib.Size()) {
		return n, errors.New("knxnet: supported services structure length is invalid")
	}

	return
}

// SupportsTunnelling reports whether the tunnelling family is announced.
func (sdib *SupportedServicesDIB) SupportsTunnelling() bool {
	for _, f := range sdib.Families {
		if f.Type == ServiceFamilyTypeIPTunnelling {
			return true
		}
	}
	return false
}

// IPConfigDIB contains the configured IP parameters of a device.
type IPConfigDIB struct {
	Type           DescriptionType
	IP             Address
	Mask           Address
	Gateway        Address
	IPCapabilities uint8
	IPAssignment   uint8
}

// Size returns the packed size.
func (IPConfigDIB) Size() uint {
	return 16
}

// Pack assembles the IP configuration structure in the given buffer.
func (idib *IPConfigDIB) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(idib.Size()), uint8(idib.Type),
		idib.IP[:], idib.Mask[:], idib.Gateway[:],
		idib.IPCapabilities, idib.IPAssignment,
	)
}

// Unpack parses the given data in order to initialize the structure.
func (idib *IPConfigDIB) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&idib.Type),
		idib.IP[:], idib.Mask[:], idib.Gateway[:],
		&idib.IPCapabilities, &idib.IPAssignment,
	); err != nil {
		return
	}

	if length != uint8(idib.Size()) {
		return n, errors.New("knxnet: IP config structure length is invalid")
	}

	return
}

// IPCurrentConfigDIB contains the currently active IP parameters.
type IPCurrentConfigDIB struct {
	Type         DescriptionType
	IP           Address
	Mask         Address
	Gateway      Address
	DHCPServer   Address
	IPAssignment uint8
	Reserved     byte
}

// Size returns the packed size.
func (IPCurrentConfigDIB) Size() uint {
	return 20
}

// Pack assembles the current IP configuration structure in the given buffer.
func (idib *IPCurrentConfigDIB) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(idib.Size()), uint8(idib.Type),
		idib.IP[:], idib.Mask[:],
		idib.Gateway[:], idib.DHCPServer[:],
		idib.IPAssignment, idib.Reserved,
	)
}

// Unpack parses the given data in order to initialize the structure.
func (idib *IPCurrentConfigDIB) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&idib.Type),
		idib.IP[:], idib.Mask[:],
		idib.Gateway[:], idib.DHCPServer[:],
		&idib.IPAssignment, &idib.Reserved,
	); err != nil {
		return
	}

	if length != uint8(idib.Size()) {
		return n, errors.New("knxnet: current IP config structure length is invalid")
	}

	return
}

// ManufacturerDataDIB carries manufacturer-defined data.
type ManufacturerDataDIB struct {
	Type DescriptionType
	ID   uint16
	Data []byte
}

// Size returns the packed size.
func (mdib ManufacturerDataDIB) Size() uint {
	return uint(4 + len(mdib.Data))
}

// Pack assembles the manufacturer data structure in the given buffer.
func (mdib *ManufacturerDataDIB) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(mdib.Size()), uint8(mdib.Type),
		mdib.ID, mdib.Data,
	)
}

// Unpack parses the given data in order to initialize the structure.
func (mdib *ManufacturerDataDIB) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&mdib.Type), &mdib.ID,
	); err != nil {
		return
	}

	mdib.Data = make([]byte, len(data)-int(n))
	copy(mdib.Data, data[n:])
	n += uint(len(mdib.Data))

	if length != uint8(mdib.Size()) {
		return n, errors.New("knxnet: manufacturer data structure length is invalid")
	}

	return
}

// UnknownDescriptionBlock retains a block the stack does not interpret.
type UnknownDescriptionBlock struct {
	Type DescriptionType
	Data []byte
}

// A DescriptionBlock is the block collection returned by search and
// description responses. Device hardware and supported services are
// mandatory; the remaining blocks are optional.
type DescriptionBlock struct {
	DeviceHardware    DeviceInformationBlock
	SupportedServices SupportedServicesDIB
	IPConfig          IPConfigDIB
	IPCurrentConfig   IPCurrentConfigDIB
	ManufacturerData  ManufacturerDataDIB
	UnknownBlocks     []UnknownDescriptionBlock
}

// Size returns the packed size of the mandatory blocks.
func (di DescriptionBlock) Size() uint {
	return di.DeviceHardware.Size() + di.SupportedServices.Size()
}

// Pack assembles the mandatory blocks in the given buffer.
func (di *DescriptionBlock) Pack(buffer []byte) {
	util.PackSome(buffer, &di.DeviceHardware, &di.SupportedServices)
}

// Unpack parses the given data in order to initialize the block collection.
// Blocks may appear in any order; unknown ones are retained verbatim.
func (di *DescriptionBlock) Unpack(data []byte) (n uint, err error) {
	var length uint8
	var ty DescriptionType

	for n < uint(len(data)) {
		if _, err = util.UnpackSome(data[n:], &length, (*uint8)(&ty)); err != nil {
			return
		}

		if length == 0 || n+uint(length) > uint(len(data)) {
			return n, errors.New("knxnet: description block length exceeds data")
		}

		block := data[n : n+uint(length)]

		switch ty {
		case DescriptionTypeDeviceInfo:
			_, err = di.DeviceHardware.Unpack(block)

		case DescriptionTypeSupportedServiceFamilies:
			_, err = di.SupportedServices.Unpack(block)

		case DescriptionTypeIPConfig:
			_, err = di.IPConfig.Unpack(block)

		case DescriptionTypeIPCurrentConfig:
			_, err = di.IPCurrentConfig.Unpack(block)

		case DescriptionTypeManufacturerData:
			_, err = di.ManufacturerData.Unpack(block)

		default:
			util.Log(di, "skipping unsupported DIB %#02x", uint8(ty))
			if length > 2 {
				u := UnknownDescriptionBlock{Type: ty, Data: make([]byte, length-2)}
				copy(u.Data, block[2:])
				di.UnknownBlocks = append(di.UnknownBlocks, u)
			}
		}

		if err != nil {
			return n, err
		}

		n += uint(length)
	}

	return n, nil
}
