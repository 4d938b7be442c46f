// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scsi

import (
	"bytes"
	"encoding/binary"

	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

const (
	PageFormat        = 0x03
	PageRigidGeometry = 0x04
	PageAll           = 0x3f

	inquiryVersion        = 2
	inquiryResponseFormat = 2
	inquiryRemovable      = 0x80

	// Shortest response a host may ask for: the standard inquiry data
	// without the vendor specific serial number.
	inquiryMinLength = 36

	modePageLength = 0x16
)

// InquiryData is the standard INQUIRY response followed by the first eight
// characters of the drive's serial number in the vendor specific area.
type InquiryData struct {
	Peripheral       uint8
	Removable        uint8
	Version          uint8
	ResponseFormat   uint8
	AdditionalLength uint8
	_                [3]byte
	Vendor           [8]byte
	Product          [16]byte
	Revision         [4]byte
	Serial           [8]byte
}

// ModeHeader is the MODE SENSE(6) parameter header.
type ModeHeader struct {
	DataLength            uint8
	MediumType            uint8
	DeviceSpecific        uint8
	BlockDescriptorLength uint8
}

// FormatPage is the format parameters mode page (0x03).
type FormatPage struct {
	Code            uint8
	Length          uint8
	_               [8]byte
	SectorsPerTrack uint16
	BytesPerSector  uint16
	_               [10]byte
}

// RigidGeometryPage is the rigid disk geometry mode page (0x04).
type RigidGeometryPage struct {
	Code      uint8
	Length    uint8
	Cylinders [3]byte
	Heads     uint8
	_         [18]byte
}

func (p *RigidGeometryPage) CylinderCount() uint32 {
	return uint32(p.Cylinders[0])<<16 | uint32(p.Cylinders[1])<<8 | uint32(p.Cylinders[2])
}

// ReadCapacityData is the READ CAPACITY(10) response.
type ReadCapacityData struct {
	LastLBA   uint32
	BlockSize uint32
}

func NewFormatPage(g unit.Geometry) FormatPage {
	return FormatPage{
		Code:            PageFormat,
		Length:          modePageLength,
		SectorsPerTrack: uint16(g.SectorsPerTrack),
		BytesPerSector:  uint16(g.BlockSize),
	}
}

func NewRigidGeometryPage(g unit.Geometry) RigidGeometryPage {
	cyl := g.Cylinders
	if cyl > 0xffffff {
		cyl = 0xffffff
	}
	return RigidGeometryPage{
		Code:      PageRigidGeometry,
		Length:    modePageLength,
		Cylinders: [3]byte{uint8(cyl >> 16), uint8(cyl >> 8), uint8(cyl)},
		Heads:     uint8(g.Heads),
	}
}

// ModeSenseData assembles the header and the requested pages. A page code
// the target does not implement yields the header alone.
func ModeSenseData(t unit.DeviceType, g unit.Geometry, page uint8) []byte {
	var pages []interface{}
	if page == PageAll || page == PageFormat {
		pages = append(pages, NewFormatPage(g))
	}
	if page == PageAll || page == PageRigidGeometry {
		pages = append(pages, NewRigidGeometryPage(g))
	}

	var body bytes.Buffer
	for _, p := range pages {
		binary.Write(&body, binary.BigEndian, p)
	}
	hdr := ModeHeader{MediumType: uint8(t)}
	// SPC mode data length counts the bytes after the length byte itself.
	hdr.DataLength = uint8(binary.Size(hdr) + body.Len() - 1)

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, hdr)
	out.Write(body.Bytes())
	return out.Bytes()
}

func marshal(v interface{}) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, v)
	return b.Bytes()
}

// Unmarshal decodes a response record written by the target into v, one of
// the record types of this package.
func Unmarshal(b []byte, v interface{}) error {
	return binary.Read(bytes.NewReader(b), binary.BigEndian, v)
}
