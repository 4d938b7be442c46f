// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Hardware access layer consumed by the request core.

package ata

//go:generate mockgen -destination=mocks/bus_mocks.go -package=mocks github.com/open-source-firmware/go-atadev/pkg/ata Bus

import (
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// Direction of a block transfer.
type Direction int

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Drive is what detection found in a unit slot.
type Drive struct {
	ATAPI         bool
	DeviceType    unit.DeviceType
	XferMultiple  bool
	MultipleCount uint8
	// Geometry of the fixed medium. Ignored for ATAPI drives, whose geometry
	// comes from Media once a medium is inserted.
	Geometry unit.Geometry
}

// Media is the result of a media change probe.
type Media struct {
	Present  bool
	Geometry unit.Geometry
	// WriteProtected is set when writes to the medium fail with
	// TDErrWriteProt.
	WriteProtected bool
}

// Bus is the lower hardware access layer. Implementations perform one
// operation at a time on behalf of the I/O task and own any timeouts.
type Bus interface {
	// Channels returns how many channels (1 or 2) the bus has.
	Channels() int

	// Detect probes a unit slot. ok is false when no drive answers.
	Detect(u *unit.Unit) (d Drive, ok bool, err error)

	// Transfer moves count blocks starting at lba between buf and the medium.
	// It returns the number of bytes moved and the request status.
	Transfer(buf []byte, lba uint64, count uint32, u *unit.Unit, dir Direction) (uint32, Errno)

	// Identify fetches the 512-byte IDENTIFY (PACKET) DEVICE record.
	Identify(u *unit.Unit) (Identify, error)

	// Media re-derives media presence and geometry.
	Media(u *unit.Unit) (Media, error)

	// Eject unloads (eject == true) or loads the medium of a packet device.
	Eject(u *unit.Unit, eject bool) Errno

	Close() error
}

// blockShift returns log2(size) for a power of two block size.
func blockShift(size uint32) uint {
	var s uint
	for size > 1 {
		size >>= 1
		s++
	}
	return s
}

// Translated CHS layout used by drives that only report a sector count.
const (
	translatedHeads           = 16
	translatedSectorsPerTrack = 63
	maxCylinders              = 65535
)

// NewGeometry builds a geometry for a medium of the given size, using the
// conventional 16 head, 63 sector translation for direct access media and a
// single-track layout for packet devices.
func NewGeometry(blockSize uint32, sectors uint64, atapi bool) unit.Geometry {
	g := unit.Geometry{
		BlockSize:      blockSize,
		BlockShift:     blockShift(blockSize),
		LogicalSectors: sectors,
	}
	if atapi {
		g.Heads = 1
		g.SectorsPerTrack = 1
		g.Cylinders = uint32(sectors)
		return g
	}
	g.Heads = translatedHeads
	g.SectorsPerTrack = translatedSectorsPerTrack
	cyl := sectors / (translatedHeads * translatedSectorsPerTrack)
	if cyl > maxCylinders {
		cyl = maxCylinders
	}
	g.Cylinders = uint32(cyl)
	return g
}
