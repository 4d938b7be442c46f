// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

const IdentifySize = 512

// Word offsets into the IDENTIFY DEVICE record (ATA8-ACS table 22).
const (
	WordConfig          = 0
	WordCylinders       = 1
	WordHeads           = 3
	WordSectorsPerTrack = 6
	WordSerial          = 10
	WordFirmwareRev     = 23
	WordModel           = 27
	WordMaxMultiple     = 47
	WordCapabilities    = 49
	WordLBASectors      = 60
	WordCommandSet2     = 83
	WordLBA48Sectors    = 100

	SerialLen   = 20
	FirmwareLen = 8
	ModelLen    = 40
)

const (
	configATAPI          = 1 << 15
	configRemovable      = 1 << 7
	capabilityLBA        = 1 << 9
	commandSet2LBA48     = 1 << 10
	atapiDeviceTypeShift = 8
	atapiDeviceTypeMask  = 0x1f
)

// Identify is an IDENTIFY (PACKET) DEVICE record as it comes off the bus:
// 256 little endian words, with strings stored two characters per word,
// high byte first.
type Identify [IdentifySize]byte

func (id *Identify) Word(n int) uint16 {
	return binary.LittleEndian.Uint16(id[n*2:])
}

func (id *Identify) SetWord(n int, v uint16) {
	binary.LittleEndian.PutUint16(id[n*2:], v)
}

// Field returns the raw bytes of a string field starting at word n.
func (id *Identify) Field(n int, length int) []byte {
	return id[n*2 : n*2+length]
}

// ATAString swaps the bytes of every word of an ATA string field so it
// reads in order.
func ATAString(b []byte) string {
	out := make([]byte, len(b))
	for i := 0; i < len(b)/2; i++ {
		out[i*2] = b[i*2+1]
		out[i*2+1] = b[i*2]
	}
	return string(out)
}

// putATAString stores s space padded into the field at word n.
func (id *Identify) putATAString(n int, length int, s string) {
	b := []byte(fmt.Sprintf("%-*s", length, s))[:length]
	f := id.Field(n, length)
	for i := 0; i < length/2; i++ {
		f[i*2] = b[i*2+1]
		f[i*2+1] = b[i*2]
	}
}

func (id *Identify) Serial() string {
	return strings.TrimSpace(ATAString(id.Field(WordSerial, SerialLen)))
}

func (id *Identify) Firmware() string {
	return strings.TrimSpace(ATAString(id.Field(WordFirmwareRev, FirmwareLen)))
}

func (id *Identify) Model() string {
	return strings.TrimSpace(ATAString(id.Field(WordModel, ModelLen)))
}

// ATAPI reports whether the record came from IDENTIFY PACKET DEVICE.
func (id *Identify) ATAPI() bool {
	return id.Word(WordConfig)&configATAPI != 0
}

func (id *Identify) Removable() bool {
	return id.Word(WordConfig)&configRemovable != 0
}

// DeviceType returns the peripheral type a packet device reports in its
// configuration word. ATA devices are always direct access.
func (id *Identify) DeviceType() unit.DeviceType {
	if !id.ATAPI() {
		return unit.DirectAccess
	}
	return unit.DeviceType((id.Word(WordConfig) >> atapiDeviceTypeShift) & atapiDeviceTypeMask)
}

// Multiple returns whether READ/WRITE MULTIPLE is supported and the largest
// number of sectors per interrupt.
func (id *Identify) Multiple() (bool, uint8) {
	n := uint8(id.Word(WordMaxMultiple) & 0xff)
	return n > 0, n
}

// Sectors returns the number of user addressable sectors, preferring 48-bit
// then 28-bit LBA and falling back to the default CHS translation.
func (id *Identify) Sectors() uint64 {
	if id.Word(WordCommandSet2)&commandSet2LBA48 != 0 {
		var n uint64
		for i := 3; i >= 0; i-- {
			n = n<<16 | uint64(id.Word(WordLBA48Sectors+i))
		}
		if n != 0 {
			return n
		}
	}
	if id.Word(WordCapabilities)&capabilityLBA != 0 {
		return uint64(id.Word(WordLBASectors+1))<<16 | uint64(id.Word(WordLBASectors))
	}
	return uint64(id.Word(WordCylinders)) * uint64(id.Word(WordHeads)) * uint64(id.Word(WordSectorsPerTrack))
}

// Geometry derives the unit geometry of a direct access drive.
func (id *Identify) Geometry(blockSize uint32) unit.Geometry {
	g := unit.Geometry{
		BlockSize:       blockSize,
		BlockShift:      blockShift(blockSize),
		LogicalSectors:  id.Sectors(),
		Cylinders:       uint32(id.Word(WordCylinders)),
		Heads:           uint32(id.Word(WordHeads)),
		SectorsPerTrack: uint32(id.Word(WordSectorsPerTrack)),
	}
	if g.Cylinders == 0 || g.Heads == 0 || g.SectorsPerTrack == 0 {
		t := NewGeometry(blockSize, g.LogicalSectors, false)
		g.Cylinders, g.Heads, g.SectorsPerTrack = t.Cylinders, t.Heads, t.SectorsPerTrack
	}
	return g
}

func (id *Identify) String() string {
	return fmt.Sprintf("Serial=%s, Firmware=%s, Model=%s", id.Serial(), id.Firmware(), id.Model())
}

// IdentifyParams describes a drive for NewIdentify.
type IdentifyParams struct {
	Serial        string
	Firmware      string
	Model         string
	ATAPI         bool
	DeviceType    unit.DeviceType
	Removable     bool
	Sectors       uint64
	MultipleCount uint8
}

// NewIdentify builds the record a drive with the given parameters would
// return.
func NewIdentify(p IdentifyParams) *Identify {
	id := &Identify{}
	var config uint16
	if p.ATAPI {
		config = configATAPI | uint16(p.DeviceType&atapiDeviceTypeMask)<<atapiDeviceTypeShift
	}
	if p.Removable || p.ATAPI {
		config |= configRemovable
	}
	id.SetWord(WordConfig, config)
	id.putATAString(WordSerial, SerialLen, p.Serial)
	id.putATAString(WordFirmwareRev, FirmwareLen, p.Firmware)
	id.putATAString(WordModel, ModelLen, p.Model)
	if p.ATAPI {
		return id
	}

	g := NewGeometry(512, p.Sectors, false)
	id.SetWord(WordCylinders, uint16(g.Cylinders))
	id.SetWord(WordHeads, uint16(g.Heads))
	id.SetWord(WordSectorsPerTrack, uint16(g.SectorsPerTrack))
	id.SetWord(WordMaxMultiple, 0x8000|uint16(p.MultipleCount))
	id.SetWord(WordCapabilities, capabilityLBA)

	lba28 := p.Sectors
	if lba28 > 0x0fffffff {
		lba28 = 0x0fffffff
	}
	id.SetWord(WordLBASectors, uint16(lba28))
	id.SetWord(WordLBASectors+1, uint16(lba28>>16))
	if p.Sectors > 0x0fffffff {
		id.SetWord(WordCommandSet2, commandSet2LBA48)
		for i := 0; i < 4; i++ {
			id.SetWord(WordLBA48Sectors+i, uint16(p.Sectors>>(16*i)))
		}
	}
	return id
}
