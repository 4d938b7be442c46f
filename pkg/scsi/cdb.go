// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scsi emulates a SCSI direct access target on top of an ATA bus.
package scsi

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
)

// Operation codes understood by the translation layer.
const (
	OpTestUnitReady  = 0x00
	OpRead6          = 0x08
	OpWrite6         = 0x0a
	OpInquiry        = 0x12
	OpModeSense6     = 0x1a
	OpReadCapacity10 = 0x25
	OpRead10         = 0x28
	OpWrite10        = 0x2a
)

const (
	StatusGood           = 0x00
	StatusCheckCondition = 0x02
)

// Command flags.
const (
	FlagRead      = 1 << 0
	FlagAutoSense = 1 << 1
)

const (
	cdb6Len  = 6
	cdb10Len = 10

	// READ(6)/WRITE(6) carry 21 bits of LBA; a zero count means 256 blocks.
	cdb6LBAMask   = 0x1fffff
	cdb6ZeroCount = 256
)

var (
	ErrShortCDB    = errors.New("command descriptor block too short")
	ErrUnsupported = errors.New("unsupported operation code")
)

// Command is a SCSI direct request: a CDB, the data buffer it moves, and the
// result fields the target fills in.
type Command struct {
	CDB  []byte
	Data []byte

	// Flags is a combination of FlagRead and FlagAutoSense.
	Flags uint8

	Actual      uint32
	CmdActual   uint16
	Status      uint8
	SenseData   []byte
	SenseActual uint16
}

// Op is a decoded CDB.
type Op interface {
	Opcode() uint8
}

type TestUnitReady struct{}

type Inquiry struct {
	AllocationLength uint16
}

type ModeSense struct {
	PageControl      uint8
	Page             uint8
	SubPage          uint8
	AllocationLength uint8
}

type ReadCapacity struct{}

// Transfer is any of READ(6), WRITE(6), READ(10) and WRITE(10).
type Transfer struct {
	Code      uint8
	LBA       uint64
	Count     uint32
	Direction ata.Direction
}

func (TestUnitReady) Opcode() uint8 { return OpTestUnitReady }
func (Inquiry) Opcode() uint8       { return OpInquiry }
func (ModeSense) Opcode() uint8     { return OpModeSense6 }
func (ReadCapacity) Opcode() uint8  { return OpReadCapacity10 }
func (t Transfer) Opcode() uint8    { return t.Code }

func (t Transfer) String() string {
	return fmt.Sprintf("%s lba=%d count=%d", t.Direction, t.LBA, t.Count)
}

// Decode parses a CDB. Unknown operation codes return ErrUnsupported.
func Decode(cdb []byte) (Op, error) {
	if len(cdb) == 0 {
		return nil, ErrShortCDB
	}
	need := cdb6Len
	if cdb[0] >= 0x20 && cdb[0] < 0x60 {
		need = cdb10Len
	}

	switch cdb[0] {
	case OpTestUnitReady, OpInquiry, OpModeSense6, OpReadCapacity10,
		OpRead6, OpWrite6, OpRead10, OpWrite10:
		if len(cdb) < need {
			return nil, ErrShortCDB
		}
	default:
		return nil, fmt.Errorf("%w: %#02x", ErrUnsupported, cdb[0])
	}

	switch cdb[0] {
	case OpTestUnitReady:
		return TestUnitReady{}, nil
	case OpInquiry:
		return Inquiry{AllocationLength: binary.BigEndian.Uint16(cdb[3:])}, nil
	case OpModeSense6:
		return ModeSense{
			PageControl:      cdb[2] >> 6,
			Page:             cdb[2] & 0x3f,
			SubPage:          cdb[3],
			AllocationLength: cdb[4],
		}, nil
	case OpReadCapacity10:
		return ReadCapacity{}, nil
	case OpRead6, OpWrite6:
		t := Transfer{
			Code:  cdb[0],
			LBA:   uint64(uint32(cdb[1])<<16|uint32(cdb[2])<<8|uint32(cdb[3])) & cdb6LBAMask,
			Count: uint32(cdb[4]),
		}
		if t.Count == 0 {
			t.Count = cdb6ZeroCount
		}
		if cdb[0] == OpRead6 {
			t.Direction = ata.Read
		} else {
			t.Direction = ata.Write
		}
		return t, nil
	default:
		t := Transfer{
			Code:  cdb[0],
			LBA:   uint64(binary.BigEndian.Uint32(cdb[2:])),
			Count: uint32(binary.BigEndian.Uint16(cdb[7:])),
		}
		if cdb[0] == OpRead10 {
			t.Direction = ata.Read
		} else {
			t.Direction = ata.Write
		}
		return t, nil
	}
}

// CDB encoders for hosts building requests.

func (TestUnitReady) CDB() []byte {
	return make([]byte, cdb6Len)
}

func (i Inquiry) CDB() []byte {
	cdb := make([]byte, cdb6Len)
	cdb[0] = OpInquiry
	binary.BigEndian.PutUint16(cdb[3:], i.AllocationLength)
	return cdb
}

func (m ModeSense) CDB() []byte {
	return []byte{OpModeSense6, 0, m.PageControl<<6 | m.Page&0x3f, m.SubPage, m.AllocationLength, 0}
}

func (ReadCapacity) CDB() []byte {
	cdb := make([]byte, cdb10Len)
	cdb[0] = OpReadCapacity10
	return cdb
}

// CDB encodes t in the 10-byte form regardless of Code. LBA and Count are
// truncated to 32 and 16 bits.
func (t Transfer) CDB() []byte {
	cdb := make([]byte, cdb10Len)
	cdb[0] = OpRead10
	if t.Direction == ata.Write {
		cdb[0] = OpWrite10
	}
	binary.BigEndian.PutUint32(cdb[2:], uint32(t.LBA))
	binary.BigEndian.PutUint16(cdb[7:], uint16(t.Count))
	return cdb
}
