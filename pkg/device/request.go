// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"fmt"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// Command is the opcode of an I/O request.
type Command uint16

const (
	CmdRead          Command = 2
	CmdWrite         Command = 3
	CmdUpdate        Command = 4
	CmdClear         Command = 5
	TDMotor          Command = 9
	TDFormat         Command = 11
	TDChangeNum      Command = 13
	TDChangeState    Command = 14
	TDProtStatus     Command = 15
	TDGetDriveType   Command = 18
	TDAddChangeInt   Command = 20
	TDRemChangeInt   Command = 21
	TDGetGeometry    Command = 22
	TDEject          Command = 23
	TDRead64         Command = 24
	TDWrite64        Command = 25
	TDFormat64       Command = 27
	HDSCSICmd        Command = 28
	CmdDie           Command = 0x1000
	NSCmdDeviceQuery Command = 0x4000
	NSCmdTDRead64    Command = 0xc000
	NSCmdTDWrite64   Command = 0xc001
	NSCmdTDFormat64  Command = 0xc003
)

var commandNames = map[Command]string{
	CmdRead:          "CMD_READ",
	CmdWrite:         "CMD_WRITE",
	CmdUpdate:        "CMD_UPDATE",
	CmdClear:         "CMD_CLEAR",
	TDMotor:          "TD_MOTOR",
	TDFormat:         "TD_FORMAT",
	TDChangeNum:      "TD_CHANGENUM",
	TDChangeState:    "TD_CHANGESTATE",
	TDProtStatus:     "TD_PROTSTATUS",
	TDGetDriveType:   "TD_GETDRIVETYPE",
	TDAddChangeInt:   "TD_ADDCHANGEINT",
	TDRemChangeInt:   "TD_REMCHANGEINT",
	TDGetGeometry:    "TD_GETGEOMETRY",
	TDEject:          "TD_EJECT",
	TDRead64:         "TD_READ64",
	TDWrite64:        "TD_WRITE64",
	TDFormat64:       "TD_FORMAT64",
	HDSCSICmd:        "HD_SCSICMD",
	CmdDie:           "CMD_DIE",
	NSCmdDeviceQuery: "NSCMD_DEVICEQUERY",
	NSCmdTDRead64:    "NSCMD_TD_READ64",
	NSCmdTDWrite64:   "NSCMD_TD_WRITE64",
	NSCmdTDFormat64:  "NSCMD_TD_FORMAT64",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CMD_%#04x", uint16(c))
}

// SupportedCommands is reported by NSCMD_DEVICEQUERY.
var SupportedCommands = []Command{
	CmdClear,
	CmdUpdate,
	CmdRead,
	CmdWrite,
	TDAddChangeInt,
	TDRemChangeInt,
	TDProtStatus,
	TDChangeNum,
	TDChangeState,
	TDEject,
	TDGetDriveType,
	TDGetGeometry,
	TDMotor,
	TDRead64,
	TDWrite64,
	TDFormat64,
	NSCmdDeviceQuery,
	NSCmdTDRead64,
	NSCmdTDWrite64,
	NSCmdTDFormat64,
	HDSCSICmd,
}

type Flags uint8

// FlagQuick asks for synchronous completion. BeginIO clears it on requests
// it hands to the I/O task.
const FlagQuick Flags = 1 << 0

// Request is one I/O request. Data carries the command specific payload:
//
//	CMD_READ, CMD_WRITE, TD_FORMAT and the 64-bit variants  []byte
//	TD_GETGEOMETRY                                           *Geometry
//	NSCMD_DEVICEQUERY                                        *QueryResult
//	HD_SCSICMD                                               *scsi.Command
//	TD_ADDCHANGEINT, TD_REMCHANGEINT                         *unit.Interrupt
//
// A request is answered exactly once, either synchronously (FlagQuick still
// set when BeginIO returns) or by queueing it on ReplyPort. Once answered
// the request belongs to the caller again and the core keeps no reference
// to it.
type Request struct {
	Command Command
	Flags   Flags
	Data    interface{}
	Length  uint32
	Offset  uint64

	Actual uint32
	Error  ata.Errno

	ReplyPort *ReplyPort

	unit *unit.Unit
}

// Unit returns the unit the request was opened on.
func (r *Request) Unit() *unit.Unit {
	return r.unit
}

func (r *Request) String() string {
	return fmt.Sprintf("%s offset=%d length=%d", r.Command, r.Offset, r.Length)
}

// Geometry mirrors the trackdisk DriveGeometry record.
type Geometry struct {
	SectorSize   uint32
	TotalSectors uint32
	Cylinders    uint32
	CylSectors   uint32
	Heads        uint32
	TrackSectors uint32
	BufMemType   uint32
	DeviceType   uint8
	Flags        uint8
	_            uint16
}

const (
	// Size of the DriveGeometry record reported in Actual.
	GeometrySize = 32

	GeometryRemovable = 1 << 0
	MemTypePublic     = 1 << 0
)

// QueryResult mirrors NSDeviceQueryResult.
type QueryResult struct {
	DevQueryFormat    uint32
	SizeAvailable     uint32
	DeviceType        uint16
	DeviceSubType     uint16
	SupportedCommands []Command
}

const (
	// Size of the NSDeviceQueryResult record; Length must be at least this.
	QueryResultSize = 16

	NSDeviceTypeTrackdisk = 5
)
