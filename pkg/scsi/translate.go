// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scsi

import (
	log "github.com/cihub/seelog"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// Execute runs cmd against u. Every result field of cmd is written: Status
// is CHECK CONDITION whenever the returned error is not OK. Sense data is
// never produced, so SenseActual is always zero.
func Execute(bus ata.Bus, u *unit.Unit, cmd *Command) ata.Errno {
	cmd.Actual = 0
	cmd.CmdActual = uint16(len(cmd.CDB))
	cmd.SenseActual = 0

	errno := execute(bus, u, cmd)
	if errno != ata.OK {
		cmd.Status = StatusCheckCondition
	} else {
		cmd.Status = StatusGood
	}
	return errno
}

func execute(bus ata.Bus, u *unit.Unit, cmd *Command) ata.Errno {
	st := u.Snapshot()
	if !st.Present {
		return ata.TDErrBadUnitNum
	}

	op, err := Decode(cmd.CDB)
	if err != nil {
		log.Warnf("SCSI: %s: %v", u, err)
		return ata.HFErrBadStatus
	}
	log.Tracef("SCSI: %s: command %#02x", u, op.Opcode())

	switch op := op.(type) {
	case TestUnitReady:
		return ata.OK
	case Inquiry:
		return inquiry(bus, u, cmd)
	case ModeSense:
		return modeSense(u, st, op, cmd)
	case ReadCapacity:
		return readCapacity(st, cmd)
	case Transfer:
		return transfer(bus, u, st, op, cmd)
	}
	return ata.HFErrBadStatus
}

func inquiry(bus ata.Bus, u *unit.Unit, cmd *Command) ata.Errno {
	if len(cmd.Data) < inquiryMinLength {
		return ata.IOErrBadLength
	}
	id, err := bus.Identify(u)
	if err != nil {
		log.Warnf("SCSI: %s: identify failed: %v", u, err)
		return ata.HFErrBadStatus
	}

	inq := InquiryData{
		Peripheral:     uint8(u.DeviceType),
		Version:        inquiryVersion,
		ResponseFormat: inquiryResponseFormat,
	}
	if u.ATAPI {
		inq.Removable = inquiryRemovable
	}
	vp := ata.ATAString(id.Field(ata.WordModel, len(inq.Vendor)+len(inq.Product)))
	copy(inq.Vendor[:], vp)
	copy(inq.Product[:], vp[len(inq.Vendor):])
	copy(inq.Revision[:], ata.ATAString(id.Field(ata.WordFirmwareRev, len(inq.Revision))))
	copy(inq.Serial[:], ata.ATAString(id.Field(ata.WordSerial, len(inq.Serial))))

	b := marshal(inq)
	b[4] = uint8(len(b) - 5)
	cmd.Actual = uint32(copy(cmd.Data, b))
	return ata.OK
}

func modeSense(u *unit.Unit, st unit.State, op ModeSense, cmd *Command) ata.Errno {
	if cmd.Data == nil {
		return ata.IOErrBadAddress
	}
	if op.SubPage != 0 {
		return ata.HFErrBadStatus
	}
	if !st.GeometryValid() {
		return ata.TDErrDiskChanged
	}
	b := ModeSenseData(u.DeviceType, st.Geometry, op.Page)
	if len(cmd.Data) < len(b) {
		return ata.IOErrBadLength
	}
	cmd.Actual = uint32(copy(cmd.Data, b))
	return ata.OK
}

func readCapacity(st unit.State, cmd *Command) ata.Errno {
	if cmd.Data == nil {
		return ata.IOErrBadAddress
	}
	if !st.GeometryValid() {
		return ata.TDErrDiskChanged
	}
	last := st.Geometry.LastLBA()
	if last > 0xffffffff {
		last = 0xffffffff
	}
	b := marshal(ReadCapacityData{LastLBA: uint32(last), BlockSize: st.Geometry.BlockSize})
	if len(cmd.Data) < len(b) {
		return ata.IOErrBadLength
	}
	cmd.Actual = uint32(copy(cmd.Data, b))
	return ata.OK
}

func transfer(bus ata.Bus, u *unit.Unit, st unit.State, op Transfer, cmd *Command) ata.Errno {
	if cmd.Data == nil {
		return ata.IOErrBadAddress
	}
	if !st.GeometryValid() {
		return ata.TDErrDiskChanged
	}
	if !st.Geometry.Contains(op.LBA, uint64(op.Count)) {
		log.Debugf("SCSI: %s: %s beyond %d blocks", u, op, st.Geometry.LogicalSectors)
		return ata.IOErrBadAddress
	}
	if op.Count == 0 {
		return ata.OK
	}
	if uint64(len(cmd.Data)) < uint64(op.Count)<<st.Geometry.BlockShift {
		return ata.IOErrBadLength
	}
	n, errno := bus.Transfer(cmd.Data, op.LBA, op.Count, u, op.Direction)
	cmd.Actual = n
	return errno
}
