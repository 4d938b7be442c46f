// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"fmt"
)

// Errno is the status code carried back to the host in a request's error
// field. Zero means success; negative values are the generic I/O errors,
// 20-35 are the trackdisk errors and 40-50 the SCSI direct errors.
type Errno int8

const (
	OK Errno = 0

	IOErrOpenFail   Errno = -1
	IOErrAborted    Errno = -2
	IOErrNoCmd      Errno = -3
	IOErrBadLength  Errno = -4
	IOErrBadAddress Errno = -5
	IOErrUnitBusy   Errno = -6
	IOErrSelfTest   Errno = -7

	TDErrNotSpecified   Errno = 20
	TDErrNoSecHdr       Errno = 21
	TDErrBadSecPreamble Errno = 22
	TDErrBadSecID       Errno = 23
	TDErrBadHdrSum      Errno = 24
	TDErrBadSecSum      Errno = 25
	TDErrTooFewSecs     Errno = 26
	TDErrBadSecHdr      Errno = 27
	TDErrWriteProt      Errno = 28
	TDErrDiskChanged    Errno = 29
	TDErrSeekError      Errno = 30
	TDErrNoMem          Errno = 31
	TDErrBadUnitNum     Errno = 32
	TDErrBadDriveType   Errno = 33
	TDErrDriveInUse     Errno = 34
	TDErrPostReset      Errno = 35

	HFErrSelfUnit   Errno = 40
	HFErrDMA        Errno = 41
	HFErrPhase      Errno = 42
	HFErrParity     Errno = 43
	HFErrSelTimeout Errno = 44
	HFErrBadStatus  Errno = 45
	HFErrNoBoard    Errno = 50
)

var errnoNames = map[Errno]string{
	OK:                  "success",
	IOErrOpenFail:       "device or unit failed to open",
	IOErrAborted:        "request terminated early",
	IOErrNoCmd:          "command not supported by device",
	IOErrBadLength:      "not a valid length",
	IOErrBadAddress:     "invalid address",
	IOErrUnitBusy:       "device opens ok, but requested unit is busy",
	IOErrSelfTest:       "hardware failed self-test",
	TDErrNotSpecified:   "general catchall",
	TDErrNoSecHdr:       "couldn't even find a sector",
	TDErrBadSecPreamble: "sector looked wrong",
	TDErrBadSecID:       "sector id looked wrong",
	TDErrBadHdrSum:      "header had incorrect checksum",
	TDErrBadSecSum:      "data had incorrect checksum",
	TDErrTooFewSecs:     "couldn't find enough sectors",
	TDErrBadSecHdr:      "another variant of a bad sector header",
	TDErrWriteProt:      "can't write to a protected disk",
	TDErrDiskChanged:    "no disk in the drive",
	TDErrSeekError:      "couldn't find track 0",
	TDErrNoMem:          "ran out of memory",
	TDErrBadUnitNum:     "asked for a unit > NUMUNITS",
	TDErrBadDriveType:   "not a drive that trackdisk groks",
	TDErrDriveInUse:     "someone else allocated the drive",
	TDErrPostReset:      "user hit reset; awaiting doom",
	HFErrSelfUnit:       "cannot issue SCSI command to self",
	HFErrDMA:            "DMA error",
	HFErrPhase:          "illegal or unexpected SCSI phase",
	HFErrParity:         "SCSI parity error",
	HFErrSelTimeout:     "select timed out",
	HFErrBadStatus:      "status and/or sense error",
	HFErrNoBoard:        "open failed for non-existant board",
}

func (e Errno) String() string {
	if s, ok := errnoNames[e]; ok {
		return s
	}
	return fmt.Sprintf("error %d", int8(e))
}

// Error makes a non-zero Errno usable as a Go error.
func (e Errno) Error() string {
	return fmt.Sprintf("%s (%d)", e.String(), int8(e))
}

// Err returns nil for OK and e otherwise.
func (e Errno) Err() error {
	if e == OK {
		return nil
	}
	return e
}
