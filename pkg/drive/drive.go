// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"errors"
	"fmt"
)

var (
	ErrNotSupported       = errors.New("operation is not supported")
	ErrDeviceNotSupported = errors.New("device is not supported")
	ErrNoMedium           = errors.New("no medium present")
)

type Identity struct {
	Protocol     string
	SerialNumber string
	Model        string
	Firmware     string
	DeviceType   uint8
	Removable    bool
}

func (i *Identity) String() string {
	return fmt.Sprintf("Protocol=%s, Model=%s, Serial=%s, Firmware=%s",
		i.Protocol, i.Model, i.SerialNumber, i.Firmware)
}

type DriveIntf interface {
	BlockIO
	Media
	Identify
	Closer
}

// BlockIO moves whole blocks. buf must hold blocks times the block size
// reported by Capacity.
type BlockIO interface {
	ReadBlocks(lba uint32, blocks uint16, buf []byte) (int, error)
	WriteBlocks(lba uint32, blocks uint16, buf []byte) (int, error)
}

type Media interface {
	// Capacity returns the last addressable block and the block size.
	// ErrNoMedium is returned for an empty removable drive.
	Capacity() (lastLBA uint32, blockSize uint32, err error)
	TestUnitReady() error
	Eject(eject bool) error
}

type Identify interface {
	Identify() (*Identity, error)
	// IdentifyRaw returns the ATA IDENTIFY (PACKET) DEVICE record.
	IdentifyRaw(packet bool) ([512]byte, error)
}

type Closer interface {
	Close() error
}

type FdIntf interface {
	Fd() uintptr
	Close() error
}
