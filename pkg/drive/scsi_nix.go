// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/open-source-firmware/go-atadev/pkg/drive/sgio"
)

type scsiDrive struct {
	fd FdIntf
}

func mapError(err error) error {
	switch {
	case errors.Is(err, sgio.ErrIllegalRequest):
		return ErrNotSupported
	case errors.Is(err, sgio.ErrNotReady):
		return ErrNoMedium
	}
	return err
}

func (d *scsiDrive) ReadBlocks(lba uint32, blocks uint16, buf []byte) (int, error) {
	n, err := sgio.SCSIRead10(d.fd.Fd(), lba, blocks, &buf)
	runtime.KeepAlive(d.fd)
	return n, mapError(err)
}

func (d *scsiDrive) WriteBlocks(lba uint32, blocks uint16, buf []byte) (int, error) {
	n, err := sgio.SCSIWrite10(d.fd.Fd(), lba, blocks, buf)
	runtime.KeepAlive(d.fd)
	return n, mapError(err)
}

func (d *scsiDrive) Capacity() (uint32, uint32, error) {
	last, bs, err := sgio.SCSIReadCapacity(d.fd.Fd())
	runtime.KeepAlive(d.fd)
	return last, bs, mapError(err)
}

func (d *scsiDrive) TestUnitReady() error {
	err := sgio.SCSITestUnitReady(d.fd.Fd())
	runtime.KeepAlive(d.fd)
	if errors.Is(err, sgio.ErrUnitAttention) {
		// A medium change is reported once; the next probe sees the new state.
		err = sgio.SCSITestUnitReady(d.fd.Fd())
		runtime.KeepAlive(d.fd)
	}
	return mapError(err)
}

func (d *scsiDrive) Eject(eject bool) error {
	err := sgio.SCSIStartStopUnit(d.fd.Fd(), eject)
	runtime.KeepAlive(d.fd)
	return mapError(err)
}

func (d *scsiDrive) Identify() (*Identity, error) {
	id, err := sgio.SCSIInquiry(d.fd.Fd())
	runtime.KeepAlive(d.fd)
	if err != nil {
		return nil, err
	}

	m := ""
	protocol := ""
	if bytes.Equal(id.VendorIdent[:], []byte("ATA     ")) {
		// SCSI ATA Translation (SAT)
		protocol = "SATA"
		m = strings.TrimSpace(string(id.ProductIdent[:]))
	} else {
		protocol = "SCSI"
		m = fmt.Sprintf("%s %s",
			strings.TrimSpace(string(id.VendorIdent[:])),
			strings.TrimSpace(string(id.ProductIdent[:])))
	}

	return &Identity{
		Protocol:   protocol,
		Model:      m,
		Firmware:   strings.TrimSpace(string(id.ProductRev[:])),
		DeviceType: id.DeviceType(),
		Removable:  id.IsRemovable(),
	}, nil
}

func (d *scsiDrive) IdentifyRaw(packet bool) ([512]byte, error) {
	id, err := sgio.ATAIdentify(d.fd.Fd(), packet)
	runtime.KeepAlive(d.fd)
	return id, mapError(err)
}

func (d *scsiDrive) Close() error {
	return d.fd.Close()
}

func SCSIDrive(fd FdIntf) *scsiDrive {
	// Save the full object reference to avoid the underlying File-like object
	// to be GC'd
	return &scsiDrive{fd: fd}
}

func isSCSI(fd FdIntf) bool {
	_, err := sgio.SCSIInquiry(fd.Fd())
	return err == nil
}
