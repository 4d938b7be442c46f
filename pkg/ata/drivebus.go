// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"sync"

	log "github.com/cihub/seelog"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/open-source-firmware/go-atadev/pkg/drive"
	"github.com/open-source-firmware/go-atadev/pkg/drive/sgio"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// Largest block count a single READ(10)/WRITE(10) can carry.
const maxBlocksPerCDB = 0xffff

// DriveBus places SCSI generic devices in unit slots. Slot n is drives[n];
// a nil entry is an empty slot.
type DriveBus struct {
	mu       sync.Mutex
	channels int
	drives   [unit.MaxUnits]drive.DriveIntf
	atapi    [unit.MaxUnits]bool
}

func NewDriveBus(drives ...drive.DriveIntf) *DriveBus {
	b := &DriveBus{channels: (len(drives) + 1) / 2}
	if b.channels < 1 {
		b.channels = 1
	}
	if b.channels > unit.MaxChannels {
		b.channels = unit.MaxChannels
	}
	copy(b.drives[:], drives)
	return b
}

// OpenDriveBus opens each path with drive.Open. Empty paths leave the slot
// empty.
func OpenDriveBus(paths []string) (*DriveBus, error) {
	if len(paths) > unit.MaxUnits {
		return nil, errors.Errorf("at most %d devices are supported", unit.MaxUnits)
	}
	drives := make([]drive.DriveIntf, len(paths))
	for i, p := range paths {
		if p == "" {
			continue
		}
		d, err := drive.Open(p)
		if err != nil {
			for _, o := range drives[:i] {
				if o != nil {
					o.Close()
				}
			}
			return nil, errors.Wrapf(err, "open %s", p)
		}
		drives[i] = d
	}
	return NewDriveBus(drives...), nil
}

func (b *DriveBus) Channels() int {
	return b.channels
}

func (b *DriveBus) get(u *unit.Unit) drive.DriveIntf {
	if u.Index < 0 || u.Index >= unit.MaxUnits {
		return nil
	}
	return b.drives[u.Index]
}

func (b *DriveBus) Detect(u *unit.Unit) (Drive, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.get(u)
	if d == nil {
		return Drive{}, false, nil
	}
	id, err := d.Identify()
	if err != nil {
		return Drive{}, false, errors.Wrapf(err, "unit %d: inquiry", u.Index)
	}
	log.Infof("Drive bus: unit %d is %s", u.Index, id)

	res := Drive{DeviceType: unit.DeviceType(id.DeviceType)}
	res.ATAPI = id.Removable || res.DeviceType == unit.CDROM
	b.atapi[u.Index] = res.ATAPI
	if raw, err := d.IdentifyRaw(res.ATAPI); err == nil {
		rec := Identify(raw)
		res.XferMultiple, res.MultipleCount = rec.Multiple()
	}
	if res.ATAPI {
		return res, true, nil
	}
	last, bs, err := d.Capacity()
	if err != nil {
		return Drive{}, false, errors.Wrapf(err, "unit %d: read capacity", u.Index)
	}
	res.Geometry = NewGeometry(bs, uint64(last)+1, false)
	return res, true, nil
}

// errnoFor maps drive errors to request status codes.
func errnoFor(err error) Errno {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, drive.ErrNoMedium):
		return TDErrDiskChanged
	case errors.Is(err, sgio.ErrDataProtect):
		return TDErrWriteProt
	case errors.Is(err, drive.ErrNotSupported):
		return IOErrNoCmd
	case errors.Is(err, sgio.ErrMediumError):
		return TDErrNotSpecified
	}
	return HFErrBadStatus
}

func (b *DriveBus) Transfer(buf []byte, lba uint64, count uint32, u *unit.Unit, dir Direction) (uint32, Errno) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.get(u)
	if d == nil {
		return 0, TDErrBadUnitNum
	}
	bs := u.Snapshot().Geometry.BlockSize
	if bs == 0 {
		return 0, TDErrDiskChanged
	}
	if uint64(len(buf)) < uint64(count)*uint64(bs) {
		return 0, IOErrBadLength
	}
	if lba+uint64(count) > 1<<32 {
		return 0, IOErrBadAddress
	}

	var done uint32
	for count > 0 {
		n := count
		if n > maxBlocksPerCDB {
			n = maxBlocksPerCDB
		}
		chunk := buf[uint64(done) : uint64(done)+uint64(n)*uint64(bs)]
		var got int
		var err error
		if dir == Read {
			got, err = d.ReadBlocks(uint32(lba), uint16(n), chunk)
		} else {
			got, err = d.WriteBlocks(uint32(lba), uint16(n), chunk)
		}
		done += uint32(got)
		if err != nil {
			log.Warnf("Drive bus: unit %d %s at %d failed: %v", u.Index, dir, lba, err)
			return done, errnoFor(err)
		}
		lba += uint64(n)
		count -= n
	}
	return done, OK
}

func (b *DriveBus) Identify(u *unit.Unit) (Identify, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.get(u)
	if d == nil {
		return Identify{}, errors.Errorf("unit %d: no drive", u.Index)
	}
	raw, err := d.IdentifyRaw(b.atapi[u.Index])
	if err != nil {
		return Identify{}, errors.Wrapf(err, "unit %d: identify", u.Index)
	}
	return Identify(raw), nil
}

func (b *DriveBus) Media(u *unit.Unit) (Media, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.get(u)
	if d == nil {
		return Media{}, nil
	}
	if err := d.TestUnitReady(); err != nil {
		if errors.Is(err, drive.ErrNoMedium) {
			return Media{}, nil
		}
		return Media{}, errors.Wrapf(err, "unit %d: test unit ready", u.Index)
	}
	last, bs, err := d.Capacity()
	if err != nil {
		if errors.Is(err, drive.ErrNoMedium) {
			return Media{}, nil
		}
		return Media{}, errors.Wrapf(err, "unit %d: read capacity", u.Index)
	}
	return Media{
		Present:        true,
		Geometry:       NewGeometry(bs, uint64(last)+1, b.atapi[u.Index]),
		WriteProtected: b.atapi[u.Index],
	}, nil
}

func (b *DriveBus) Eject(u *unit.Unit, eject bool) Errno {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.get(u)
	if d == nil {
		return TDErrBadUnitNum
	}
	if !b.atapi[u.Index] {
		return IOErrNoCmd
	}
	return errnoFor(d.Eject(eject))
}

func (b *DriveBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result *multierror.Error
	for i, d := range b.drives {
		if d == nil {
			continue
		}
		if err := d.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "unit %d", i))
		}
		b.drives[i] = nil
	}
	return result.ErrorOrNil()
}
