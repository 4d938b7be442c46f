// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Per-drive state shared by the request dispatcher, the I/O task and the
// media change poller.

package unit

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DeviceType is the SCSI peripheral device type reported for a unit.
type DeviceType uint8

const (
	DirectAccess     DeviceType = 0x00
	SequentialAccess DeviceType = 0x01
	WORM             DeviceType = 0x04
	CDROM            DeviceType = 0x05
	OpticalDisk      DeviceType = 0x07
)

func (t DeviceType) String() string {
	switch t {
	case DirectAccess:
		return "Direct Access"
	case SequentialAccess:
		return "Sequential Access"
	case WORM:
		return "WORM"
	case CDROM:
		return "CD-ROM"
	case OpticalDisk:
		return "Optical Disk"
	}
	return fmt.Sprintf("Type 0x%02x", uint8(t))
}

// Geometry describes the addressable layout of the medium in a unit.
type Geometry struct {
	BlockSize       uint32
	BlockShift      uint
	LogicalSectors  uint64
	Cylinders       uint32
	Heads           uint32
	SectorsPerTrack uint32
}

// Valid reports whether the geometry can address at least one block.
func (g Geometry) Valid() bool {
	return g.BlockSize != 0 && g.LogicalSectors != 0
}

// LastLBA returns the highest addressable block.
func (g Geometry) LastLBA() uint64 {
	return g.LogicalSectors - 1
}

// Contains reports whether the blocks [lba, lba+count) all lie on the medium.
func (g Geometry) Contains(lba uint64, count uint64) bool {
	end := lba + count
	if end < lba {
		return false
	}
	return end <= g.LogicalSectors
}

// Interrupt is a media change notification sink. Handler is called from the
// change poller or the I/O task whenever the unit's medium comes or goes.
type Interrupt struct {
	Name    string
	Handler func(u *Unit)
}

// Unit is one drive slot on a channel. Identity fields are written once by
// detection; geometry and media state are written by the change probe and
// must be read through Snapshot.
type Unit struct {
	Index   int
	Channel int
	Primary bool

	// Written during detection only.
	Present       bool
	ATAPI         bool
	DeviceType    DeviceType
	XferMultiple  bool
	MultipleCount uint8

	// Last value written to the channel's drive/head register. Both units
	// on a channel point at the same byte.
	ShadowDevHead *uint8

	opened atomic.Bool

	mediaPresent atomic.Bool
	changeCount  atomic.Uint32

	mu         sync.Mutex
	geometry   Geometry
	interrupts []*Interrupt
}

// State is a momentary copy of the media related fields of a unit.
type State struct {
	Present      bool
	ATAPI        bool
	MediaPresent bool
	ChangeCount  uint32
	Geometry     Geometry
}

// GeometryValid reports whether Geometry may be used: the drive must exist
// and, for packet devices, hold a medium.
func (s State) GeometryValid() bool {
	if !s.Present {
		return false
	}
	if s.ATAPI && !s.MediaPresent {
		return false
	}
	return s.Geometry.Valid()
}

// Snapshot takes a consistent copy of the media state. Callers take one
// snapshot per decision and must not assume it stays current.
func (u *Unit) Snapshot() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := State{
		Present:      u.Present,
		ATAPI:        u.ATAPI,
		MediaPresent: u.mediaPresent.Load(),
		ChangeCount:  u.changeCount.Load(),
	}
	if s.Present {
		s.Geometry = u.geometry
	}
	return s
}

func (u *Unit) MediaPresent() bool {
	return u.mediaPresent.Load()
}

func (u *Unit) ChangeCount() uint32 {
	return u.changeCount.Load()
}

// Opened reports whether the unit has been opened at least once.
func (u *Unit) Opened() bool {
	return u.opened.Load()
}

// MarkOpened records the first open and reports whether this call was it.
func (u *Unit) MarkOpened() bool {
	return u.opened.CompareAndSwap(false, true)
}

// Attach records the result of drive detection. Fixed disks are considered
// to always hold their medium.
func (u *Unit) Attach(atapi bool, t DeviceType, g Geometry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Present = true
	u.ATAPI = atapi
	u.DeviceType = t
	u.geometry = g
	if !atapi {
		u.mediaPresent.Store(g.Valid())
	}
}

// SetMedia applies a media probe result. On a transition the change counter
// is bumped and the registered interrupts are returned, in registration
// order, for the caller to notify. No interrupts are returned when the state
// is unchanged.
func (u *Unit) SetMedia(present bool, g Geometry) (changed bool, notify []*Interrupt) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if present {
		u.geometry = g
	}
	if u.mediaPresent.Load() == present {
		return false, nil
	}
	u.mediaPresent.Store(present)
	u.changeCount.Add(1)
	notify = make([]*Interrupt, len(u.interrupts))
	copy(notify, u.interrupts)
	return true, notify
}

// AddInterrupt registers i for change notifications. Registering the same
// interrupt twice has no effect.
func (u *Unit) AddInterrupt(i *Interrupt) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, r := range u.interrupts {
		if r == i {
			return
		}
	}
	u.interrupts = append(u.interrupts, i)
}

// RemInterrupt removes i and reports whether it was registered.
func (u *Unit) RemInterrupt(i *Interrupt) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for n, r := range u.interrupts {
		if r == i {
			u.interrupts = append(u.interrupts[:n], u.interrupts[n+1:]...)
			return true
		}
	}
	return false
}

// Interrupts returns the registered interrupts in registration order.
func (u *Unit) Interrupts() []*Interrupt {
	u.mu.Lock()
	defer u.mu.Unlock()
	l := make([]*Interrupt, len(u.interrupts))
	copy(l, u.interrupts)
	return l
}

func (u *Unit) String() string {
	pos := "secondary"
	if u.Primary {
		pos = "primary"
	}
	return fmt.Sprintf("unit %d (channel %d %s)", u.Index, u.Channel, pos)
}
