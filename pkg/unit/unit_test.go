// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit

import (
	"errors"
	"testing"
)

func TestRegistryLayout(t *testing.T) {
	testCases := []struct {
		index   int
		primary bool
		channel int
	}{
		{0, true, 0},
		{1, false, 0},
		{2, true, 1},
		{3, false, 1},
	}
	r := NewRegistry(2)
	for _, tc := range testCases {
		u, err := r.Unit(tc.index)
		if err != nil {
			t.Fatalf("Unit(%d): %v", tc.index, err)
		}
		if u.Primary != tc.primary || u.Channel != tc.channel {
			t.Errorf("Unit(%d) = primary %v channel %d; want primary %v channel %d",
				tc.index, u.Primary, u.Channel, tc.primary, tc.channel)
		}
		if got := u.ChangeCount(); got != 1 {
			t.Errorf("Unit(%d).ChangeCount() = %d; want 1", tc.index, got)
		}
		if u.DeviceType != DirectAccess {
			t.Errorf("Unit(%d).DeviceType = %v; want %v", tc.index, u.DeviceType, DirectAccess)
		}
	}
}

func TestRegistrySharedShadowDevHead(t *testing.T) {
	r := NewRegistry(2)
	u0, _ := r.Unit(0)
	u1, _ := r.Unit(1)
	u2, _ := r.Unit(2)
	*u0.ShadowDevHead = 0xf0
	if *u1.ShadowDevHead != 0xf0 {
		t.Errorf("units on the same channel do not share the drive select shadow")
	}
	if *u2.ShadowDevHead != 0 {
		t.Errorf("units on different channels share the drive select shadow")
	}
}

func TestRegistryLookup(t *testing.T) {
	testCases := []struct {
		name     string
		channels int
		unitNum  uint32
		want     int
		err      error
	}{
		{"First unit", 2, 0, 0, nil},
		{"Last unit", 2, 3, 3, nil},
		{"LUN set", 2, 10, 0, ErrBadLUN},
		{"Beyond channels", 1, 2, 0, ErrBadUnit},
		{"Out of range", 2, 7, 0, ErrBadUnit},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry(tc.channels)
			u, err := r.Lookup(tc.unitNum)
			if !errors.Is(err, tc.err) {
				t.Fatalf("Lookup(%d) error = %v; want %v", tc.unitNum, err, tc.err)
			}
			if err == nil && u.Index != tc.want {
				t.Errorf("Lookup(%d) = unit %d; want %d", tc.unitNum, u.Index, tc.want)
			}
		})
	}
}

func TestPresent(t *testing.T) {
	r := NewRegistry(2)
	u, _ := r.Unit(2)
	u.Attach(false, DirectAccess, Geometry{BlockSize: 512, BlockShift: 9, LogicalSectors: 100})
	p := r.Present()
	if len(p) != 1 || p[0] != u {
		t.Errorf("Present() = %v; want [%v]", p, u)
	}
}

func TestSnapshotHidesGeometryOfAbsentDrive(t *testing.T) {
	r := NewRegistry(1)
	u, _ := r.Unit(0)
	u.geometry = Geometry{BlockSize: 512, LogicalSectors: 10}
	s := u.Snapshot()
	if s.GeometryValid() {
		t.Errorf("geometry of an absent drive reported valid")
	}
	if s.Geometry != (Geometry{}) {
		t.Errorf("Snapshot() exposed geometry %+v of an absent drive", s.Geometry)
	}
}

func TestSnapshotATAPIWithoutMedium(t *testing.T) {
	r := NewRegistry(1)
	u, _ := r.Unit(1)
	u.Attach(true, CDROM, Geometry{})
	if u.Snapshot().GeometryValid() {
		t.Errorf("ATAPI unit without medium reported valid geometry")
	}
	u.SetMedia(true, Geometry{BlockSize: 2048, BlockShift: 11, LogicalSectors: 1000, Cylinders: 1000, Heads: 1, SectorsPerTrack: 1})
	if !u.Snapshot().GeometryValid() {
		t.Errorf("ATAPI unit with medium reported invalid geometry")
	}
}

func TestSetMediaTransitions(t *testing.T) {
	r := NewRegistry(1)
	u, _ := r.Unit(1)
	u.Attach(true, CDROM, Geometry{})

	var order []string
	a := &Interrupt{Name: "a", Handler: func(*Unit) { order = append(order, "a") }}
	b := &Interrupt{Name: "b", Handler: func(*Unit) { order = append(order, "b") }}
	u.AddInterrupt(a)
	u.AddInterrupt(b)
	u.AddInterrupt(a)

	g := Geometry{BlockSize: 2048, BlockShift: 11, LogicalSectors: 300}
	changed, notify := u.SetMedia(true, g)
	if !changed {
		t.Fatalf("SetMedia(true) on an empty unit reported no change")
	}
	for _, i := range notify {
		i.Handler(u)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("notification order = %v; want [a b]", order)
	}
	if got := u.ChangeCount(); got != 2 {
		t.Errorf("ChangeCount() = %d; want 2", got)
	}

	changed, notify = u.SetMedia(true, g)
	if changed || notify != nil {
		t.Errorf("SetMedia(true) twice reported a change")
	}
	if got := u.ChangeCount(); got != 2 {
		t.Errorf("ChangeCount() after a repeated probe = %d; want 2", got)
	}

	if !u.RemInterrupt(a) {
		t.Errorf("RemInterrupt(a) = false; want true")
	}
	if u.RemInterrupt(a) {
		t.Errorf("RemInterrupt(a) twice = true; want false")
	}
	_, notify = u.SetMedia(false, Geometry{})
	if len(notify) != 1 || notify[0] != b {
		t.Errorf("SetMedia(false) notify = %v; want [b]", notify)
	}
	if got := u.ChangeCount(); got != 3 {
		t.Errorf("ChangeCount() = %d; want 3", got)
	}
	if u.Snapshot().Geometry != g {
		t.Errorf("geometry was cleared when the medium went away")
	}
}

func TestGeometryContains(t *testing.T) {
	g := Geometry{BlockSize: 512, BlockShift: 9, LogicalSectors: 1000000}
	testCases := []struct {
		name  string
		lba   uint64
		count uint64
		want  bool
	}{
		{"Last block", 999999, 1, true},
		{"Past the end", 999999, 2, false},
		{"Whole disk", 0, 1000000, true},
		{"Overflow", ^uint64(0), 2, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Contains(tc.lba, tc.count); got != tc.want {
				t.Errorf("Contains(%d, %d) = %v; want %v", tc.lba, tc.count, got, tc.want)
			}
		})
	}
}
