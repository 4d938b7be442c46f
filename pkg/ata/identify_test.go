// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"testing"

	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

func TestATAString(t *testing.T) {
	testCases := []struct {
		in   []byte
		want string
	}{
		{[]byte("EMUQ"), "MEQU"},
		{[]byte("aDat  "), "Data  "},
		{[]byte{}, ""},
	}
	for _, tc := range testCases {
		if got := ATAString(tc.in); got != tc.want {
			t.Errorf("ATAString(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewIdentifyDisk(t *testing.T) {
	id := NewIdentify(IdentifyParams{
		Serial:        "S123",
		Firmware:      "FW1",
		Model:         "Test Disk",
		Sectors:       1000000,
		MultipleCount: 16,
	})
	if id.ATAPI() {
		t.Errorf("disk identified as a packet device")
	}
	if got := id.Serial(); got != "S123" {
		t.Errorf("Serial() = %q; want %q", got, "S123")
	}
	if got := id.Firmware(); got != "FW1" {
		t.Errorf("Firmware() = %q; want %q", got, "FW1")
	}
	if got := id.Model(); got != "Test Disk" {
		t.Errorf("Model() = %q; want %q", got, "Test Disk")
	}
	if got := id.Sectors(); got != 1000000 {
		t.Errorf("Sectors() = %d; want 1000000", got)
	}
	if ok, n := id.Multiple(); !ok || n != 16 {
		t.Errorf("Multiple() = %v, %d; want true, 16", ok, n)
	}
	if got := id.DeviceType(); got != unit.DirectAccess {
		t.Errorf("DeviceType() = %v; want %v", got, unit.DirectAccess)
	}

	g := id.Geometry(512)
	if g.LogicalSectors != 1000000 || g.BlockShift != 9 {
		t.Errorf("Geometry() = %+v", g)
	}
	if g.Heads != 16 || g.SectorsPerTrack != 63 || g.Cylinders != 1000000/(16*63) {
		t.Errorf("Geometry() CHS = %d/%d/%d", g.Cylinders, g.Heads, g.SectorsPerTrack)
	}
}

func TestNewIdentifyLBA48(t *testing.T) {
	const sectors = 0x1_0000_0000
	id := NewIdentify(IdentifyParams{Sectors: sectors})
	if got := id.Sectors(); got != sectors {
		t.Errorf("Sectors() = %#x; want %#x", got, uint64(sectors))
	}
	if got := id.Geometry(512).Cylinders; got != maxCylinders {
		t.Errorf("Cylinders = %d; want %d", got, maxCylinders)
	}
}

func TestNewIdentifyPacket(t *testing.T) {
	id := NewIdentify(IdentifyParams{ATAPI: true, DeviceType: unit.CDROM, Model: "CD"})
	if !id.ATAPI() {
		t.Errorf("ATAPI() = false; want true")
	}
	if !id.Removable() {
		t.Errorf("Removable() = false; want true")
	}
	if got := id.DeviceType(); got != unit.CDROM {
		t.Errorf("DeviceType() = %v; want %v", got, unit.CDROM)
	}
	// Model field is space padded to its full width.
	if got := string(id.Field(WordModel, 4)); got != "DC  " {
		t.Errorf("raw model = %q; want %q", got, "DC  ")
	}
}

func TestNewGeometry(t *testing.T) {
	testCases := []struct {
		name      string
		blockSize uint32
		sectors   uint64
		atapi     bool
		want      unit.Geometry
	}{
		{"Disk", 512, 16 * 63 * 10, false,
			unit.Geometry{BlockSize: 512, BlockShift: 9, LogicalSectors: 10080, Cylinders: 10, Heads: 16, SectorsPerTrack: 63}},
		{"CD-ROM", 2048, 300, true,
			unit.Geometry{BlockSize: 2048, BlockShift: 11, LogicalSectors: 300, Cylinders: 300, Heads: 1, SectorsPerTrack: 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewGeometry(tc.blockSize, tc.sectors, tc.atapi); got != tc.want {
				t.Errorf("NewGeometry() = %+v; want %+v", got, tc.want)
			}
		})
	}
}
