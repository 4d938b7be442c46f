// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

func newTestBus(t *testing.T) (*ImageBus, *unit.Registry, *MemMedium) {
	t.Helper()
	b := NewImageBus(2)
	disk := NewMemMedium(64 * DiskBlockSize)
	require.NoError(t, b.AttachMedium(0, ImageConfig{Model: "Mem Disk"}, disk))
	require.NoError(t, b.AttachMedium(3, ImageConfig{ATAPI: true}, nil))
	return b, unit.NewRegistry(b.Channels()), disk
}

func TestImageBusDetect(t *testing.T) {
	b, r, _ := newTestBus(t)

	u0, _ := r.Unit(0)
	d, ok, err := b.Detect(u0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, d.ATAPI)
	assert.Equal(t, unit.DirectAccess, d.DeviceType)
	assert.True(t, d.XferMultiple)
	assert.Equal(t, uint64(64), d.Geometry.LogicalSectors)

	u1, _ := r.Unit(1)
	_, ok, err = b.Detect(u1)
	require.NoError(t, err)
	assert.False(t, ok, "empty slot detected")

	u3, _ := r.Unit(3)
	d, ok, err = b.Detect(u3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d.ATAPI)
	assert.Equal(t, unit.CDROM, d.DeviceType)
	assert.False(t, d.Geometry.Valid())
}

func TestImageBusTransfer(t *testing.T) {
	b, r, disk := newTestBus(t)
	u, _ := r.Unit(0)

	out := bytes.Repeat([]byte{0xa5}, 2*DiskBlockSize)
	n, errno := b.Transfer(out, 10, 2, u, Write)
	assert.Equal(t, OK, errno)
	assert.Equal(t, uint32(len(out)), n)
	assert.Equal(t, out, disk.Bytes()[10*DiskBlockSize:12*DiskBlockSize])
	assert.Equal(t, uint8(0xe0), *u.ShadowDevHead)

	in := make([]byte, 2*DiskBlockSize)
	n, errno = b.Transfer(in, 10, 2, u, Read)
	assert.Equal(t, OK, errno)
	assert.Equal(t, uint32(len(in)), n)
	assert.Equal(t, out, in)

	_, errno = b.Transfer(in, 63, 2, u, Read)
	assert.Equal(t, IOErrBadAddress, errno)

	_, errno = b.Transfer(in[:10], 0, 1, u, Read)
	assert.Equal(t, IOErrBadLength, errno)
}

func TestImageBusPacketMedia(t *testing.T) {
	b, r, _ := newTestBus(t)
	u, _ := r.Unit(3)

	m, err := b.Media(u)
	require.NoError(t, err)
	assert.False(t, m.Present)

	_, errno := b.Transfer(make([]byte, CDROMBlockSize), 0, 1, u, Read)
	assert.Equal(t, TDErrDiskChanged, errno)

	require.NoError(t, b.Insert(3, NewMemMedium(10*CDROMBlockSize)))
	m, err = b.Media(u)
	require.NoError(t, err)
	assert.True(t, m.Present)
	assert.Equal(t, uint64(10), m.Geometry.LogicalSectors)
	assert.Equal(t, uint32(CDROMBlockSize), m.Geometry.BlockSize)
	assert.True(t, m.WriteProtected)

	_, errno = b.Transfer(make([]byte, CDROMBlockSize), 0, 1, u, Write)
	assert.Equal(t, TDErrWriteProt, errno)
	assert.Equal(t, uint8(0xf0), *u.ShadowDevHead)

	assert.Equal(t, OK, b.Eject(u, true))
	m, err = b.Media(u)
	require.NoError(t, err)
	assert.False(t, m.Present)

	u0, _ := r.Unit(0)
	assert.Equal(t, IOErrNoCmd, b.Eject(u0, true))
	assert.ErrorIs(t, b.Insert(0, NewMemMedium(CDROMBlockSize)), ErrNotPacket)
}

func TestImageBusIdentify(t *testing.T) {
	b, r, _ := newTestBus(t)
	u0, _ := r.Unit(0)
	id, err := b.Identify(u0)
	require.NoError(t, err)
	assert.Equal(t, "Mem Disk", id.Model())
	assert.Equal(t, "IMG00000000", id.Serial())
	assert.Equal(t, uint64(64), id.Sectors())

	u3, _ := r.Unit(3)
	id, err = b.Identify(u3)
	require.NoError(t, err)
	assert.True(t, id.ATAPI())
	assert.Equal(t, unit.CDROM, id.DeviceType())

	u1, _ := r.Unit(1)
	_, err = b.Identify(u1)
	assert.Error(t, err)
}

func TestImageBusAttachFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 8*DiskBlockSize), 0o600))
	small := filepath.Join(dir, "small.img")
	require.NoError(t, os.WriteFile(small, make([]byte, 100), 0o600))

	b := NewImageBus(1)
	require.NoError(t, b.Attach(0, ImageConfig{Path: path}))
	assert.ErrorIs(t, b.Attach(0, ImageConfig{Path: path}), ErrSlotInUse)
	assert.ErrorIs(t, b.Attach(1, ImageConfig{Path: small}), ErrEmptyImage)
	assert.ErrorIs(t, b.Attach(2, ImageConfig{Path: path}), ErrNoSlot)
	assert.Error(t, b.Attach(1, ImageConfig{Path: filepath.Join(dir, "missing.img")}))
	assert.Error(t, b.Attach(1, ImageConfig{}))

	r := unit.NewRegistry(1)
	u, _ := r.Unit(0)
	buf := bytes.Repeat([]byte{1}, DiskBlockSize)
	_, errno := b.Transfer(buf, 7, 1, u, Write)
	assert.Equal(t, OK, errno)
	require.NoError(t, b.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf, data[7*DiskBlockSize:])
}
