// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/cihub/seelog"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

const (
	DiskBlockSize  = 512
	CDROMBlockSize = 2048

	defaultMultipleCount = 16

	devHeadBase  = 0xe0 // LBA mode, obsolete bits set
	devHeadSlave = 0x10
)

var (
	ErrNoSlot     = errors.New("no such unit slot")
	ErrSlotInUse  = errors.New("unit slot already attached")
	ErrNotPacket  = errors.New("unit is not a packet device")
	ErrEmptyImage = errors.New("image is smaller than one block")
)

// Medium is the backing store of an emulated drive.
type Medium interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
	Close() error
}

// ImageConfig describes a drive to attach to an ImageBus.
type ImageConfig struct {
	// Path of the image to open. May be empty for a packet device that
	// starts without a medium.
	Path     string
	ATAPI    bool
	ReadOnly bool
	Serial   string
	Model    string
	Firmware string
}

type imageSlot struct {
	cfg       ImageConfig
	medium    Medium
	lastPath  string
	blockSize uint32
}

// ImageBus emulates one or two IDE channels whose drives are backed by image
// files or in-memory media.
type ImageBus struct {
	mu       sync.Mutex
	channels int
	slots    [unit.MaxUnits]*imageSlot
}

func NewImageBus(channels int) *ImageBus {
	if channels < 1 {
		channels = 1
	}
	if channels > unit.MaxChannels {
		channels = unit.MaxChannels
	}
	return &ImageBus{channels: channels}
}

func (b *ImageBus) Channels() int {
	return b.channels
}

func (b *ImageBus) slot(n int) (*imageSlot, error) {
	if n < 0 || n >= 2*b.channels {
		return nil, ErrNoSlot
	}
	return b.slots[n], nil
}

// Attach opens cfg.Path and places the drive in slot n.
func (b *ImageBus) Attach(n int, cfg ImageConfig) error {
	var m Medium
	if cfg.Path != "" {
		f, err := openImage(cfg.Path, cfg.ReadOnly || cfg.ATAPI)
		if err != nil {
			return err
		}
		m = f
	} else if !cfg.ATAPI {
		return errors.Errorf("unit %d: direct access drive needs an image", n)
	}
	if err := b.AttachMedium(n, cfg, m); err != nil {
		if m != nil {
			m.Close()
		}
		return err
	}
	return nil
}

// AttachMedium places a drive backed by m in slot n. m may be nil for a
// packet device without a medium.
func (b *ImageBus) AttachMedium(n int, cfg ImageConfig, m Medium) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(n)
	if err != nil {
		return err
	}
	if s != nil {
		return ErrSlotInUse
	}
	bs := uint32(DiskBlockSize)
	if cfg.ATAPI {
		bs = CDROMBlockSize
	}
	if m != nil && m.Size() < int64(bs) {
		return ErrEmptyImage
	}
	b.slots[n] = &imageSlot{cfg: cfg, medium: m, lastPath: cfg.Path, blockSize: bs}
	log.Infof("Image bus: unit %d attached (atapi=%v, path=%q)", n, cfg.ATAPI, cfg.Path)
	return nil
}

// Insert loads a new medium into the packet device in slot n, as if a disc
// had been put in the tray.
func (b *ImageBus) Insert(n int, m Medium) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(n)
	if err != nil {
		return err
	}
	if s == nil || !s.cfg.ATAPI {
		return ErrNotPacket
	}
	if s.medium != nil {
		s.medium.Close()
	}
	s.medium = m
	return nil
}

// InsertImage is Insert with an image file.
func (b *ImageBus) InsertImage(n int, path string) error {
	f, err := openImage(path, true)
	if err != nil {
		return err
	}
	if err := b.Insert(n, f); err != nil {
		f.Close()
		return err
	}
	b.mu.Lock()
	b.slots[n].lastPath = path
	b.mu.Unlock()
	return nil
}

// Remove takes the medium out of the packet device in slot n.
func (b *ImageBus) Remove(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(n)
	if err != nil {
		return err
	}
	if s == nil || !s.cfg.ATAPI {
		return ErrNotPacket
	}
	if s.medium == nil {
		return nil
	}
	err = s.medium.Close()
	s.medium = nil
	return err
}

func (b *ImageBus) Detect(u *unit.Unit) (Drive, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(u.Index)
	if err != nil || s == nil {
		return Drive{}, false, nil
	}
	d := Drive{
		ATAPI:         s.cfg.ATAPI,
		DeviceType:    unit.DirectAccess,
		XferMultiple:  !s.cfg.ATAPI,
		MultipleCount: defaultMultipleCount,
	}
	if s.cfg.ATAPI {
		d.DeviceType = unit.CDROM
		d.MultipleCount = 0
	}
	if s.medium != nil {
		d.Geometry = s.geometry()
	}
	return d, true, nil
}

func (s *imageSlot) geometry() unit.Geometry {
	return NewGeometry(s.blockSize, uint64(s.medium.Size())/uint64(s.blockSize), s.cfg.ATAPI)
}

func (b *ImageBus) Transfer(buf []byte, lba uint64, count uint32, u *unit.Unit, dir Direction) (uint32, Errno) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(u.Index)
	if err != nil || s == nil {
		return 0, TDErrBadUnitNum
	}

	sel := uint8(devHeadBase) | uint8(lba>>24)&0x0f
	if !u.Primary {
		sel |= devHeadSlave
	}
	if u.ShadowDevHead != nil {
		*u.ShadowDevHead = sel
	}

	if s.medium == nil {
		return 0, TDErrDiskChanged
	}
	if dir == Write && (s.cfg.ReadOnly || s.cfg.ATAPI) {
		return 0, TDErrWriteProt
	}

	n := uint64(count) * uint64(s.blockSize)
	if uint64(len(buf)) < n {
		return 0, IOErrBadLength
	}
	off := int64(lba * uint64(s.blockSize))
	if off+int64(n) > s.medium.Size() {
		return 0, IOErrBadAddress
	}

	var done int
	if dir == Read {
		done, err = s.medium.ReadAt(buf[:n], off)
	} else {
		done, err = s.medium.WriteAt(buf[:n], off)
	}
	if err != nil && !(err == io.EOF && uint64(done) == n) {
		log.Warnf("Image bus: unit %d %s of %d blocks at %d failed: %v", u.Index, dir, count, lba, err)
		return uint32(done), TDErrNotSpecified
	}
	return uint32(done), OK
}

func (b *ImageBus) Identify(u *unit.Unit) (Identify, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(u.Index)
	if err != nil {
		return Identify{}, err
	}
	if s == nil {
		return Identify{}, errors.Errorf("unit %d: no drive", u.Index)
	}
	p := IdentifyParams{
		Serial:        s.cfg.Serial,
		Firmware:      s.cfg.Firmware,
		Model:         s.cfg.Model,
		ATAPI:         s.cfg.ATAPI,
		DeviceType:    unit.CDROM,
		MultipleCount: defaultMultipleCount,
	}
	if p.Serial == "" {
		p.Serial = fmt.Sprintf("IMG%08d", u.Index)
	}
	if p.Firmware == "" {
		p.Firmware = "1.0"
	}
	if p.Model == "" {
		p.Model = "Image Disk"
		if s.cfg.ATAPI {
			p.Model = "Image CD-ROM"
		}
	}
	if s.medium != nil && !s.cfg.ATAPI {
		p.Sectors = uint64(s.medium.Size()) / uint64(s.blockSize)
	}
	return *NewIdentify(p), nil
}

func (b *ImageBus) Media(u *unit.Unit) (Media, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(u.Index)
	if err != nil {
		return Media{}, err
	}
	if s == nil || s.medium == nil {
		return Media{}, nil
	}
	return Media{
		Present:        true,
		Geometry:       s.geometry(),
		WriteProtected: s.cfg.ReadOnly || s.cfg.ATAPI,
	}, nil
}

func (b *ImageBus) Eject(u *unit.Unit, eject bool) Errno {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(u.Index)
	if err != nil || s == nil {
		return TDErrBadUnitNum
	}
	if !s.cfg.ATAPI {
		return IOErrNoCmd
	}
	if eject {
		if s.medium != nil {
			s.medium.Close()
			s.medium = nil
		}
		return OK
	}
	if s.medium != nil || s.lastPath == "" {
		return OK
	}
	f, err := openImage(s.lastPath, true)
	if err != nil {
		log.Warnf("Image bus: unit %d reload failed: %v", u.Index, err)
		return TDErrDiskChanged
	}
	s.medium = f
	return OK
}

// Close releases every medium.
func (b *ImageBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result *multierror.Error
	for i, s := range b.slots {
		if s == nil || s.medium == nil {
			continue
		}
		if err := s.medium.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "unit %d", i))
		}
		s.medium = nil
	}
	return result.ErrorOrNil()
}

type fileMedium struct {
	*os.File
	size int64
}

func (f *fileMedium) Size() int64 {
	return f.size
}

func openImage(path string, readOnly bool) (*fileMedium, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat image %s", path)
	}
	return &fileMedium{File: f, size: fi.Size()}, nil
}

// MemMedium is a Medium held in memory.
type MemMedium struct {
	mu   sync.Mutex
	data []byte
}

func NewMemMedium(size int) *MemMedium {
	return &MemMedium{data: make([]byte, size)}
}

func (m *MemMedium) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemMedium) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off+int64(len(p)) > int64(len(m.data)) {
		return 0, io.ErrShortWrite
	}
	return copy(m.data[off:], p), nil
}

func (m *MemMedium) Size() int64 {
	return int64(len(m.data))
}

func (m *MemMedium) Close() error {
	return nil
}

// Bytes returns the backing store.
func (m *MemMedium) Bytes() []byte {
	return m.data
}
