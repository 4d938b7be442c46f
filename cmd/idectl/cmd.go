// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/term"

	"github.com/open-source-firmware/go-atadev/pkg/cmdutil"
	"github.com/open-source-firmware/go-atadev/pkg/device"
	"github.com/open-source-firmware/go-atadev/pkg/scsi"
)

// Bytes moved per request by read and verify.
const chunkSize = 64 * 1024

type unitsCmd struct {
	NoHeader bool `flag:"" help:"Suppress the header line"`
}

type geometryCmd struct {
	Unit uint32 `arg:"" help:"Unit number"`
}

type inquiryCmd struct {
	Unit uint32 `arg:"" help:"Unit number"`
}

type capacityCmd struct {
	Unit uint32 `arg:"" help:"Unit number"`
}

type modeSenseCmd struct {
	Unit uint32 `arg:"" help:"Unit number"`
	Page uint8  `flag:"" short:"p" default:"63" help:"Mode page (3 format, 4 rigid geometry, 63 all)"`
}

type readCmd struct {
	Unit   uint32 `arg:"" help:"Unit number"`
	LBA    uint64 `flag:"" name:"lba" short:"l" default:"0" help:"First block"`
	Count  uint32 `flag:"" short:"c" default:"1" help:"Number of blocks"`
	Output string `flag:"" optional:"" short:"o" type:"path" help:"Write blocks to this file instead of stdout"`
	Force  bool   `flag:"" help:"Write binary data to a terminal"`
}

type writeCmd struct {
	Unit  uint32 `arg:"" help:"Unit number"`
	LBA   uint64 `flag:"" name:"lba" short:"l" default:"0" help:"First block"`
	Input string `flag:"" required:"" short:"i" type:"existingfile" help:"File to write, padded with zeros to whole blocks"`
	Yes   bool   `flag:"" short:"y" type:"confirm" help:"Overwrite blocks on the unit"`
}

type verifyCmd struct {
	Unit      uint32 `arg:"" help:"Unit number"`
	LBA       uint64 `flag:"" name:"lba" short:"l" default:"0" help:"First block"`
	Reference string `flag:"" required:"" short:"r" type:"existingfile" help:"Image the blocks are compared against"`
}

type ejectCmd struct {
	Unit uint32 `arg:"" help:"Unit number"`
	Load bool   `flag:"" help:"Load the medium instead of ejecting it"`
}

type watchCmd struct {
	For time.Duration `flag:"" name:"for" default:"0s" help:"Stop after this long (0 waits for interrupt)"`
}

type diagCmd struct{}

// cli is the main command line interface struct required by kong command line parser
var cli struct {
	cmdutil.BusEmbed `embed:""`
	cmdutil.LogEmbed `embed:""`
	Poll time.Duration `optional:"" default:"2s" help:"Media change polling interval (0 disables polling)"`

	Units     unitsCmd     `cmd:"" help:"List detected units"`
	Geometry  geometryCmd  `cmd:"" help:"Show the drive geometry of a unit"`
	Inquiry   inquiryCmd   `cmd:"" help:"Send SCSI INQUIRY to a unit"`
	Capacity  capacityCmd  `cmd:"" help:"Send SCSI READ CAPACITY(10) to a unit"`
	ModeSense modeSenseCmd `cmd:"" help:"Send SCSI MODE SENSE(6) to a unit"`
	Read      readCmd      `cmd:"" help:"Read blocks from a unit"`
	Write     writeCmd     `cmd:"" help:"Write a file to a unit"`
	Verify    verifyCmd    `cmd:"" help:"Compare blocks of a unit with an image"`
	Eject     ejectCmd     `cmd:"" help:"Eject or load the medium of a packet unit"`
	Watch     watchCmd     `cmd:"" help:"Report media changes"`
	Diag      diagCmd      `cmd:"" help:"Dump the state of every unit"`
	Metrics   metricsCmd   `cmd:"" help:"Probe every unit and print driver metrics"`
}

func (t *unitsCmd) Run(ctx *context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	if !t.NoHeader {
		fmt.Fprintf(w, "UNIT\tCHANNEL\tPOSITION\tTYPE\tATAPI\tMEDIUM\tBLOCKS\tBLOCKSIZE\tCHANGES\n")
	}
	for _, u := range ctx.units() {
		st := u.Snapshot()
		pos := "secondary"
		if u.Primary {
			pos = "primary"
		}
		blocks, bs := "-", "-"
		if st.GeometryValid() {
			blocks = fmt.Sprint(st.Geometry.LogicalSectors)
			bs = fmt.Sprint(st.Geometry.BlockSize)
		}
		fmt.Fprint(w,
			u.Index, "\t",
			u.Channel, "\t",
			pos, "\t",
			u.DeviceType, "\t",
			st.ATAPI, "\t",
			st.MediaPresent, "\t",
			blocks, "\t",
			bs, "\t",
			st.ChangeCount, "\t",
			"\n")
	}
	return w.Flush()
}

func (t *geometryCmd) Run(ctx *context) error {
	g := &device.Geometry{}
	if _, err := ctx.command(t.Unit, device.TDGetGeometry, g, 0, 0); err != nil {
		return err
	}
	fmt.Printf("Sector size:     %d\n", g.SectorSize)
	fmt.Printf("Total sectors:   %d\n", g.TotalSectors)
	fmt.Printf("Cylinders:       %d\n", g.Cylinders)
	fmt.Printf("Heads:           %d\n", g.Heads)
	fmt.Printf("Track sectors:   %d\n", g.TrackSectors)
	fmt.Printf("Cyl sectors:     %d\n", g.CylSectors)
	fmt.Printf("Removable:       %v\n", g.Flags&device.GeometryRemovable != 0)
	return nil
}

func (t *inquiryCmd) Run(ctx *context) error {
	b, err := ctx.scsi(t.Unit, scsi.Inquiry{AllocationLength: 0xff}.CDB(), 0xff)
	if err != nil {
		return err
	}
	var inq scsi.InquiryData
	if err := scsi.Unmarshal(b, &inq); err != nil {
		return fmt.Errorf("short INQUIRY response (%d bytes): %v", len(b), err)
	}
	fmt.Printf("Peripheral type: %#02x\n", inq.Peripheral&0x1f)
	fmt.Printf("Removable:       %v\n", inq.Removable&0x80 != 0)
	fmt.Printf("Vendor:          %s\n", strings.TrimSpace(string(inq.Vendor[:])))
	fmt.Printf("Product:         %s\n", strings.TrimSpace(string(inq.Product[:])))
	fmt.Printf("Revision:        %s\n", strings.TrimSpace(string(inq.Revision[:])))
	fmt.Printf("Serial:          %s\n", strings.TrimSpace(string(inq.Serial[:])))
	return nil
}

func (t *capacityCmd) Run(ctx *context) error {
	b, err := ctx.scsi(t.Unit, scsi.ReadCapacity{}.CDB(), 8)
	if err != nil {
		return err
	}
	var rc scsi.ReadCapacityData
	if err := scsi.Unmarshal(b, &rc); err != nil {
		return fmt.Errorf("short READ CAPACITY response: %v", err)
	}
	fmt.Printf("Last LBA:   %d\n", rc.LastLBA)
	fmt.Printf("Block size: %d\n", rc.BlockSize)
	fmt.Printf("Capacity:   %d bytes\n", (uint64(rc.LastLBA)+1)*uint64(rc.BlockSize))
	return nil
}

func (t *modeSenseCmd) Run(ctx *context) error {
	b, err := ctx.scsi(t.Unit, scsi.ModeSense{Page: t.Page, AllocationLength: 0xff}.CDB(), 0xff)
	if err != nil {
		return err
	}
	fmt.Print(hex.Dump(b))
	return nil
}

// blocks reads count blocks starting at lba from unit n and passes them to
// fn in chunks.
func blocks(ctx *context, n uint32, lba uint64, count uint64, fn func([]byte) error) error {
	bs, err := ctx.blockSize(n)
	if err != nil {
		return err
	}
	per := uint64(chunkSize / bs)
	if per == 0 {
		per = 1
	}
	buf := make([]byte, per*uint64(bs))
	for count > 0 {
		c := per
		if count < c {
			c = count
		}
		length := uint32(c) * bs
		r, err := ctx.command(n, device.TDRead64, buf, lba*uint64(bs), length)
		if err != nil {
			return fmt.Errorf("block %d: %v", lba, err)
		}
		if err := fn(buf[:r.Actual]); err != nil {
			return err
		}
		lba += c
		count -= c
	}
	return nil
}

func (t *readCmd) Run(ctx *context) error {
	var out io.Writer = os.Stdout
	if t.Output != "" {
		f, err := os.Create(t.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	} else if term.IsTerminal(int(os.Stdout.Fd())) && !t.Force {
		return fmt.Errorf("refusing to write binary data to a terminal, use --output or --force")
	}
	return blocks(ctx, t.Unit, t.LBA, uint64(t.Count), func(b []byte) error {
		_, err := out.Write(b)
		return err
	})
}

func (t *writeCmd) Run(ctx *context) error {
	if !t.Yes {
		return fmt.Errorf("write to unit %d not confirmed, pass --yes", t.Unit)
	}
	data, err := os.ReadFile(t.Input)
	if err != nil {
		return err
	}
	bs, err := ctx.blockSize(t.Unit)
	if err != nil {
		return err
	}
	if rem := len(data) % int(bs); rem != 0 {
		data = append(data, make([]byte, int(bs)-rem)...)
	}
	r, err := ctx.command(t.Unit, device.TDWrite64, data, t.LBA*uint64(bs), uint32(len(data)))
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d bytes (%d blocks) at block %d\n", r.Actual, r.Actual/bs, t.LBA)
	return nil
}

func (t *verifyCmd) Run(ctx *context) error {
	ref, err := os.ReadFile(t.Reference)
	if err != nil {
		return err
	}
	bs, err := ctx.blockSize(t.Unit)
	if err != nil {
		return err
	}
	count := uint64(len(ref)) / uint64(bs)
	ref = ref[:count*uint64(bs)]

	want := blake2b.Sum256(ref)
	h, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	offset := 0
	mismatch := -1
	err = blocks(ctx, t.Unit, t.LBA, count, func(b []byte) error {
		h.Write(b)
		if mismatch < 0 && !bytes.Equal(b, ref[offset:offset+len(b)]) {
			for i := range b {
				if b[i] != ref[offset+i] {
					mismatch = offset + i
					break
				}
			}
		}
		offset += len(b)
		return nil
	})
	if err != nil {
		return err
	}
	got := h.Sum(nil)
	fmt.Printf("Reference: %x\n", want)
	fmt.Printf("Unit %d:    %x\n", t.Unit, got)
	if mismatch >= 0 {
		return fmt.Errorf("mismatch in block %d (byte %d)", t.LBA+uint64(mismatch)/uint64(bs), mismatch)
	}
	fmt.Printf("%d blocks match\n", count)
	return nil
}

func (t *ejectCmd) Run(ctx *context) error {
	length := uint32(1)
	if t.Load {
		length = 0
	}
	_, err := ctx.command(t.Unit, device.TDEject, nil, 0, length)
	return err
}

func (t *diagCmd) Run(ctx *context) error {
	for _, u := range ctx.units() {
		fmt.Printf("=== %s ===\n", u)
		spew.Dump(u.Snapshot())

		id, err := ctx.bus.Identify(u)
		if err != nil {
			fmt.Printf("Identify failed: %v\n", err)
		} else {
			fmt.Printf("Identify: %s\n", id.String())
		}

		g := &device.Geometry{}
		if _, err := ctx.command(uint32(u.Index), device.TDGetGeometry, g, 0, 0); err != nil {
			fmt.Printf("Geometry: %v\n", err)
		} else {
			spew.Dump(g)
		}
		q := &device.QueryResult{}
		if _, err := ctx.command(uint32(u.Index), device.NSCmdDeviceQuery, q, 0, device.QueryResultSize); err != nil {
			fmt.Printf("Device query: %v\n", err)
		} else {
			spew.Dump(q)
		}
	}
	return nil
}
