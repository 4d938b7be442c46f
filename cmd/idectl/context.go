// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	gocontext "context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/device"
	"github.com/open-source-firmware/go-atadev/pkg/scsi"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

const shutdownTimeout = 10 * time.Second

// context is the context struct required by kong command line parser
type context struct {
	bus ata.Bus
	dev *device.Device
	reg *prometheus.Registry
}

func newContext() (*context, error) {
	bus, err := cli.Open()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewPedanticRegistry()
	dev, err := device.New(gocontext.Background(), bus,
		device.WithChangeInterval(cli.Poll),
		device.WithRegisterer(reg))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("device.New() failed: %v", err)
	}
	return &context{bus: bus, dev: dev, reg: reg}, nil
}

func (c *context) close() error {
	ctx, cancel := gocontext.WithTimeout(gocontext.Background(), shutdownTimeout)
	defer cancel()
	if err := c.dev.Shutdown(ctx); err != nil {
		c.bus.Close()
		return fmt.Errorf("shutdown failed: %v", err)
	}
	return c.bus.Close()
}

// open returns a request bound to unit n. The caller closes it with
// c.dev.Close.
func (c *context) open(n uint32) (*device.Request, error) {
	r := &device.Request{}
	if e := c.dev.Open(r, n); e != ata.OK {
		return nil, fmt.Errorf("open unit %d: %v", n, e)
	}
	return r, nil
}

func (c *context) do(r *device.Request) error {
	if err := c.dev.DoIO(gocontext.Background(), r); err != nil {
		return fmt.Errorf("%s failed: %v", r.Command, err)
	}
	return nil
}

// command runs a single request on unit n.
func (c *context) command(n uint32, cmd device.Command, data interface{}, offset uint64, length uint32) (*device.Request, error) {
	r, err := c.open(n)
	if err != nil {
		return nil, err
	}
	defer c.dev.Close(r)
	r.Command = cmd
	r.Data = data
	r.Offset = offset
	r.Length = length
	return r, c.do(r)
}

// scsi sends cdb to unit n through HD_SCSICMD and returns the bytes the
// target produced.
func (c *context) scsi(n uint32, cdb []byte, alloc int) ([]byte, error) {
	cmd := &scsi.Command{CDB: cdb, Data: make([]byte, alloc), Flags: scsi.FlagRead}
	if _, err := c.command(n, device.HDSCSICmd, cmd, 0, 0); err != nil {
		return nil, fmt.Errorf("SCSI command %#02x: %v (status %#02x)", cdb[0], err, cmd.Status)
	}
	return cmd.Data[:cmd.Actual], nil
}

// blockSize returns the block size of the medium in unit n.
func (c *context) blockSize(n uint32) (uint32, error) {
	u, err := c.dev.Units().Lookup(n)
	if err != nil {
		return 0, fmt.Errorf("unit %d: %v", n, err)
	}
	st := u.Snapshot()
	if !st.GeometryValid() {
		return 0, fmt.Errorf("%s: %v", u, ata.TDErrDiskChanged)
	}
	return st.Geometry.BlockSize, nil
}

func (c *context) units() []*unit.Unit {
	return c.dev.Units().Present()
}
