// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device is the request core of the driver: it accepts I/O requests
// for the units on an ATA bus, serialises them through a single I/O task and
// tracks removable media.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/cihub/seelog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

var (
	ErrNoUnits    = errors.New("no drives detected")
	ErrNotRunning = errors.New("I/O task is not running")
)

type taskState int32

const (
	stateRunning taskState = iota
	stateShuttingDown
	stateStopped
)

func (s taskState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateShuttingDown:
		return "shutting down"
	}
	return "stopped"
}

// Device is one driver instance: the unit registry of a bus, the I/O task
// that owns every transfer and the media change poller.
type Device struct {
	bus   ata.Bus
	units *unit.Registry

	changeInterval time.Duration
	registerer     prometheus.Registerer
	metrics        *metrics

	// Guards queue and state transitions so that a request is either
	// queued while the task runs or refused.
	mu     sync.Mutex
	queue  []*Request
	state  taskState
	signal chan struct{}

	openCount atomic.Int32

	cancel     context.CancelFunc
	taskDone   chan struct{}
	changeDone chan struct{}
}

// New detects the drives on bus, then starts the I/O task and the media
// change poller. The poller stops when ctx is done or on Shutdown; the I/O
// task only on Shutdown. The device does not take ownership of bus.
func New(ctx context.Context, bus ata.Bus, opts ...Option) (*Device, error) {
	d := &Device{
		bus:            bus,
		units:          unit.NewRegistry(bus.Channels()),
		changeInterval: DefaultChangeInterval,
		metrics:        newMetrics(),
		signal:         make(chan struct{}, 1),
		taskDone:       make(chan struct{}),
		changeDone:     make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}

	if err := d.detect(); err != nil {
		return nil, err
	}
	if d.registerer != nil {
		if err := d.metrics.register(d.registerer); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %v", err)
		}
	}

	ctx, d.cancel = context.WithCancel(ctx)
	go d.task()
	if d.changeInterval > 0 {
		go d.watchChanges(ctx)
	} else {
		close(d.changeDone)
	}
	log.Infof("Device: started with %d unit(s)", len(d.units.Present()))
	return d, nil
}

func (d *Device) detect() error {
	for _, u := range d.units.Slots() {
		drv, ok, err := d.bus.Detect(u)
		if err != nil {
			log.Warnf("Device: %s: detection failed: %v", u, err)
			continue
		}
		if !ok {
			log.Debugf("Device: %s: no drive", u)
			continue
		}
		u.XferMultiple = drv.XferMultiple
		u.MultipleCount = drv.MultipleCount
		u.Attach(drv.ATAPI, drv.DeviceType, drv.Geometry)
		log.Infof("Device: %s: %s drive, atapi=%v, %d blocks of %d bytes",
			u, drv.DeviceType, drv.ATAPI, drv.Geometry.LogicalSectors, drv.Geometry.BlockSize)
	}
	if len(d.units.Present()) == 0 {
		return ErrNoUnits
	}
	return nil
}

// Units returns the unit registry.
func (d *Device) Units() *unit.Registry {
	return d.units
}

// Running reports whether the I/O task accepts requests.
func (d *Device) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == stateRunning
}

// OpenCount returns the number of open requests not yet closed.
func (d *Device) OpenCount() int {
	return int(d.openCount.Load())
}

// Shutdown sends CMD_DIE to the I/O task, stops the poller and waits for
// both to exit. Requests still queued behind CMD_DIE are never answered.
func (d *Device) Shutdown(ctx context.Context) error {
	die := &Request{Command: CmdDie, ReplyPort: NewReplyPort()}
	if !d.enqueue(die) {
		return ErrNotRunning
	}
	d.cancel()

	if _, err := die.ReplyPort.Wait(ctx); err != nil {
		return err
	}
	for _, done := range []chan struct{}{d.taskDone, d.changeDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if d.registerer != nil {
		d.metrics.unregister(d.registerer)
	}
	log.Info("Device: shut down")
	return nil
}
