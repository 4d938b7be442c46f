// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	log "github.com/cihub/seelog"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/scsi"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// task is the I/O task. It sleeps until signalled, then drains the queue in
// FIFO order. CMD_DIE is the only way out, so New starts the task only once
// nothing else can fail and every Device it returns must be Shutdown.
func (d *Device) task() {
	defer close(d.taskDone)
	log.Debug("Device: I/O task running")
	for range d.signal {
		for r := d.next(); r != nil; r = d.next() {
			if r.Command == CmdDie {
				d.die(r)
				return
			}
			d.handle(r)
			d.reply(r)
		}
	}
}

func (d *Device) next() *Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	r := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	d.metrics.queueDepth.Set(float64(len(d.queue)))
	return r
}

// die stops accepting requests and drops whatever is still queued. The
// dropped requests are never answered.
func (d *Device) die(r *Request) {
	d.mu.Lock()
	d.state = stateShuttingDown
	abandoned := len(d.queue)
	d.queue = nil
	d.metrics.queueDepth.Set(0)
	d.state = stateStopped
	d.mu.Unlock()

	if abandoned > 0 {
		log.Warnf("Device: I/O task %s, abandoning %d queued request(s)", stateStopped, abandoned)
	}
	r.Error = ata.OK
	r.Actual = 0
	d.reply(r)
}

func (d *Device) handle(r *Request) {
	log.Tracef("Device: I/O task %s", r.String())
	u := r.unit
	r.Actual = 0

	switch r.Command {
	case CmdRead, TDRead64, NSCmdTDRead64:
		r.Error = d.transfer(r, u, ata.Read)

	case CmdWrite, TDWrite64, NSCmdTDWrite64,
		TDFormat, TDFormat64, NSCmdTDFormat64:
		r.Error = d.transfer(r, u, ata.Write)

	case HDSCSICmd:
		cmd, ok := r.Data.(*scsi.Command)
		if !ok || cmd == nil {
			r.Error = ata.IOErrBadAddress
			return
		}
		r.Error = scsi.Execute(d.bus, u, cmd)
		r.Actual = cmd.Actual

	case TDChangeState:
		present := u.MediaPresent()
		if u.ATAPI {
			present = d.refresh(u)
		}
		if !present {
			r.Actual = 1
		}

	case TDProtStatus:
		if d.writeProtected(u) {
			r.Actual = 1
		}

	case TDAddChangeInt:
		i, ok := r.Data.(*unit.Interrupt)
		if !ok || i == nil {
			r.Error = ata.IOErrBadAddress
			return
		}
		u.AddInterrupt(i)

	case TDRemChangeInt:
		i, ok := r.Data.(*unit.Interrupt)
		if !ok || i == nil {
			r.Error = ata.IOErrBadAddress
			return
		}
		if !u.RemInterrupt(i) {
			log.Debugf("Device: %s: interrupt %q was not registered", u, i.Name)
		}

	case TDEject:
		if !u.ATAPI {
			r.Error = ata.IOErrNoCmd
			return
		}
		r.Error = d.bus.Eject(u, r.Length != 0)
		d.refresh(u)

	default:
		log.Warnf("Device: I/O task got unknown command %s", r.Command)
		r.Error = ata.IOErrNoCmd
	}
}

// writeProtected asks the bus whether writes to the medium of u would fail
// with TDErrWriteProt. Packet devices are assumed protected when the probe
// fails.
func (d *Device) writeProtected(u *unit.Unit) bool {
	m, err := d.bus.Media(u)
	if err != nil {
		log.Warnf("Device: %s: media probe failed: %v", u, err)
		return u.ATAPI
	}
	return m.WriteProtected
}

// transfer runs a native block command. Offset and Length are byte values
// and must be whole blocks of the current medium.
func (d *Device) transfer(r *Request, u *unit.Unit, dir ata.Direction) ata.Errno {
	buf, ok := r.Data.([]byte)
	if !ok || buf == nil {
		return ata.IOErrBadAddress
	}
	st := u.Snapshot()
	if !st.GeometryValid() {
		return ata.TDErrDiskChanged
	}

	g := st.Geometry
	mask := uint64(g.BlockSize) - 1
	if uint64(r.Length)&mask != 0 || uint64(len(buf)) < uint64(r.Length) {
		return ata.IOErrBadLength
	}
	if r.Offset&mask != 0 {
		return ata.IOErrBadAddress
	}
	lba := r.Offset >> g.BlockShift
	count := r.Length >> g.BlockShift
	if !g.Contains(lba, uint64(count)) {
		log.Debugf("Device: %s: %s beyond %d blocks", u, r.String(), g.LogicalSectors)
		return ata.IOErrBadAddress
	}
	if count == 0 {
		return ata.OK
	}

	actual, errno := d.bus.Transfer(buf[:r.Length], lba, count, u, dir)
	r.Actual = actual
	return errno
}
