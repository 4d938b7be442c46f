// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"

	log "github.com/cihub/seelog"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

const lowOffsetMask = 0xffffffff

// Open binds r to the unit addressed by unitNum, whose tens digit is the
// logical unit and must be zero. The first open of a packet device probes
// its medium before returning.
func (d *Device) Open(r *Request, unitNum uint32) ata.Errno {
	r.Error = d.open(r, unitNum)
	return r.Error
}

func (d *Device) open(r *Request, unitNum uint32) ata.Errno {
	u, err := d.units.Lookup(unitNum)
	switch err {
	case nil:
	case unit.ErrBadLUN:
		return ata.TDErrBadUnitNum
	default:
		return ata.IOErrOpenFail
	}
	if !u.Present {
		return ata.TDErrBadUnitNum
	}
	if !d.Running() {
		return ata.IOErrOpenFail
	}

	if u.ATAPI && !u.Opened() {
		d.refresh(u)
	}
	u.MarkOpened()
	r.unit = u
	d.openCount.Add(1)
	log.Debugf("Device: opened %s", u)
	return ata.OK
}

// Close releases a request obtained from Open.
func (d *Device) Close(r *Request) {
	if r.unit == nil {
		return
	}
	r.unit = nil
	d.openCount.Add(-1)
}

// AbortIO is not supported; requests always run to completion.
func (d *Device) AbortIO(r *Request) ata.Errno {
	return ata.IOErrNoCmd
}

// BeginIO starts r. Commands that need no hardware access complete before
// BeginIO returns; everything else has FlagQuick cleared and is answered
// on r.ReplyPort. BeginIO never blocks.
func (d *Device) BeginIO(r *Request) {
	d.metrics.request(r.Command)
	r.Error = ata.OK
	log.Tracef("Device: BeginIO %s", r.String())

	u := r.unit
	switch {
	case !d.Running():
		r.Error = ata.IOErrOpenFail
	case u == nil:
		r.Error = ata.TDErrBadUnitNum
	default:
		d.dispatch(r, u)
		return
	}
	d.complete(r)
}

func (d *Device) dispatch(r *Request, u *unit.Unit) {
	switch r.Command {
	case TDMotor, CmdClear, CmdUpdate:
		r.Actual = 0

	case TDChangeNum:
		r.Actual = u.ChangeCount()

	case TDGetDriveType:
		r.Actual = uint32(u.DeviceType)

	case TDGetGeometry:
		d.geometry(r, u)

	case NSCmdDeviceQuery:
		d.deviceQuery(r)

	case CmdRead, CmdWrite, TDFormat, TDChangeState:
		r.Offset &= lowOffsetMask
		fallthrough
	case TDProtStatus, TDAddChangeInt, TDRemChangeInt, TDEject,
		TDRead64, TDWrite64, TDFormat64,
		NSCmdTDRead64, NSCmdTDWrite64, NSCmdTDFormat64, HDSCSICmd:
		r.Flags &^= FlagQuick
		if !d.enqueue(r) {
			r.Error = ata.IOErrOpenFail
			d.reply(r)
		}
		return

	default:
		log.Warnf("Device: unknown command %s", r.Command)
		r.Error = ata.IOErrNoCmd
		r.Actual = 0
	}
	d.complete(r)
}

func (d *Device) geometry(r *Request, u *unit.Unit) {
	g, ok := r.Data.(*Geometry)
	if !ok || g == nil {
		r.Error = ata.IOErrBadAddress
		return
	}
	st := u.Snapshot()
	if st.ATAPI && !st.MediaPresent {
		r.Error = ata.TDErrDiskChanged
		return
	}

	*g = Geometry{
		SectorSize:   st.Geometry.BlockSize,
		TotalSectors: uint32(st.Geometry.LogicalSectors),
		Cylinders:    st.Geometry.Cylinders,
		CylSectors:   st.Geometry.Heads * st.Geometry.SectorsPerTrack,
		Heads:        st.Geometry.Heads,
		TrackSectors: st.Geometry.SectorsPerTrack,
		BufMemType:   MemTypePublic,
		DeviceType:   uint8(u.DeviceType),
	}
	if st.ATAPI {
		g.Flags = GeometryRemovable
	}
	r.Actual = GeometrySize
}

func (d *Device) deviceQuery(r *Request) {
	q, ok := r.Data.(*QueryResult)
	if !ok || q == nil || r.Length < QueryResultSize {
		r.Error = ata.IOErrBadLength
		return
	}
	*q = QueryResult{
		SizeAvailable:     QueryResultSize,
		DeviceType:        NSDeviceTypeTrackdisk,
		SupportedCommands: SupportedCommands,
	}
	r.Actual = QueryResultSize
}

// enqueue hands r to the I/O task. It reports false, without queueing,
// when the task no longer accepts requests.
func (d *Device) enqueue(r *Request) bool {
	d.mu.Lock()
	if d.state != stateRunning {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, r)
	d.metrics.queueDepth.Set(float64(len(d.queue)))
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
	return true
}

// complete finishes a request that never reached the I/O task.
func (d *Device) complete(r *Request) {
	if r.Flags&FlagQuick != 0 {
		d.metrics.completed(r.Command, r.Error)
		return
	}
	d.reply(r)
}

// reply hands r back to its sender. r must not be touched afterwards.
func (d *Device) reply(r *Request) {
	d.metrics.completed(r.Command, r.Error)
	if r.ReplyPort != nil {
		r.ReplyPort.put(r)
	}
}

// SendIO starts r asynchronously; the answer arrives on r.ReplyPort.
func (d *Device) SendIO(r *Request) {
	r.Flags &^= FlagQuick
	d.BeginIO(r)
}

// DoIO runs r and waits for it to complete or for ctx to be done. The
// returned error is r.Error, or ctx.Err() when the wait was abandoned.
func (d *Device) DoIO(ctx context.Context, r *Request) error {
	port := NewReplyPort()
	r.ReplyPort = port
	r.Flags |= FlagQuick
	d.BeginIO(r)
	if r.Flags&FlagQuick != 0 {
		return r.Error.Err()
	}
	if _, err := port.Wait(ctx); err != nil {
		return err
	}
	return r.Error.Err()
}
