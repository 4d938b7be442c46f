// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"time"

	log "github.com/cihub/seelog"

	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// watchChanges polls every present packet device for media changes until
// ctx is done.
func (d *Device) watchChanges(ctx context.Context) {
	defer close(d.changeDone)
	ticker := time.NewTicker(d.changeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Device: change poller stopped")
			return
		case <-ticker.C:
			d.pollOnce()
		}
	}
}

func (d *Device) pollOnce() {
	for _, u := range d.units.Present() {
		if u.ATAPI {
			d.refresh(u)
		}
	}
}

// refresh probes the medium of u and reports whether one is present. On a
// transition every registered interrupt is called once, in registration
// order, on the calling goroutine.
func (d *Device) refresh(u *unit.Unit) bool {
	m, err := d.bus.Media(u)
	if err != nil {
		log.Warnf("Device: %s: media probe failed: %v", u, err)
		return u.MediaPresent()
	}
	changed, notify := u.SetMedia(m.Present, m.Geometry)
	if !changed {
		return m.Present
	}

	d.metrics.mediaChange(u)
	if m.Present {
		log.Infof("Device: %s: medium inserted, %d blocks of %d bytes",
			u, m.Geometry.LogicalSectors, m.Geometry.BlockSize)
	} else {
		log.Infof("Device: %s: medium removed", u)
	}
	for _, i := range notify {
		if i.Handler != nil {
			i.Handler(u)
		}
	}
	return m.Present
}
