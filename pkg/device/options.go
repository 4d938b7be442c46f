// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultChangeInterval is how often removable units are probed for media
// changes.
const DefaultChangeInterval = 2 * time.Second

type Option func(d *Device)

// WithChangeInterval sets the media change polling interval. Zero disables
// the poller; changes are then only seen through TD_CHANGESTATE, TD_EJECT
// and first open.
func WithChangeInterval(i time.Duration) Option {
	return func(d *Device) {
		d.changeInterval = i
	}
}

// WithRegisterer registers the device metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(d *Device) {
		d.registerer = r
	}
}
