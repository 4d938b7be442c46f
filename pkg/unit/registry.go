// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit

import (
	"errors"
)

const (
	// MaxUnits is the number of unit slots: two channels with a primary and a
	// secondary drive each.
	MaxUnits = 4

	// MaxChannels is the number of channels a registry can describe.
	MaxChannels = MaxUnits / 2

	// Unit numbers encode the LUN in the tens digit.
	lunDivisor = 10
)

var (
	ErrBadUnit = errors.New("unit number out of range")
	ErrBadLUN  = errors.New("logical unit not supported")
)

// Registry is the fixed set of unit slots owned by one driver instance.
type Registry struct {
	units          [MaxUnits]Unit
	shadowDevHeads [MaxChannels]uint8
	channels       int
}

// NewRegistry lays out the slots for the given number of channels (1 or 2).
// Unit i is the primary drive when i is even and sits on channel 0 for i < 2.
func NewRegistry(channels int) *Registry {
	if channels < 1 {
		channels = 1
	}
	if channels > MaxChannels {
		channels = MaxChannels
	}
	r := &Registry{channels: channels}
	for i := range r.units {
		u := &r.units[i]
		u.Index = i
		u.Primary = i%2 == 0
		if i%4 < 2 {
			u.Channel = 0
		} else {
			u.Channel = 1
		}
		u.DeviceType = DirectAccess
		u.ShadowDevHead = &r.shadowDevHeads[i>>1]
		u.changeCount.Store(1)
	}
	return r
}

// Channels returns the number of channels the registry was laid out for.
func (r *Registry) Channels() int {
	return r.channels
}

// Slots returns the unit slots that exist on the configured channels,
// whether or not a drive was detected in them.
func (r *Registry) Slots() []*Unit {
	l := make([]*Unit, 0, 2*r.channels)
	for i := 0; i < 2*r.channels; i++ {
		l = append(l, &r.units[i])
	}
	return l
}

// Unit returns slot n.
func (r *Registry) Unit(n int) (*Unit, error) {
	if n < 0 || n >= 2*r.channels {
		return nil, ErrBadUnit
	}
	return &r.units[n], nil
}

// Lookup decodes a host unit number (LUN in the tens digit) into a slot.
func (r *Registry) Lookup(unitNum uint32) (*Unit, error) {
	if unitNum/lunDivisor != 0 {
		return nil, ErrBadLUN
	}
	return r.Unit(int(unitNum % lunDivisor))
}

// Present returns the units where a drive was detected.
func (r *Registry) Present() []*Unit {
	var l []*Unit
	for _, u := range r.Slots() {
		if u.Present {
			l = append(l, u)
		}
	}
	return l
}
