// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	gocontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/open-source-firmware/go-atadev/pkg/device"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

func (t *watchCmd) Run(ctx *context) error {
	if cli.Poll == 0 {
		return fmt.Errorf("media polling is disabled, set --poll")
	}
	sctx, stop := signal.NotifyContext(gocontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if t.For > 0 {
		var cancel gocontext.CancelFunc
		sctx, cancel = gocontext.WithTimeout(sctx, t.For)
		defer cancel()
	}

	intr := &unit.Interrupt{
		Name: programName,
		Handler: func(u *unit.Unit) {
			state := "removed"
			if u.MediaPresent() {
				state = "inserted"
			}
			fmt.Printf("%s: medium %s (change %d)\n", u, state, u.ChangeCount())
		},
	}

	var watched []uint32
	for _, u := range ctx.units() {
		if !u.ATAPI {
			continue
		}
		n := uint32(u.Index)
		if _, err := ctx.command(n, device.TDAddChangeInt, intr, 0, 0); err != nil {
			return err
		}
		watched = append(watched, n)
	}
	if len(watched) == 0 {
		return fmt.Errorf("no removable units to watch")
	}
	fmt.Printf("Watching %d unit(s), interrupt to stop\n", len(watched))

	<-sctx.Done()
	for _, n := range watched {
		if _, err := ctx.command(n, device.TDRemChangeInt, intr, 0, 0); err != nil {
			return err
		}
	}
	return nil
}
