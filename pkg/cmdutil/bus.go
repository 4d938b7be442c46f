// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdutil

import (
	"fmt"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/logger"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

// NoMedium as a --cdrom value attaches a CD-ROM drive with an empty tray.
const NoMedium = "-"

// BusEmbed selects the hardware the driver runs on: image files or SCSI
// generic devices. Units are assigned in order, disks first.
type BusEmbed struct {
	Disk     []string `optional:"" short:"d" env:"ATADEV_DISK" help:"Disk image attached as a direct access unit"`
	CDROM    []string `optional:"" name:"cdrom" env:"ATADEV_CDROM" help:"CD-ROM image attached as a packet unit ('-' for an empty drive)"`
	SG       []string `optional:"" name:"sg" env:"ATADEV_SG" help:"Block device driven through SG_IO (e.g. /dev/sda)"`
	ReadOnly bool     `optional:"" help:"Attach disk images read-only"`
}

// Open builds the bus described by the flags.
func (b *BusEmbed) Open() (ata.Bus, error) {
	images := len(b.Disk) + len(b.CDROM)
	switch {
	case images > 0 && len(b.SG) > 0:
		return nil, fmt.Errorf("image units and --sg devices cannot be mixed")
	case images == 0 && len(b.SG) == 0:
		return nil, fmt.Errorf("no units given, use --disk, --cdrom or --sg")
	case images > unit.MaxUnits || len(b.SG) > unit.MaxUnits:
		return nil, fmt.Errorf("at most %d units are supported", unit.MaxUnits)
	}

	if len(b.SG) > 0 {
		bus, err := ata.OpenDriveBus(b.SG)
		if err != nil {
			return nil, fmt.Errorf("ata.OpenDriveBus() failed: %v", err)
		}
		return bus, nil
	}

	bus := ata.NewImageBus((images + 1) / 2)
	n := 0
	for _, p := range b.Disk {
		if err := bus.Attach(n, ata.ImageConfig{Path: p, ReadOnly: b.ReadOnly}); err != nil {
			bus.Close()
			return nil, fmt.Errorf("attach disk %s as unit %d: %v", p, n, err)
		}
		n++
	}
	for _, p := range b.CDROM {
		cfg := ata.ImageConfig{ATAPI: true}
		if p != NoMedium {
			cfg.Path = p
		}
		if err := bus.Attach(n, cfg); err != nil {
			bus.Close()
			return nil, fmt.Errorf("attach CD-ROM %s as unit %d: %v", p, n, err)
		}
		n++
	}
	return bus, nil
}

// LogEmbed configures logging.
type LogEmbed struct {
	LogLevel string `optional:"" default:"warn" enum:"trace,debug,info,warn,error,crit,none" help:"Log level"`
	LogFile  string `optional:"" type:"path" help:"Write logs to a rolling file instead of stderr"`
}

func (l *LogEmbed) Setup() error {
	return logger.Setup(l.LogLevel, l.LogFile)
}
