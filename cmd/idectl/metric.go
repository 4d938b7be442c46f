// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/open-source-firmware/go-atadev/pkg/device"
)

type metricsCmd struct{}

type metricCollector struct {
	m []prometheus.Metric
}

func (mc *metricCollector) Collect(c chan<- prometheus.Metric) {
	for _, m := range mc.m {
		c <- m
	}
}

func (mc *metricCollector) Describe(c chan<- *prometheus.Desc) {
}

func (t *metricsCmd) Run(ctx *context) error {
	var (
		mUnitInfo = prometheus.NewDesc(
			"atadev_unit_info",
			"Info metric regarding the detected units",
			[]string{"unit", "model", "serial", "firmware", "type"}, nil,
		)
		mMediaPresent = prometheus.NewDesc(
			"atadev_unit_media_present",
			"Boolean describing whether the unit holds a medium",
			[]string{"unit"}, nil,
		)
		mCapacity = prometheus.NewDesc(
			"atadev_unit_capacity_bytes",
			"Size of the medium in the unit",
			[]string{"unit"}, nil,
		)
	)

	mc := &metricCollector{}
	for _, u := range ctx.units() {
		n := uint32(u.Index)
		label := strconv.Itoa(u.Index)

		// Refreshes removable units and feeds the request counters.
		r, err := ctx.command(n, device.TDChangeState, nil, 0, 0)
		if err != nil {
			return err
		}
		present := float64(0)
		if r.Actual == 0 {
			present = 1
		}
		mc.m = append(mc.m, prometheus.MustNewConstMetric(mMediaPresent, prometheus.GaugeValue, present, label))

		g := &device.Geometry{}
		if _, err := ctx.command(n, device.TDGetGeometry, g, 0, 0); err == nil {
			mc.m = append(mc.m, prometheus.MustNewConstMetric(mCapacity, prometheus.GaugeValue,
				float64(g.TotalSectors)*float64(g.SectorSize), label))
		}

		id, err := ctx.bus.Identify(u)
		if err != nil {
			return fmt.Errorf("identify %s: %v", u, err)
		}
		mc.m = append(mc.m, prometheus.MustNewConstMetric(mUnitInfo, prometheus.GaugeValue, 1,
			label, id.Model(), id.Serial(), id.Firmware(), u.DeviceType.String()))
	}
	ctx.reg.MustRegister(mc)
	defer ctx.reg.Unregister(mc)

	mfs, err := ctx.reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return fmt.Errorf("failed to serialize metrics: %v", err)
		}
	}
	return nil
}
