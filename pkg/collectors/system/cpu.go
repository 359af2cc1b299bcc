// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"

	"github.com/shirou/gopsutil/cpu"
)

// CPUCollector turns cumulative per-core times into percentages.
type CPUCollector struct {
	times func(percpu bool) ([]cpu.TimesStat, error)
	prev  []cpu.TimesStat
}

func NewCPUCollector() *CPUCollector {
	return &CPUCollector{times: cpu.Times}
}

// Collect returns idle cores on the first call.
func (c *CPUCollector) Collect() (CPUStats, error) {
	cur, err := c.times(true)
	if err != nil {
		return CPUStats{}, fmt.Errorf("error reading cpu times: %w", err)
	}

	cores := make([]CoreStats, len(cur))
	for i := range cur {
		cores[i] = CoreStats{ID: i, IdlePct: 100}
		if i < len(c.prev) {
			cores[i] = coreDelta(i, cur[i], c.prev[i])
		}
	}
	c.prev = cur
	return CPUStats{Cores: cores}, nil
}

func coreDelta(id int, cur, prev cpu.TimesStat) CoreStats {
	user := nonNegative(cur.User-prev.User) + nonNegative(cur.Nice-prev.Nice)
	system := nonNegative(cur.System-prev.System) + nonNegative(cur.Irq-prev.Irq) + nonNegative(cur.Softirq-prev.Softirq)
	idle := nonNegative(cur.Idle-prev.Idle) + nonNegative(cur.Iowait-prev.Iowait)
	other := nonNegative(cur.Steal-prev.Steal)

	total := user + system + idle + other
	if total <= 0 {
		return CoreStats{ID: id, IdlePct: 100}
	}
	s := CoreStats{
		ID:        id,
		UserPct:   user / total * 100,
		SystemPct: system / total * 100,
		IdlePct:   idle / total * 100,
	}
	s.TotalPct = s.UserPct + s.SystemPct
	return s
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
