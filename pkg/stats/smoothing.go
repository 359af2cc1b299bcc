// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"github.com/cobaltcore-dev/sanview/pkg/device"
)

// DefaultAlpha weights a new sample at 30% against 70% history.
const DefaultAlpha = 0.3

// Smooth is one exponential moving average step.
func Smooth(current, previous, alpha float64) float64 {
	return alpha*current + (1-alpha)*previous
}

// Processor smooths rate-like statistics between ticks.
type Processor struct {
	Alpha float64
}

func NewProcessor() Processor {
	return Processor{Alpha: DefaultAlpha}
}

func (p Processor) alpha() float64 {
	if p.Alpha <= 0 || p.Alpha > 1 {
		return DefaultAlpha
	}
	return p.Alpha
}

// SmoothStatistics blends every rate of cur into prev. The timestamp of cur
// is kept.
func (p Processor) SmoothStatistics(cur, prev device.DiskStatistics) device.DiskStatistics {
	a := p.alpha()
	return device.DiskStatistics{
		ReadIOPS:       Smooth(cur.ReadIOPS, prev.ReadIOPS, a),
		WriteIOPS:      Smooth(cur.WriteIOPS, prev.WriteIOPS, a),
		ReadMBps:       Smooth(cur.ReadMBps, prev.ReadMBps, a),
		WriteMBps:      Smooth(cur.WriteMBps, prev.WriteMBps, a),
		ReadLatencyMs:  Smooth(cur.ReadLatencyMs, prev.ReadLatencyMs, a),
		WriteLatencyMs: Smooth(cur.WriteLatencyMs, prev.WriteLatencyMs, a),
		QueueDepth:     Smooth(cur.QueueDepth, prev.QueueDepth, a),
		BusyPct:        Smooth(cur.BusyPct, prev.BusyPct, a),
		Timestamp:      cur.Timestamp,
	}
}

// Value smooths a single metric with the processor's alpha.
func (p Processor) Value(current, previous float64) float64 {
	return Smooth(current, previous, p.alpha())
}
