// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"time"

	"github.com/cobaltcore-dev/sanview/pkg/collectors/system"
	"github.com/cobaltcore-dev/sanview/pkg/device"
)

// Snapshot is a read-only copy of AppState handed to display sinks. History
// slices are ordered oldest first.
type Snapshot struct {
	Multipath  []device.MultipathDevice         `json:"multipath"          yaml:"multipath"`
	Standalone []device.PhysicalDisk            `json:"standalone"         yaml:"standalone"`
	Smoothed   map[string]device.DiskStatistics `json:"smoothed"           yaml:"smoothed"`
	Degraded   []string                         `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	System     system.Sample                    `json:"system"             yaml:"system"`
	Updated    time.Time                        `json:"updated"            yaml:"updated"`
	Ticks      uint64                           `json:"ticks"              yaml:"ticks"`
	Width      int                              `json:"-"                  yaml:"-"`
	Capacity   int                              `json:"-"                  yaml:"-"`

	Storage      map[string][]float64 `json:"-" yaml:"-"`
	DriveBusy    map[string][]float64 `json:"-" yaml:"-"`
	CPUCores     [][]float64          `json:"-" yaml:"-"`
	CPUAggregate []float64            `json:"-" yaml:"-"`
	Memory       []float64            `json:"-" yaml:"-"`
	ARCSize      []float64            `json:"-" yaml:"-"`
	ARCRatio     []float64            `json:"-" yaml:"-"`
	Network      map[string][]float64 `json:"-" yaml:"-"`
}

// Aggregate is the newest storage aggregate of the snapshot.
func (s Snapshot) Aggregate() device.DiskStatistics {
	return Aggregate(s.Multipath)
}

// SmoothedFor returns the smoothed statistics of a device, falling back to
// the raw ones.
func (s Snapshot) SmoothedFor(name string, raw device.DiskStatistics) device.DiskStatistics {
	if st, ok := s.Smoothed[name]; ok {
		return st
	}
	return raw
}
