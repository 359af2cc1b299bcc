// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package geom

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

// Collector keeps the previous snapshot and diffs every new one against it.
type Collector struct {
	source   Source
	tree     Tree
	naming   device.Naming
	previous *Snapshot
}

func NewCollector(source Source, tree Tree, naming device.Naming) *Collector {
	return &Collector{
		source: source,
		tree:   tree,
		naming: naming,
	}
}

// Collect takes a new snapshot and returns rates for every tracked device
// present in both the previous and the new snapshot. The first call only
// primes the collector and returns an empty slice.
func (c *Collector) Collect() ([]device.PhysicalDisk, error) {
	current, err := c.source.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("error taking counter snapshot: %w", err)
	}

	prev := c.previous
	if prev == nil {
		log.Debug().Msg("first_snapshot_no_statistics_yet")
		c.previous = current
		return []device.PhysicalDisk{}, nil
	}

	elapsed := current.Taken.Sub(prev.Taken)
	if elapsed <= 0 {
		return []device.PhysicalDisk{}, nil
	}

	disks := c.diff(current, prev, elapsed)
	c.previous = current
	return disks, nil
}

func (c *Collector) diff(current, prev *Snapshot, elapsed time.Duration) []device.PhysicalDisk {
	ids := make([]string, 0, len(current.Counters))
	for id := range current.Counters {
		if _, ok := prev.Counters[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	refreshed := false
	disks := make([]device.PhysicalDisk, 0, len(ids))
	for _, id := range ids {
		ident, ok := c.tree.Lookup(id)
		if !ok && !refreshed {
			refreshed = true
			if err := c.tree.Refresh(); err != nil {
				log.Warn().Err(err).Msg("error refreshing topology tree")
			}
			ident, ok = c.tree.Lookup(id)
		}
		if !ok || ident.Consumer {
			continue
		}
		if !c.keep(ident) {
			continue
		}

		stats := computeStatistics(current.Counters[id], prev.Counters[id], elapsed, current.Taken)
		if stats.TotalIOPS() > 0.1 || stats.BusyPct > 0.1 {
			log.Debug().
				Str("device", ident.Name).
				Int("rank", ident.Rank).
				Float64("iops", stats.TotalIOPS()).
				Float64("mbps", stats.TotalMBps()).
				Float64("busy_pct", stats.BusyPct).
				Msg("device_statistics")
		}

		disks = append(disks, device.PhysicalDisk{
			Name:       ident.Name,
			Rank:       ident.Rank,
			Ident:      ident.Ident,
			Statistics: stats,
			PathState:  device.PathUnknown,
		})
	}
	sort.SliceStable(disks, func(i, j int) bool { return disks[i].Name < disks[j].Name })
	return disks
}

// keep applies the naming convention; multipath providers bypass the rank
// filter, physical names must be rank 1 or unknown.
func (c *Collector) keep(ident Ident) bool {
	if !c.naming.Tracked(ident.Name) {
		return false
	}
	if c.naming.IsMultipath(ident.Name) {
		return true
	}
	return ident.Rank <= 1
}
