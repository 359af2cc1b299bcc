// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sampler runs the collection loop: counters, path groups, slots and
// pool roles are read in order, correlated and published to the store.
package sampler

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/collectors/system"
	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/state"
	"github.com/cobaltcore-dev/sanview/pkg/topology"
)

// Source names reported in state.Topology.Degraded.
const (
	SourceMultipath = "multipath"
	SourceSlots     = "ses"
	SourcePools     = "zpool"
)

type DiskCollector interface {
	Collect() ([]device.PhysicalDisk, error)
}

type MultipathCollector interface {
	Collect() (map[string]device.MultipathInfo, error)
}

type SlotCollector interface {
	Collect() (map[string]device.SlotInfo, error)
}

type PoolCollector interface {
	Collect() (map[string]device.PoolDriveInfo, error)
}

type SystemCollector interface {
	Collect() system.Sample
}

// Publisher receives each correlated tick.
type Publisher interface {
	Update(t state.Topology, sample *system.Sample)
}

type Sampler struct {
	Disks     DiskCollector
	Multipath MultipathCollector
	Slots     SlotCollector
	Pools     PoolCollector
	System    SystemCollector // optional
	Store     Publisher
	Interval  time.Duration
	Now       func() time.Time
}

// Run ticks until ctx is cancelled. The goroutine is locked to its OS thread
// for the lifetime of the loop and is the only user of the collectors while
// it runs. A tick already in progress is not interrupted.
func (s *Sampler) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.Interval).Msg("sampler_started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sampler_stopped")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.Tick()
		}
	}
}

// Tick performs one collection step. It reports whether the store was
// updated; a failing counter read leaves the previous state visible.
func (s *Sampler) Tick() bool {
	disks, err := s.Disks.Collect()
	if err != nil {
		log.Error().Err(err).Msg("error collecting disk statistics")
		return false
	}

	var degraded []string
	groups, err := s.Multipath.Collect()
	if err != nil {
		log.Warn().Err(err).Msg("error collecting multipath topology")
		groups = map[string]device.MultipathInfo{}
		degraded = append(degraded, SourceMultipath)
	}
	slots, err := s.Slots.Collect()
	if err != nil {
		log.Warn().Err(err).Msg("error collecting enclosure slots")
		slots = map[string]device.SlotInfo{}
		degraded = append(degraded, SourceSlots)
	}
	pools, err := s.Pools.Collect()
	if err != nil {
		log.Warn().Err(err).Msg("error collecting pool roles")
		pools = map[string]device.PoolDriveInfo{}
		degraded = append(degraded, SourcePools)
	}

	multipath, standalone := topology.Correlate(disks, groups, slots, pools)

	var sample *system.Sample
	if s.System != nil {
		v := s.System.Collect()
		sample = &v
	}

	s.Store.Update(state.Topology{
		Multipath:  multipath,
		Standalone: standalone,
		Degraded:   degraded,
		Taken:      s.now(),
	}, sample)

	log.Debug().
		Int("multipath", len(multipath)).
		Int("standalone", len(standalone)).
		Strs("degraded", degraded).
		Msg("tick_published")
	return true
}

func (s *Sampler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
