// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/host"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
)

const (
	minSlowInterval = 2 * time.Second
	vmKey           = "vms"
	jailKey         = "jails"
	hostKey         = "host"
)

// SlowInterval is the cadence of process and jail enumeration for a given
// refresh interval.
func SlowInterval(refresh time.Duration) time.Duration {
	if slow := 8 * refresh; slow > minSlowInterval {
		return slow
	}
	return minSlowInterval
}

type Config struct {
	Refresh      time.Duration
	Alpha        float64
	Runner       collectors.Runner
	Now          func() time.Time
	DisableVMs   bool
	DisableJails bool
}

// Collector bundles the per-tick system collectors. VM, jail and host
// listings are expensive and are served from a go-cache entry between
// refreshes; the last good value is kept when a refresh fails.
type Collector struct {
	cpu     *CPUCollector
	memory  *MemoryCollector
	network *NetworkCollector
	vms     *VMCollector
	jails   *JailCollector
	host    func() (*host.InfoStat, error)

	cfg  Config
	slow *gocache.Cache
	last Sample
}

func NewCollector(cfg Config) *Collector {
	if cfg.Runner == nil {
		cfg.Runner = collectors.ExecRunner{}
	}
	interval := SlowInterval(cfg.Refresh)
	return &Collector{
		cpu:     NewCPUCollector(),
		memory:  NewMemoryCollector(),
		network: NewNetworkCollector(cfg.Runner, NetworkConfig{Alpha: cfg.Alpha, Now: cfg.Now}),
		vms:     NewVMCollector(),
		jails:   NewJailCollector(cfg.Runner),
		host:    host.Info,
		cfg:     cfg,
		slow:    gocache.New(interval, interval),
	}
}

// Collect never fails as a whole; a failing part keeps its previous value
// and is logged.
func (c *Collector) Collect() Sample {
	s := c.last

	if cpu, err := c.cpu.Collect(); err != nil {
		log.Warn().Err(err).Msg("error collecting cpu statistics")
	} else {
		s.CPU = cpu
	}
	if mem, err := c.memory.Collect(); err != nil {
		log.Warn().Err(err).Msg("error collecting memory statistics")
	} else {
		s.Memory = mem
	}
	if ifaces, err := c.network.Collect(); err != nil {
		log.Warn().Err(err).Msg("error collecting network statistics")
	} else {
		s.Network = ifaces
	}

	if h, ok := slowValue(c, hostKey, func() (HostInfo, error) { return readHostInfo(c.host) }); ok {
		s.Host = h
	}
	if !c.cfg.DisableVMs {
		if vms, ok := slowValue(c, vmKey, c.vms.Collect); ok {
			s.VMs = vms
		}
	}
	if !c.cfg.DisableJails {
		if jails, ok := slowValue(c, jailKey, c.jails.Collect); ok {
			s.Jails = jails
		}
	}

	c.last = s
	return s.Clone()
}

// failedFetch marks a slow listing that failed so it is retried only after
// the interval.
type failedFetch struct{}

// slowValue returns the cached value for key, refreshing it through fetch once
// the entry has expired. On failure the caller keeps its previous value.
func slowValue[T any](c *Collector, key string, fetch func() (T, error)) (T, bool) {
	var zero T
	if v, ok := c.slow.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, true
		}
		return zero, false
	}
	v, err := fetch()
	if err != nil {
		log.Debug().Err(err).Str("collector", key).Msg("slow_collector_failed")
		c.slow.Set(key, failedFetch{}, gocache.DefaultExpiration)
		return zero, false
	}
	c.slow.Set(key, v, gocache.DefaultExpiration)
	return v, true
}
