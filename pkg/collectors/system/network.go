// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/net"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
	"github.com/cobaltcore-dev/sanview/pkg/stats"
)

// LaggRefreshInterval is how often aggregation membership is re-read.
const LaggRefreshInterval = 30 * time.Second

// Interfaces that never carry storage or guest traffic.
var skippedInterfacePrefixes = []string{"lo", "pflog", "enc", "tap", "epair", "bridge", "gif", "stf"}

type NetworkConfig struct {
	Alpha float64
	Now   func() time.Time
}

type ifaceSample struct {
	rxBytes, txBytes     uint64
	rxPackets, txPackets uint64
}

// NetworkCollector derives per-interface throughput from cumulative counters.
type NetworkCollector struct {
	counters  func(pernic bool) ([]net.IOCountersStat, error)
	runner    collectors.Runner
	processor stats.Processor
	now       func() time.Time

	prev     map[string]ifaceSample
	prevAt   time.Time
	smoothed map[string]NetworkStats
	laggs    *collectors.Cached[map[string]string]
}

func NewNetworkCollector(runner collectors.Runner, cfg NetworkConfig) *NetworkCollector {
	if runner == nil {
		runner = collectors.ExecRunner{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &NetworkCollector{
		counters:  net.IOCounters,
		runner:    runner,
		processor: stats.Processor{Alpha: cfg.Alpha},
		now:       now,
		smoothed:  make(map[string]NetworkStats),
		laggs:     collectors.NewCached[map[string]string](LaggRefreshInterval, now),
	}
}

// Collect returns zero rates on the first call and for new interfaces.
func (c *NetworkCollector) Collect() ([]NetworkStats, error) {
	counters, err := c.counters(true)
	if err != nil {
		return nil, fmt.Errorf("error reading network counters: %w", err)
	}
	now := c.now()
	elapsed := now.Sub(c.prevAt).Seconds()
	if c.prevAt.IsZero() {
		elapsed = 0
	}

	members := c.members()
	aggregates := make(map[string]bool)
	for _, parent := range members {
		aggregates[parent] = true
	}

	cur := make(map[string]ifaceSample, len(counters))
	out := make([]NetworkStats, 0, len(counters))
	for _, ctr := range counters {
		if skipInterface(ctr.Name) {
			continue
		}
		sample := ifaceSample{
			rxBytes: ctr.BytesRecv, txBytes: ctr.BytesSent,
			rxPackets: ctr.PacketsRecv, txPackets: ctr.PacketsSent,
		}
		cur[ctr.Name] = sample

		s := NetworkStats{
			Name:        ctr.Name,
			IsAggregate: aggregates[ctr.Name] || strings.HasPrefix(ctr.Name, "lagg"),
			Parent:      members[ctr.Name],
			Errors:      ctr.Errin + ctr.Errout,
		}
		s.IsMember = s.Parent != ""

		prev, seen := c.prev[ctr.Name]
		if seen && elapsed > 0 {
			rate := func(a, b uint64) float64 {
				if a < b {
					return 0
				}
				return float64(a-b) / elapsed
			}
			s.RxBytesPerSecRaw = rate(sample.rxBytes, prev.rxBytes)
			s.TxBytesPerSecRaw = rate(sample.txBytes, prev.txBytes)
			rxPackets := rate(sample.rxPackets, prev.rxPackets)
			txPackets := rate(sample.txPackets, prev.txPackets)

			last := c.smoothed[ctr.Name]
			s.RxBytesPerSec = c.processor.Value(s.RxBytesPerSecRaw, last.RxBytesPerSec)
			s.TxBytesPerSec = c.processor.Value(s.TxBytesPerSecRaw, last.TxBytesPerSec)
			s.RxPacketsPerSec = c.processor.Value(rxPackets, last.RxPacketsPerSec)
			s.TxPacketsPerSec = c.processor.Value(txPackets, last.TxPacketsPerSec)
		}
		out = append(out, s)
	}

	c.prev = cur
	c.prevAt = now
	c.smoothed = make(map[string]NetworkStats, len(out))
	for _, s := range out {
		c.smoothed[s.Name] = s
	}

	sortInterfaces(out)
	return out, nil
}

// members maps each lagg member to its aggregate. Failures keep the previous
// mapping; hosts without ifconfig simply have no aggregates.
func (c *NetworkCollector) members() map[string]string {
	if m, ok := c.laggs.Fresh(); ok {
		return m
	}
	m, err := readLaggMembers(c.runner)
	if err != nil {
		log.Debug().Err(err).Msg("lagg_membership_unavailable")
		last, _ := c.laggs.Last()
		if last == nil {
			last = map[string]string{}
		}
		c.laggs.Set(last)
		return last
	}
	c.laggs.Set(m)
	return m
}

func readLaggMembers(r collectors.Runner) (map[string]string, error) {
	list, err := collectors.RunText(r, "ifconfig", "-l")
	if err != nil {
		return nil, err
	}
	members := make(map[string]string)
	for _, name := range strings.Fields(list) {
		if !strings.HasPrefix(name, "lagg") {
			continue
		}
		out, err := collectors.RunText(r, "ifconfig", name)
		if err != nil {
			log.Warn().Err(err).Str("interface", name).Msg("error reading lagg configuration")
			continue
		}
		for _, member := range parseLaggPorts(out) {
			members[member] = name
		}
	}
	return members, nil
}

// parseLaggPorts extracts the members from "laggport: <name> flags=..." lines.
func parseLaggPorts(out string) []string {
	var ports []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "laggport:")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			ports = append(ports, fields[0])
		}
	}
	return ports
}

func skipInterface(name string) bool {
	for _, p := range skippedInterfacePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// sortInterfaces puts aggregates first, then their members, then the rest,
// each group by name.
func sortInterfaces(ifaces []NetworkStats) {
	rank := func(s NetworkStats) int {
		switch {
		case s.IsAggregate:
			return 0
		case s.IsMember:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(ifaces, func(i, j int) bool {
		ri, rj := rank(ifaces[i]), rank(ifaces[j])
		if ri != rj {
			return ri < rj
		}
		return ifaces[i].Name < ifaces[j].Name
	})
}
