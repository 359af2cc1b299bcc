// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package state keeps the latest correlated sample together with the bounded
// histories the dashboard charts are drawn from.
package state

import (
	"time"

	"github.com/cobaltcore-dev/sanview/pkg/collectors/system"
	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/stats"
)

const (
	// MinHistory is the smallest history kept regardless of width.
	MinHistory = 60
	// latencyFloorIOPS excludes idle devices from the latency average.
	latencyFloorIOPS = 0.1
	bytesPerGiB      = 1 << 30
)

// HistoryCapacity maps a rendering width to the number of samples kept.
func HistoryCapacity(width int) int {
	if c := width * 2; c > MinHistory {
		return c
	}
	return MinHistory
}

// Storage series names.
const (
	SeriesReadIOPS     = "read_iops"
	SeriesWriteIOPS    = "write_iops"
	SeriesReadMBps     = "read_mbps"
	SeriesWriteMBps    = "write_mbps"
	SeriesReadLatency  = "read_latency_ms"
	SeriesWriteLatency = "write_latency_ms"
	SeriesQueueDepth   = "queue_depth"
	SeriesBusy         = "busy_pct"
)

// StorageSeries lists the aggregate storage series in display order.
var StorageSeries = []string{
	SeriesReadIOPS, SeriesWriteIOPS,
	SeriesReadMBps, SeriesWriteMBps,
	SeriesReadLatency, SeriesWriteLatency,
	SeriesQueueDepth, SeriesBusy,
}

// Topology is the correlator output of one sampling tick.
type Topology struct {
	Multipath  []device.MultipathDevice
	Standalone []device.PhysicalDisk
	Degraded   []string // sources that failed this tick
	Taken      time.Time
}

// AppState is the single structure shared between sampling and rendering.
// It is not safe for concurrent use; Store guards it.
type AppState struct {
	multipath  []device.MultipathDevice
	standalone []device.PhysicalDisk
	smoothed   map[string]device.DiskStatistics
	degraded   []string
	system     system.Sample
	updated    time.Time
	ticks      uint64

	processor stats.Processor
	width     int
	capacity  int
	sized     bool

	storage      map[string]*History
	driveBusy    map[string]*History
	cpuCores     []*History
	cpuAggregate *History
	memory       *History
	arcSize      *History
	arcRatio     *History
	network      map[string]*History
}

func NewAppState(processor stats.Processor) *AppState {
	s := &AppState{
		smoothed:  make(map[string]device.DiskStatistics),
		processor: processor,
		capacity:  MinHistory,
		storage:   make(map[string]*History),
		driveBusy: make(map[string]*History),
		network:   make(map[string]*History),
	}
	s.cpuAggregate = NewHistory(s.capacity)
	s.memory = NewHistory(s.capacity)
	s.arcSize = NewHistory(s.capacity)
	s.arcRatio = NewHistory(s.capacity)
	for _, name := range StorageSeries {
		s.storage[name] = NewHistory(s.capacity)
	}
	return s
}

// SetWidth recomputes the capacity and applies it to every buffer. The first
// call re-creates the storage and CPU aggregate buffers at the new size.
func (s *AppState) SetWidth(width int) {
	if s.sized && width == s.width {
		return
	}
	s.width = width
	s.capacity = HistoryCapacity(width)

	if !s.sized {
		s.sized = true
		for _, name := range StorageSeries {
			s.storage[name] = NewHistory(s.capacity)
		}
		s.cpuAggregate = NewHistory(s.capacity)
	} else {
		for _, h := range s.storage {
			h.Resize(s.capacity)
		}
		s.cpuAggregate.Resize(s.capacity)
	}
	s.memory.Resize(s.capacity)
	s.arcSize.Resize(s.capacity)
	s.arcRatio.Resize(s.capacity)
	for _, h := range s.cpuCores {
		h.Resize(s.capacity)
	}
	for _, h := range s.driveBusy {
		h.Resize(s.capacity)
	}
	for _, h := range s.network {
		h.Resize(s.capacity)
	}
}

// UpdateTopology stores the tick's devices, appends the storage aggregates
// and per-drive busy samples, and prunes drives that disappeared.
func (s *AppState) UpdateTopology(t Topology) {
	s.multipath = t.Multipath
	s.standalone = t.Standalone
	s.degraded = t.Degraded
	s.updated = t.Taken
	s.ticks++

	present := make(map[string]struct{}, len(t.Multipath))
	smoothed := make(map[string]device.DiskStatistics, len(t.Multipath)+len(t.Standalone))
	for _, d := range t.Multipath {
		present[d.Name] = struct{}{}
		smoothed[d.Name] = s.smooth(d.Name, d.Statistics)

		h, ok := s.driveBusy[d.Name]
		if !ok {
			h = NewHistory(s.capacity)
			s.driveBusy[d.Name] = h
		}
		h.Push(d.Statistics.BusyPct)
	}
	for _, d := range t.Standalone {
		smoothed[d.Name] = s.smooth(d.Name, d.Statistics)
	}
	s.smoothed = smoothed

	for name := range s.driveBusy {
		if _, ok := present[name]; !ok {
			delete(s.driveBusy, name)
		}
	}

	agg := Aggregate(t.Multipath)
	s.storage[SeriesReadIOPS].Push(agg.ReadIOPS)
	s.storage[SeriesWriteIOPS].Push(agg.WriteIOPS)
	s.storage[SeriesReadMBps].Push(agg.ReadMBps)
	s.storage[SeriesWriteMBps].Push(agg.WriteMBps)
	s.storage[SeriesReadLatency].Push(agg.ReadLatencyMs)
	s.storage[SeriesWriteLatency].Push(agg.WriteLatencyMs)
	s.storage[SeriesQueueDepth].Push(agg.QueueDepth)
	s.storage[SeriesBusy].Push(agg.BusyPct)
}

func (s *AppState) smooth(name string, cur device.DiskStatistics) device.DiskStatistics {
	prev, ok := s.smoothed[name]
	if !ok {
		return cur
	}
	return s.processor.SmoothStatistics(cur, prev)
}

// UpdateSystem appends the host series. Per-core buffers are rebuilt when the
// core count changes.
func (s *AppState) UpdateSystem(sample system.Sample) {
	s.system = sample

	if len(s.cpuCores) != len(sample.CPU.Cores) {
		s.cpuCores = make([]*History, len(sample.CPU.Cores))
		for i := range s.cpuCores {
			s.cpuCores[i] = NewHistory(s.capacity)
		}
	}
	for i, core := range sample.CPU.Cores {
		s.cpuCores[i].Push(core.TotalPct)
	}
	s.cpuAggregate.Push(sample.CPU.Aggregate())

	s.memory.Push(sample.Memory.UsedPct)
	s.arcSize.Push(float64(sample.Memory.ARC.TotalBytes) / bytesPerGiB)
	s.arcRatio.Push(sample.Memory.ARC.Ratio)

	present := make(map[string]struct{}, len(sample.Network))
	for _, iface := range sample.Network {
		present[iface.Name] = struct{}{}
		h, ok := s.network[iface.Name]
		if !ok {
			h = NewHistory(s.capacity)
			s.network[iface.Name] = h
		}
		h.Push(iface.RxBytesPerSecRaw + iface.TxBytesPerSecRaw)
	}
	for name := range s.network {
		if _, ok := present[name]; !ok {
			delete(s.network, name)
		}
	}
}

// Aggregate sums throughput over the multipath devices, averages latency over
// the devices doing I/O and averages busy over all of them.
func Aggregate(devices []device.MultipathDevice) device.DiskStatistics {
	var agg device.DiskStatistics
	var readLat, writeLat float64
	var readers, writers int
	for _, d := range devices {
		st := d.Statistics
		agg.ReadIOPS += st.ReadIOPS
		agg.WriteIOPS += st.WriteIOPS
		agg.ReadMBps += st.ReadMBps
		agg.WriteMBps += st.WriteMBps
		agg.QueueDepth += st.QueueDepth
		agg.BusyPct += st.BusyPct
		if st.ReadIOPS > latencyFloorIOPS {
			readLat += st.ReadLatencyMs
			readers++
		}
		if st.WriteIOPS > latencyFloorIOPS {
			writeLat += st.WriteLatencyMs
			writers++
		}
		if st.Timestamp.After(agg.Timestamp) {
			agg.Timestamp = st.Timestamp
		}
	}
	if len(devices) > 0 {
		agg.BusyPct /= float64(len(devices))
	}
	if readers > 0 {
		agg.ReadLatencyMs = readLat / float64(readers)
	}
	if writers > 0 {
		agg.WriteLatencyMs = writeLat / float64(writers)
	}
	return agg
}

// Snapshot deep-copies everything a renderer needs.
func (s *AppState) Snapshot() Snapshot {
	snap := Snapshot{
		Multipath:    make([]device.MultipathDevice, len(s.multipath)),
		Standalone:   make([]device.PhysicalDisk, len(s.standalone)),
		Smoothed:     make(map[string]device.DiskStatistics, len(s.smoothed)),
		Degraded:     append([]string(nil), s.degraded...),
		System:       s.system.Clone(),
		Updated:      s.updated,
		Ticks:        s.ticks,
		Width:        s.width,
		Capacity:     s.capacity,
		Storage:      make(map[string][]float64, len(s.storage)),
		DriveBusy:    make(map[string][]float64, len(s.driveBusy)),
		CPUCores:     make([][]float64, len(s.cpuCores)),
		CPUAggregate: s.cpuAggregate.Values(),
		Memory:       s.memory.Values(),
		ARCSize:      s.arcSize.Values(),
		ARCRatio:     s.arcRatio.Values(),
		Network:      make(map[string][]float64, len(s.network)),
	}
	for i, d := range s.multipath {
		snap.Multipath[i] = d.Clone()
	}
	for i, d := range s.standalone {
		snap.Standalone[i] = d.Clone()
	}
	for k, v := range s.smoothed {
		snap.Smoothed[k] = v
	}
	for k, h := range s.storage {
		snap.Storage[k] = h.Values()
	}
	for k, h := range s.driveBusy {
		snap.DriveBusy[k] = h.Values()
	}
	for i, h := range s.cpuCores {
		snap.CPUCores[i] = h.Values()
	}
	for k, h := range s.network {
		snap.Network[k] = h.Values()
	}
	return snap
}
