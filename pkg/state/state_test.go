// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/sanview/pkg/collectors/system"
	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/stats"
)

func TestHistoryFIFO(t *testing.T) {
	h := NewHistory(3)
	assert.Equal(t, []float64{0, 0, 0}, h.Values())

	for _, v := range []float64{1, 2, 3, 4} {
		h.Push(v)
	}
	assert.Equal(t, []float64{2, 3, 4}, h.Values())
	assert.Equal(t, 4.0, h.Last())
	assert.Equal(t, 3, h.Len())
}

func TestHistoryResize(t *testing.T) {
	h := NewHistory(4)
	for _, v := range []float64{1, 2, 3, 4} {
		h.Push(v)
	}
	h.Resize(2)
	assert.Equal(t, []float64{3, 4}, h.Values())
	h.Resize(4)
	assert.Equal(t, []float64{0, 0, 3, 4}, h.Values())
	h.Push(5)
	assert.Equal(t, []float64{0, 3, 4, 5}, h.Values())
	assert.Equal(t, 4, h.Cap())
}

func TestHistoryValuesIsCopy(t *testing.T) {
	h := NewHistory(2)
	v := h.Values()
	v[0] = 42
	assert.Equal(t, []float64{0, 0}, h.Values())
}

func TestHistoryCapacity(t *testing.T) {
	assert.Equal(t, 60, HistoryCapacity(0))
	assert.Equal(t, 60, HistoryCapacity(30))
	assert.Equal(t, 160, HistoryCapacity(80))
}

func mp(name string, st device.DiskStatistics) device.MultipathDevice {
	return device.MultipathDevice{Name: name, Statistics: st}
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]device.MultipathDevice{
		mp("multipath/A", device.DiskStatistics{ReadIOPS: 100, WriteIOPS: 10, ReadMBps: 4, WriteMBps: 1, ReadLatencyMs: 2, WriteLatencyMs: 8, QueueDepth: 2, BusyPct: 60}),
		mp("multipath/B", device.DiskStatistics{ReadIOPS: 50, WriteIOPS: 0.05, ReadLatencyMs: 4, WriteLatencyMs: 100, QueueDepth: 1, BusyPct: 20}),
	})
	assert.InDelta(t, 150.0, agg.ReadIOPS, 1e-9)
	assert.InDelta(t, 10.05, agg.WriteIOPS, 1e-9)
	assert.InDelta(t, 4.0, agg.ReadMBps, 1e-9)
	assert.InDelta(t, 3.0, agg.ReadLatencyMs, 1e-9)
	assert.InDelta(t, 8.0, agg.WriteLatencyMs, 1e-9, "idle writers are excluded")
	assert.InDelta(t, 3.0, agg.QueueDepth, 1e-9)
	assert.InDelta(t, 40.0, agg.BusyPct, 1e-9)

	assert.Equal(t, device.DiskStatistics{}, Aggregate(nil))
}

func TestSetWidthPrefillsAndResizes(t *testing.T) {
	s := NewAppState(stats.NewProcessor())
	s.SetWidth(50)
	snap := s.Snapshot()
	require.Len(t, snap.Storage, len(StorageSeries))
	for _, name := range StorageSeries {
		assert.Len(t, snap.Storage[name], 100, name)
	}
	assert.Len(t, snap.CPUAggregate, 100)
	assert.Len(t, snap.Memory, 100)

	s.UpdateTopology(Topology{Multipath: []device.MultipathDevice{mp("multipath/A", device.DiskStatistics{BusyPct: 10})}})
	assert.Len(t, s.Snapshot().DriveBusy["multipath/A"], 100)

	s.SetWidth(10)
	snap = s.Snapshot()
	assert.Equal(t, 60, snap.Capacity)
	assert.Len(t, snap.Storage[SeriesBusy], 60)
	assert.Len(t, snap.DriveBusy["multipath/A"], 60)
	assert.Equal(t, 10.0, snap.DriveBusy["multipath/A"][59])
}

func TestUpdateTopologyPrunesAndSmooths(t *testing.T) {
	s := NewAppState(stats.Processor{Alpha: 0.5})
	s.SetWidth(0)

	s.UpdateTopology(Topology{
		Multipath: []device.MultipathDevice{
			mp("multipath/A", device.DiskStatistics{ReadIOPS: 100, BusyPct: 50}),
			mp("multipath/B", device.DiskStatistics{BusyPct: 5}),
		},
		Standalone: []device.PhysicalDisk{{Name: "nda0", Statistics: device.DiskStatistics{WriteIOPS: 8}}},
	})
	snap := s.Snapshot()
	assert.Equal(t, 100.0, snap.Smoothed["multipath/A"].ReadIOPS, "first sample is taken as is")
	assert.Equal(t, 8.0, snap.Smoothed["nda0"].WriteIOPS)
	assert.Len(t, snap.DriveBusy, 2)

	s.UpdateTopology(Topology{
		Multipath: []device.MultipathDevice{mp("multipath/A", device.DiskStatistics{ReadIOPS: 0, BusyPct: 10})},
		Degraded:  []string{"ses"},
	})
	snap = s.Snapshot()
	assert.Equal(t, 50.0, snap.Smoothed["multipath/A"].ReadIOPS)
	assert.NotContains(t, snap.Smoothed, "nda0")
	assert.NotContains(t, snap.DriveBusy, "multipath/B")
	busy := snap.DriveBusy["multipath/A"]
	assert.Equal(t, []float64{50, 10}, busy[len(busy)-2:])
	assert.Equal(t, []string{"ses"}, snap.Degraded)
	assert.Equal(t, uint64(2), snap.Ticks)

	agg := snap.Storage[SeriesBusy]
	assert.Equal(t, []float64{27.5, 10}, agg[len(agg)-2:])
}

func TestUpdateSystem(t *testing.T) {
	s := NewAppState(stats.NewProcessor())
	s.SetWidth(0)

	sample := system.Sample{
		CPU:     system.CPUStats{Cores: []system.CoreStats{{TotalPct: 20}, {TotalPct: 40}}},
		Memory:  system.MemoryStats{UsedPct: 55, ARC: system.ARCStats{TotalBytes: 2 << 30, Ratio: 1.5}},
		Network: []system.NetworkStats{{Name: "ix0", RxBytesPerSecRaw: 100, TxBytesPerSecRaw: 50}, {Name: "ix1"}},
	}
	s.UpdateSystem(sample)
	snap := s.Snapshot()
	require.Len(t, snap.CPUCores, 2)
	assert.Equal(t, 40.0, snap.CPUCores[1][59])
	assert.Equal(t, 30.0, snap.CPUAggregate[59])
	assert.Equal(t, 55.0, snap.Memory[59])
	assert.Equal(t, 2.0, snap.ARCSize[59])
	assert.Equal(t, 1.5, snap.ARCRatio[59])
	assert.Equal(t, 150.0, snap.Network["ix0"][59])

	sample.CPU.Cores = []system.CoreStats{{TotalPct: 90}}
	sample.Network = sample.Network[:1]
	s.UpdateSystem(sample)
	snap = s.Snapshot()
	require.Len(t, snap.CPUCores, 1, "core buffers follow the core count")
	assert.Equal(t, 0.0, snap.CPUCores[0][58])
	assert.NotContains(t, snap.Network, "ix1")
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewAppState(stats.NewProcessor())
	slot := 3
	s.UpdateTopology(Topology{Multipath: []device.MultipathDevice{{Name: "multipath/A", Paths: []string{"da0"}, Slot: &slot}}})

	snap := s.Snapshot()
	snap.Multipath[0].Paths[0] = "mutated"
	*snap.Multipath[0].Slot = 99
	snap.Storage[SeriesBusy][0] = 42

	again := s.Snapshot()
	assert.Equal(t, "da0", again.Multipath[0].Paths[0])
	assert.Equal(t, 3, *again.Multipath[0].Slot)
	assert.Equal(t, 0.0, again.Storage[SeriesBusy][0])
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(stats.NewProcessor())
	store.SetWidth(40)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			sample := system.Sample{CPU: system.CPUStats{Cores: []system.CoreStats{{TotalPct: float64(i)}}}}
			store.Update(Topology{
				Multipath: []device.MultipathDevice{mp("multipath/A", device.DiskStatistics{BusyPct: float64(i % 100)})},
				Taken:     time.Now(),
			}, &sample)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := store.Snapshot()
			assert.Len(t, snap.Storage[SeriesBusy], 80)
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(200), store.Snapshot().Ticks)
	assert.False(t, store.ShouldQuit())
	store.Quit()
	assert.True(t, store.ShouldQuit())
}
