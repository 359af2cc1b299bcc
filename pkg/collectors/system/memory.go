// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/mem"
)

type MemoryCollector struct {
	virtual func() (*mem.VirtualMemoryStat, error)
	swap    func() (*mem.SwapMemoryStat, error)
	arc     func() (ARCStats, error)
}

func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		virtual: mem.VirtualMemory,
		swap:    mem.SwapMemory,
		arc:     readARCStats,
	}
}

// Collect reads RAM and swap usage. Missing ARC statistics are not an
// error; the ratio then stays at 1.
func (c *MemoryCollector) Collect() (MemoryStats, error) {
	vm, err := c.virtual()
	if err != nil {
		return MemoryStats{}, fmt.Errorf("error reading virtual memory: %w", err)
	}

	stats := MemoryStats{
		TotalBytes: vm.Total,
		UsedBytes:  vm.Total - vm.Free,
		FreeBytes:  vm.Free,
		WiredBytes: vm.Wired,
	}
	if vm.Free > vm.Total {
		stats.UsedBytes = 0
	}
	if stats.TotalBytes > 0 {
		stats.UsedPct = float64(stats.UsedBytes) / float64(stats.TotalBytes) * 100
	}

	if sw, err := c.swap(); err == nil {
		stats.SwapTotalBytes = sw.Total
		stats.SwapUsedBytes = sw.Used
		if sw.Total > 0 {
			stats.SwapUsedPct = float64(sw.Used) / float64(sw.Total) * 100
		}
	}

	stats.ARC = ARCStats{Ratio: 1}
	if arc, err := c.arc(); err == nil {
		stats.ARC = arc
	}
	return stats, nil
}

func finishARC(arc ARCStats) ARCStats {
	arc.Ratio = 1
	if arc.CompressedBytes > 0 {
		arc.Ratio = float64(arc.UncompressedBytes) / float64(arc.CompressedBytes)
	}
	return arc
}

// parseKstatARC reads the OpenZFS kstat text format used by
// /proc/spl/kstat/zfs/arcstats: "name type data" rows after two header lines.
func parseKstatARC(text string) ARCStats {
	values := make(map[string]uint64)
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		v, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			continue
		}
		values[fields[0]] = v
	}
	return finishARC(ARCStats{
		TotalBytes:        values["size"],
		MFUBytes:          values["mfu_size"],
		MRUBytes:          values["mru_size"],
		AnonBytes:         values["anon_size"],
		HeaderBytes:       values["hdr_size"],
		OtherBytes:        values["other_size"],
		CompressedBytes:   values["compressed_size"],
		UncompressedBytes: values["uncompressed_size"],
	})
}
