// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package geom

import (
	"time"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

const bytesPerMB = 1024 * 1024

func saturatingSub(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func saturatingSubDuration(cur, prev time.Duration) time.Duration {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// computeStatistics derives rates between two counter samples of the same
// device. elapsed must be positive.
func computeStatistics(cur, prev DeviceCounters, elapsed time.Duration, at time.Time) device.DiskStatistics {
	etime := elapsed.Seconds()

	readOps := saturatingSub(cur.ReadOps, prev.ReadOps)
	writeOps := saturatingSub(cur.WriteOps, prev.WriteOps)
	readBytes := saturatingSub(cur.ReadBytes, prev.ReadBytes)
	writeBytes := saturatingSub(cur.WriteBytes, prev.WriteBytes)
	readTime := saturatingSubDuration(cur.ReadTime, prev.ReadTime)
	writeTime := saturatingSubDuration(cur.WriteTime, prev.WriteTime)
	busyTime := saturatingSubDuration(cur.BusyTime, prev.BusyTime)

	stats := device.DiskStatistics{
		ReadIOPS:   float64(readOps) / etime,
		WriteIOPS:  float64(writeOps) / etime,
		ReadMBps:   float64(readBytes) / bytesPerMB / etime,
		WriteMBps:  float64(writeBytes) / bytesPerMB / etime,
		QueueDepth: float64(cur.QueueLength),
		BusyPct:    clampPct(busyTime.Seconds() / etime * 100),
		Timestamp:  at,
	}
	if readOps > 0 {
		stats.ReadLatencyMs = msPerOp(readTime, readOps)
	}
	if writeOps > 0 {
		stats.WriteLatencyMs = msPerOp(writeTime, writeOps)
	}
	return stats
}

func msPerOp(total time.Duration, ops uint64) float64 {
	return float64(total) / float64(time.Millisecond) / float64(ops)
}

func clampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
