// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package geom

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/disk"
)

type ioCountersSource struct{}

// NewSystemSource reads /proc/diskstats through gopsutil.
func NewSystemSource() (Source, error) {
	if _, err := disk.IOCounters(); err != nil {
		return nil, fmt.Errorf("error reading disk counters: %w", err)
	}
	return ioCountersSource{}, nil
}

func (ioCountersSource) Snapshot() (*Snapshot, error) {
	counters, err := disk.IOCounters()
	taken := time.Now()
	if err != nil {
		return nil, fmt.Errorf("error reading disk counters: %w", err)
	}

	snap := &Snapshot{Taken: taken, Counters: make(map[string]DeviceCounters, len(counters))}
	for name, c := range counters {
		snap.Counters[name] = DeviceCounters{
			ID:          name,
			ReadOps:     c.ReadCount,
			WriteOps:    c.WriteCount,
			ReadBytes:   c.ReadBytes,
			WriteBytes:  c.WriteBytes,
			ReadTime:    time.Duration(c.ReadTime) * time.Millisecond,
			WriteTime:   time.Duration(c.WriteTime) * time.Millisecond,
			BusyTime:    time.Duration(c.IoTime) * time.Millisecond,
			QueueLength: c.IopsInProgress,
		}
	}
	return snap, nil
}

// NewSystemTree resolves kernel block device names through sysfs.
func NewSystemTree() (Tree, error) {
	return NewSysfsTree(defaultSysfsRoot), nil
}
