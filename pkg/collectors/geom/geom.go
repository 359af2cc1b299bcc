// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package geom turns cumulative per-device I/O counters into rates.
//
// A Collector owns a Source and a Tree for its whole life. Neither holds a
// thread-bound kernel handle, but the tree caches are unsynchronized, so a
// Collector must only be used from one goroutine at a time. Handing it to
// another goroutine between calls is fine.
package geom

import (
	"time"
)

// DeviceCounters is one device's cumulative counters at a given instant.
type DeviceCounters struct {
	ID          string        // opaque topology id, resolved through a Tree
	ReadOps     uint64        // completed read transactions
	WriteOps    uint64        // completed write transactions
	ReadBytes   uint64        // bytes read
	WriteBytes  uint64        // bytes written
	ReadTime    time.Duration // total time spent in reads
	WriteTime   time.Duration // total time spent in writes
	BusyTime    time.Duration // total time with at least one transaction outstanding
	QueueLength uint64        // transactions outstanding at capture time
}

// Snapshot is the full set of counters captured at once.
type Snapshot struct {
	Taken    time.Time
	Counters map[string]DeviceCounters
}

// Ident is what the topology tree knows about a counter id.
type Ident struct {
	Name     string
	Rank     int    // 1 for disks, higher for derived providers, 0 when unknown
	Ident    string // serial or WWN, may be empty
	Consumer bool   // true for consumer-side statistics, never reported
}

// Source captures counter snapshots.
type Source interface {
	Snapshot() (*Snapshot, error)
}

// Tree resolves counter ids into device names.
type Tree interface {
	Lookup(id string) (Ident, bool)
	Refresh() error
}
