// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package geom

import (
	"fmt"
	"time"

	"github.com/lufia/iostat"
)

type iokitSource struct{}

// NewSystemSource reads IOKit drive statistics.
func NewSystemSource() (Source, error) {
	if _, err := iostat.ReadDriveStats(); err != nil {
		return nil, fmt.Errorf("error reading drive stats: %w", err)
	}
	return iokitSource{}, nil
}

func (iokitSource) Snapshot() (*Snapshot, error) {
	drives, err := iostat.ReadDriveStats()
	taken := time.Now()
	if err != nil {
		return nil, fmt.Errorf("error reading drive stats: %w", err)
	}

	snap := &Snapshot{Taken: taken, Counters: make(map[string]DeviceCounters, len(drives))}
	for _, d := range drives {
		snap.Counters[d.Name] = DeviceCounters{
			ID:         d.Name,
			ReadOps:    uint64(d.NumRead),
			WriteOps:   uint64(d.NumWrite),
			ReadBytes:  uint64(d.BytesRead),
			WriteBytes: uint64(d.BytesWritten),
			ReadTime:   d.TotalReadTime,
			WriteTime:  d.TotalWriteTime,
			BusyTime:   d.TotalReadTime + d.TotalWriteTime,
		}
	}
	return snap, nil
}

// NewSystemTree reports every IOKit drive as a whole disk.
func NewSystemTree() (Tree, error) {
	return flatTree{}, nil
}

type flatTree struct{}

func (flatTree) Lookup(id string) (Ident, bool) {
	return Ident{Name: id, Rank: 1}, id != ""
}

func (flatTree) Refresh() error { return nil }
