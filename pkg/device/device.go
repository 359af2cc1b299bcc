// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"time"
)

// DiskStatistics holds the per-device rates derived from two counter snapshots.
type DiskStatistics struct {
	ReadIOPS       float64   `json:"read_iops"        yaml:"read_iops"`
	WriteIOPS      float64   `json:"write_iops"       yaml:"write_iops"`
	ReadMBps       float64   `json:"read_mbps"        yaml:"read_mbps"`
	WriteMBps      float64   `json:"write_mbps"       yaml:"write_mbps"`
	ReadLatencyMs  float64   `json:"read_latency_ms"  yaml:"read_latency_ms"`
	WriteLatencyMs float64   `json:"write_latency_ms" yaml:"write_latency_ms"`
	QueueDepth     float64   `json:"queue_depth"      yaml:"queue_depth"`
	BusyPct        float64   `json:"busy_pct"         yaml:"busy_pct"`
	Timestamp      time.Time `json:"timestamp"        yaml:"timestamp"` // Capture instant, zero when no sample backs the value
}

func (s DiskStatistics) TotalIOPS() float64 {
	return s.ReadIOPS + s.WriteIOPS
}

func (s DiskStatistics) TotalMBps() float64 {
	return s.ReadMBps + s.WriteMBps
}

// PhysicalDisk is a low-level device as seen by the kernel. It is rebuilt on
// every tick and never mutated once handed to the correlator output.
type PhysicalDisk struct {
	Name            string         `json:"name"                       yaml:"name"`
	Rank            int            `json:"rank,omitempty"             yaml:"rank,omitempty"`             // 1 = physical, >1 = derived, 0 = unknown
	Ident           string         `json:"ident,omitempty"            yaml:"ident,omitempty"`            // Serial/WWN, empty when unknown
	MultipathParent string         `json:"multipath_parent,omitempty" yaml:"multipath_parent,omitempty"` // e.g. "multipath/2MVULJ1A"
	Slot            *int           `json:"slot,omitempty"             yaml:"slot,omitempty"`
	Enclosure       string         `json:"enclosure,omitempty"        yaml:"enclosure,omitempty"` // e.g. "ses0"
	Statistics      DiskStatistics `json:"statistics"                 yaml:"statistics"`
	PathState       PathState      `json:"path_state"                 yaml:"path_state"`
}

// PathInfo is one member of a multipath group as reported by the listing.
type PathInfo struct {
	DeviceName string `json:"device_name" yaml:"device_name"`
	IsActive   bool   `json:"is_active"   yaml:"is_active"`
}

// MultipathInfo is the discovered layout of one redundant group.
type MultipathInfo struct {
	Name   string         `json:"name"   yaml:"name"`   // "multipath/<label>"
	Serial string         `json:"serial" yaml:"serial"` // label, doubles as the disk identity
	State  MultipathState `json:"state"  yaml:"state"`
	Paths  []PathInfo     `json:"paths"  yaml:"paths"`
}

// PoolDriveInfo describes where a device sits inside a storage pool.
type PoolDriveInfo struct {
	Pool  string   `json:"pool"  yaml:"pool"`
	Vdev  string   `json:"vdev"  yaml:"vdev"` // raidz2-0, mirror-1, empty for top-level devices
	Role  PoolRole `json:"role"  yaml:"role"`
	State string   `json:"state" yaml:"state"` // ONLINE, DEGRADED, ... as reported
}

// SlotInfo maps a device to its enclosure bay.
type SlotInfo struct {
	Slot       int    `json:"slot"        yaml:"slot"`
	DeviceName string `json:"device_name" yaml:"device_name"`
	Enclosure  string `json:"enclosure"   yaml:"enclosure"`
}

// PathStats are the statistics of one path of a multipath device.
type PathStats struct {
	DeviceName string         `json:"device_name" yaml:"device_name"`
	Controller int            `json:"controller"  yaml:"controller"` // position in the declared path list
	IsActive   bool           `json:"is_active"   yaml:"is_active"`
	Statistics DiskStatistics `json:"statistics"  yaml:"statistics"`
}

// MultipathDevice is the display-facing, fully correlated view of a redundant group.
type MultipathDevice struct {
	Name       string         `json:"name"                  yaml:"name"`
	Ident      string         `json:"ident,omitempty"       yaml:"ident,omitempty"`
	State      MultipathState `json:"state"                 yaml:"state"`
	Paths      []string       `json:"paths"                 yaml:"paths"`
	ActivePath string         `json:"active_path,omitempty" yaml:"active_path,omitempty"`
	Statistics DiskStatistics `json:"statistics"            yaml:"statistics"`
	PathStats  []PathStats    `json:"path_stats,omitempty"  yaml:"path_stats,omitempty"`
	Members    []PhysicalDisk `json:"members,omitempty"     yaml:"members,omitempty"`
	Pool       *PoolDriveInfo `json:"pool,omitempty"        yaml:"pool,omitempty"`
	Slot       *int           `json:"slot,omitempty"        yaml:"slot,omitempty"`
}

// Clone returns a deep copy so that readers never share slices with the writer.
func (d MultipathDevice) Clone() MultipathDevice {
	c := d
	c.Paths = append([]string(nil), d.Paths...)
	c.PathStats = append([]PathStats(nil), d.PathStats...)
	if d.Members != nil {
		c.Members = make([]PhysicalDisk, len(d.Members))
		for i, m := range d.Members {
			c.Members[i] = m.Clone()
		}
	}
	if d.Pool != nil {
		p := *d.Pool
		c.Pool = &p
	}
	if d.Slot != nil {
		s := *d.Slot
		c.Slot = &s
	}
	return c
}

func (d PhysicalDisk) Clone() PhysicalDisk {
	c := d
	if d.Slot != nil {
		s := *d.Slot
		c.Slot = &s
	}
	return c
}

// IntPtr is a small helper for the optional slot fields.
func IntPtr(v int) *int {
	return &v
}
