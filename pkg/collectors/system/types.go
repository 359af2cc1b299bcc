// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package system collects the host-wide figures shown next to the drives:
// CPU, memory and ARC, network, bhyve guests and jails.
package system

import (
	"time"
)

type CoreStats struct {
	ID        int     `json:"id"         yaml:"id"`
	UserPct   float64 `json:"user_pct"   yaml:"user_pct"`
	SystemPct float64 `json:"system_pct" yaml:"system_pct"`
	IdlePct   float64 `json:"idle_pct"   yaml:"idle_pct"`
	TotalPct  float64 `json:"total_pct"  yaml:"total_pct"` // user + system
}

type CPUStats struct {
	Cores []CoreStats `json:"cores" yaml:"cores"`
}

// Aggregate is the mean busy percentage over all cores.
func (c CPUStats) Aggregate() float64 {
	if len(c.Cores) == 0 {
		return 0
	}
	var sum float64
	for _, core := range c.Cores {
		sum += core.TotalPct
	}
	return sum / float64(len(c.Cores))
}

type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"      yaml:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"       yaml:"used_bytes"`
	FreeBytes      uint64  `json:"free_bytes"       yaml:"free_bytes"`
	WiredBytes     uint64  `json:"wired_bytes"      yaml:"wired_bytes"`
	UsedPct        float64 `json:"used_pct"         yaml:"used_pct"`
	SwapTotalBytes uint64  `json:"swap_total_bytes" yaml:"swap_total_bytes"`
	SwapUsedBytes  uint64  `json:"swap_used_bytes"  yaml:"swap_used_bytes"`
	SwapUsedPct    float64 `json:"swap_used_pct"    yaml:"swap_used_pct"`
	ARC            ARCStats `json:"arc"             yaml:"arc"`
}

// ARCStats are the ZFS adaptive replacement cache sizes.
type ARCStats struct {
	TotalBytes        uint64  `json:"total_bytes"        yaml:"total_bytes"`
	MFUBytes          uint64  `json:"mfu_bytes"          yaml:"mfu_bytes"`
	MRUBytes          uint64  `json:"mru_bytes"          yaml:"mru_bytes"`
	AnonBytes         uint64  `json:"anon_bytes"         yaml:"anon_bytes"`
	HeaderBytes       uint64  `json:"header_bytes"       yaml:"header_bytes"`
	OtherBytes        uint64  `json:"other_bytes"        yaml:"other_bytes"`
	CompressedBytes   uint64  `json:"compressed_bytes"   yaml:"compressed_bytes"`
	UncompressedBytes uint64  `json:"uncompressed_bytes" yaml:"uncompressed_bytes"`
	Ratio             float64 `json:"ratio"              yaml:"ratio"` // uncompressed / compressed, 1 when unknown
}

type NetworkStats struct {
	Name             string  `json:"name"                   yaml:"name"`
	RxBytesPerSec    float64 `json:"rx_bytes_per_sec"       yaml:"rx_bytes_per_sec"` // smoothed
	TxBytesPerSec    float64 `json:"tx_bytes_per_sec"       yaml:"tx_bytes_per_sec"`
	RxPacketsPerSec  float64 `json:"rx_packets_per_sec"     yaml:"rx_packets_per_sec"`
	TxPacketsPerSec  float64 `json:"tx_packets_per_sec"     yaml:"tx_packets_per_sec"`
	RxBytesPerSecRaw float64 `json:"rx_bytes_per_sec_raw"   yaml:"rx_bytes_per_sec_raw"` // unsmoothed, for charts
	TxBytesPerSecRaw float64 `json:"tx_bytes_per_sec_raw"   yaml:"tx_bytes_per_sec_raw"`
	IsAggregate      bool    `json:"is_aggregate"           yaml:"is_aggregate"`
	IsMember         bool    `json:"is_member"              yaml:"is_member"`
	Parent           string  `json:"parent,omitempty"       yaml:"parent,omitempty"`
	Errors           uint64  `json:"errors"                 yaml:"errors"`
}

type VMInfo struct {
	Name         string        `json:"name"          yaml:"name"`
	PID          int32         `json:"pid"           yaml:"pid"`
	CPUPct       float64       `json:"cpu_pct"       yaml:"cpu_pct"`
	MemoryBytes  uint64        `json:"memory_bytes"  yaml:"memory_bytes"`
	VirtualBytes uint64        `json:"virtual_bytes" yaml:"virtual_bytes"`
	Runtime      time.Duration `json:"runtime"       yaml:"runtime"`
}

type JailInfo struct {
	JID         int      `json:"jid"                    yaml:"jid"`
	Name        string   `json:"name"                   yaml:"name"`
	Hostname    string   `json:"hostname"               yaml:"hostname"`
	IPAddresses []string `json:"ip_addresses,omitempty" yaml:"ip_addresses,omitempty"`
	Path        string   `json:"path"                   yaml:"path"`
}

type HostInfo struct {
	Hostname      string        `json:"hostname"       yaml:"hostname"`
	OS            string        `json:"os"             yaml:"os"`
	Platform      string        `json:"platform"       yaml:"platform"`
	KernelVersion string        `json:"kernel_version" yaml:"kernel_version"`
	Uptime        time.Duration `json:"uptime"         yaml:"uptime"`
}

// Sample is everything the system collectors produce in one tick.
type Sample struct {
	Host    HostInfo       `json:"host"    yaml:"host"`
	CPU     CPUStats       `json:"cpu"     yaml:"cpu"`
	Memory  MemoryStats    `json:"memory"  yaml:"memory"`
	Network []NetworkStats `json:"network" yaml:"network"`
	VMs     []VMInfo       `json:"vms"     yaml:"vms"`
	Jails   []JailInfo     `json:"jails"   yaml:"jails"`
}

// Clone deep-copies the slices so the copy can be read without locks.
func (s Sample) Clone() Sample {
	c := s
	c.CPU.Cores = append([]CoreStats(nil), s.CPU.Cores...)
	c.Network = append([]NetworkStats(nil), s.Network...)
	c.VMs = append([]VMInfo(nil), s.VMs...)
	c.Jails = make([]JailInfo, len(s.Jails))
	for i, j := range s.Jails {
		j.IPAddresses = append([]string(nil), j.IPAddresses...)
		c.Jails[i] = j
	}
	return c
}
