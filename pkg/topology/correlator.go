// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package topology fuses counters, multipath groups, enclosure slots and
// pool membership into the per-drive view.
package topology

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

// Correlate claims member disks for every multipath group and returns the
// groups ordered by slot together with the remaining standalone disks,
// deduplicated by identity. A group's own provider (for example
// multipath/ABC as reported by the counters) is claimed by that group and
// never reported as standalone. Its counters stand in for the group only
// when no member path is present in the sample.
func Correlate(
	disks []device.PhysicalDisk,
	groups map[string]device.MultipathInfo,
	slots map[string]device.SlotInfo,
	pools map[string]device.PoolDriveInfo,
) ([]device.MultipathDevice, []device.PhysicalDisk) {
	index := make(map[string]int, len(disks))
	working := make([]device.PhysicalDisk, len(disks))
	claimed := make([]bool, len(disks))
	for i, d := range disks {
		d = d.Clone()
		if s, ok := slots[d.Name]; ok {
			d.Slot = device.IntPtr(s.Slot)
			d.Enclosure = s.Enclosure
		}
		working[i] = d
		if _, dup := index[d.Name]; !dup {
			index[d.Name] = i
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	devices := make([]device.MultipathDevice, 0, len(groups))
	for _, name := range names {
		info := groups[name]
		var provider *device.PhysicalDisk
		if i, ok := index[name]; ok {
			claimed[i] = true
			provider = &working[i]
		}
		devices = append(devices, buildGroup(name, info, provider, working, index, claimed, slots, pools))
	}

	sort.SliceStable(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		switch {
		case a.Slot != nil && b.Slot != nil:
			if *a.Slot != *b.Slot {
				return *a.Slot < *b.Slot
			}
			return a.Name < b.Name
		case a.Slot != nil:
			return true
		case b.Slot != nil:
			return false
		default:
			return a.Name < b.Name
		}
	})

	var rest []device.PhysicalDisk
	for i, d := range working {
		if !claimed[i] {
			rest = append(rest, d)
		}
	}
	standalone := Deduplicate(rest)

	log.Debug().Int("multipath_devices", len(devices)).Int("standalone_disks", len(standalone)).Msg("topology_correlated")
	return devices, standalone
}

func buildGroup(
	name string,
	info device.MultipathInfo,
	provider *device.PhysicalDisk,
	working []device.PhysicalDisk,
	index map[string]int,
	claimed []bool,
	slots map[string]device.SlotInfo,
	pools map[string]device.PoolDriveInfo,
) device.MultipathDevice {
	mp := device.MultipathDevice{
		Name:  name,
		Ident: info.Serial,
		State: info.State,
		Paths: []string{},
	}

	var members []device.PhysicalDisk
	for controller, path := range info.Paths {
		i, ok := index[path.DeviceName]
		if !ok || claimed[i] {
			continue
		}
		claimed[i] = true

		d := working[i]
		d.Ident = info.Serial
		d.MultipathParent = name
		d.PathState = device.PathPassive
		if path.IsActive {
			d.PathState = device.PathActive
			mp.ActivePath = path.DeviceName
		}
		members = append(members, d)
		mp.Paths = append(mp.Paths, d.Name)
		mp.PathStats = append(mp.PathStats, device.PathStats{
			DeviceName: d.Name,
			Controller: controller,
			IsActive:   path.IsActive,
			Statistics: d.Statistics,
		})
	}
	mp.Members = members

	switch {
	case len(members) == 0 && provider != nil:
		log.Debug().Str("device", name).Msg("multipath device has no backing disks in this sample, using provider counters")
		mp.Statistics = provider.Statistics
	case len(members) == 0:
		log.Debug().Str("device", name).Msg("multipath device has no backing disks in this sample")
	case mp.ActivePath != "":
		for _, m := range members {
			if m.Name == mp.ActivePath {
				mp.Statistics = m.Statistics
				break
			}
		}
	default:
		mp.Statistics = members[0].Statistics
	}

	mp.Slot = minSlot(members, info, slots)
	if p, ok := pools[name]; ok {
		pool := p
		mp.Pool = &pool
	}
	return mp
}

// minSlot prefers the resolved members and falls back to the raw slot map
// for every declared path, so a group keeps its bay while a member is
// missing from the counters.
func minSlot(members []device.PhysicalDisk, info device.MultipathInfo, slots map[string]device.SlotInfo) *int {
	var best *int
	for _, m := range members {
		if m.Slot != nil && (best == nil || *m.Slot < *best) {
			best = device.IntPtr(*m.Slot)
		}
	}
	if best != nil {
		return best
	}
	for _, p := range info.Paths {
		if s, ok := slots[p.DeviceName]; ok && (best == nil || s.Slot < *best) {
			best = device.IntPtr(s.Slot)
		}
	}
	return best
}

// Deduplicate keeps the first disk for every identity, in input order.
// Disks without an identity are always kept.
func Deduplicate(disks []device.PhysicalDisk) []device.PhysicalDisk {
	out := make([]device.PhysicalDisk, 0, len(disks))
	seen := make(map[string]string)
	for _, d := range disks {
		if d.Ident == "" {
			out = append(out, d)
			continue
		}
		if first, ok := seen[d.Ident]; ok {
			log.Debug().Str("device", d.Name).Str("kept", first).Str("ident", d.Ident).Msg("dropping duplicate path to disk")
			continue
		}
		seen[d.Ident] = d.Name
		out = append(out, d)
	}
	return out
}
