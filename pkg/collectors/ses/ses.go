// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package ses maps disks to enclosure slots through SCSI Enclosure Services.
package ses

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

// Element types from scsi_enc.h that describe a disk bay.
const (
	ElementDevice      uint32 = 0x01
	ElementArrayDevice uint32 = 0x17
)

type Element struct {
	Index        uint32
	SubEnclosure uint32
	Type         uint32
}

func (e Element) IsDeviceSlot() bool {
	return e.Type == ElementDevice || e.Type == ElementArrayDevice
}

// Enclosure is one open enclosure services node.
type Enclosure interface {
	ElementCount() (int, error)
	ElementMap() ([]Element, error)
	ElementDevNames(index uint32) ([]string, error)
	Close() error
}

// Opener discovers and opens enclosures.
type Opener interface {
	List() ([]string, error)
	Open(path string) (Enclosure, error)
}

type Config struct {
	Naming   device.Naming
	Progress io.Writer // when set, the first scan draws a progress bar here
}

// Collector caches the slot map and only rescans after Invalidate.
type Collector struct {
	opener   Opener
	naming   device.Naming
	progress io.Writer

	mu    sync.Mutex
	slots map[string]device.SlotInfo
	dirty atomic.Bool
	scans int
}

func NewCollector(opener Opener, cfg Config) *Collector {
	if len(cfg.Naming.PhysicalPrefixes) == 0 {
		cfg.Naming = device.DefaultNaming()
	}
	c := &Collector{opener: opener, naming: cfg.Naming, progress: cfg.Progress}
	c.dirty.Store(true)
	return c
}

// Invalidate marks the slot map stale; safe to call from any goroutine.
func (c *Collector) Invalidate() {
	c.dirty.Store(true)
}

// Scans reports how many full enclosure scans have run.
func (c *Collector) Scans() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scans
}

// Collect returns device name -> slot. With several enclosures reporting
// the same device (dual controllers), the first enclosure in name order wins.
func (c *Collector) Collect() (map[string]device.SlotInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slots != nil && !c.dirty.Load() {
		return copySlots(c.slots), nil
	}
	c.dirty.Store(false)

	paths, err := c.opener.List()
	if err != nil {
		c.dirty.Store(true)
		return copySlots(c.slots), fmt.Errorf("error listing enclosures: %w", err)
	}
	sortEnclosures(paths)

	var bar *progressbar.ProgressBar
	if c.progress != nil && c.scans == 0 && len(paths) > 0 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionSetDescription("scanning enclosures"),
			progressbar.OptionClearOnFinish(),
		)
	}

	slots := make(map[string]device.SlotInfo)
	for _, path := range paths {
		mappings, err := c.scan(path)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			log.Warn().Err(err).Str("enclosure", path).Msg("error scanning enclosure")
			continue
		}
		for name, info := range mappings {
			if _, seen := slots[name]; !seen {
				slots[name] = info
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	c.scans++
	c.slots = slots
	log.Debug().Int("devices", len(slots)).Int("enclosures", len(paths)).Msg("slot_map_refreshed")
	return copySlots(slots), nil
}

func (c *Collector) scan(path string) (map[string]device.SlotInfo, error) {
	enc, err := c.opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	if _, err := enc.ElementCount(); err != nil {
		return nil, fmt.Errorf("error reading element count: %w", err)
	}
	elements, err := enc.ElementMap()
	if err != nil {
		return nil, fmt.Errorf("error reading element map: %w", err)
	}

	name := enclosureName(path)
	mappings := make(map[string]device.SlotInfo)
	for _, elm := range elements {
		if !elm.IsDeviceSlot() {
			continue
		}
		names, err := enc.ElementDevNames(elm.Index)
		if err != nil {
			// Empty bays fail this call.
			continue
		}
		for _, dev := range names {
			if !c.naming.IsPhysical(dev) {
				continue
			}
			mappings[dev] = device.SlotInfo{Slot: int(elm.Index), DeviceName: dev, Enclosure: name}
		}
	}
	return mappings, nil
}

// SplitDevNames splits the comma separated element device name list.
func SplitDevNames(raw string) []string {
	if i := strings.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func enclosureName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// sortEnclosures orders ses2 before ses10.
func sortEnclosures(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		a, b := enclosureName(paths[i]), enclosureName(paths[j])
		pa, na := splitNumericSuffix(a)
		pb, nb := splitNumericSuffix(b)
		if pa != pb {
			return pa < pb
		}
		if na != nb {
			return na < nb
		}
		return a < b
	})
}

func splitNumericSuffix(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}

func copySlots(in map[string]device.SlotInfo) map[string]device.SlotInfo {
	out := make(map[string]device.SlotInfo, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
