// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package multipath

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
	"github.com/cobaltcore-dev/sanview/pkg/device"
)

const DefaultCommand = "gmultipath list"

type Config struct {
	Command string        // listing command, "gmultipath list" by default
	TTL     time.Duration // how long a listing is reused
	Naming  device.Naming
	Now     func() time.Time
}

// Collector reads redundant-path groups and caches them for Config.TTL.
type Collector struct {
	runner  collectors.Runner
	name    string
	args    []string
	naming  device.Naming
	cache   *collectors.Cached[map[string]device.MultipathInfo]
	refresh int
}

func NewCollector(runner collectors.Runner, cfg Config) *Collector {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.TTL <= 0 {
		cfg.TTL = collectors.DefaultCacheTTL
	}
	if cfg.Naming.MultipathPrefix == "" {
		cfg.Naming = device.DefaultNaming()
	}
	name, args := collectors.SplitCommand(cfg.Command)
	return &Collector{
		runner: runner,
		name:   name,
		args:   args,
		naming: cfg.Naming,
		cache:  collectors.NewCached[map[string]device.MultipathInfo](cfg.TTL, cfg.Now),
	}
}

// Collect returns the groups keyed by "multipath/<label>". On failure the
// last good listing (or an empty map) is returned along with the error.
func (c *Collector) Collect() (map[string]device.MultipathInfo, error) {
	if groups, ok := c.cache.Fresh(); ok {
		return copyGroups(groups), nil
	}

	c.refresh++
	out, err := collectors.RunText(c.runner, c.name, c.args...)
	if err != nil {
		last, _ := c.cache.Last()
		return copyGroups(last), fmt.Errorf("error listing multipath groups: %w", err)
	}

	groups := Parse(out, c.naming)
	log.Debug().Int("groups", len(groups)).Msg("multipath_topology_refreshed")
	c.cache.Set(groups)
	return copyGroups(groups), nil
}

// Refreshes reports how many times the listing command was run.
func (c *Collector) Refreshes() int {
	return c.refresh
}

func copyGroups(in map[string]device.MultipathInfo) map[string]device.MultipathInfo {
	out := make(map[string]device.MultipathInfo, len(in))
	for k, v := range in {
		v.Paths = append([]device.PathInfo(nil), v.Paths...)
		out[k] = v
	}
	return out
}

type parser struct {
	naming      device.Naming
	groups      map[string]device.MultipathInfo
	geom        string
	inGeom      bool
	state       device.MultipathState
	paths       []device.PathInfo
	inConsumers bool
	pending     string
	hasPending  bool
	active      bool
}

// Parse reads "gmultipath list" output. Lines it does not understand are
// ignored.
func Parse(out string, naming device.Naming) map[string]device.MultipathInfo {
	p := &parser{naming: naming, groups: make(map[string]device.MultipathInfo)}

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		p.line(strings.TrimSpace(scanner.Text()))
	}
	p.flushGroup()
	return p.groups
}

func (p *parser) line(line string) {
	switch {
	case strings.HasPrefix(line, "Geom name: "):
		p.flushGroup()
		p.geom = strings.TrimPrefix(line, "Geom name: ")
		p.inGeom = true
		p.state = device.MultipathUnknown
		p.inConsumers = false
		p.hasPending = false
	case strings.HasPrefix(line, "State: "):
		value := strings.TrimPrefix(line, "State: ")
		if !p.inConsumers {
			p.state = device.ParseMultipathState(value)
			return
		}
		if p.hasPending {
			p.active = value == "ACTIVE"
			p.flushPath()
		}
	case line == "Consumers:":
		p.inConsumers = true
	case line == "Providers:":
		p.inConsumers = false
	case p.inConsumers:
		// "1. Name: da8" or "Name: da8"
		idx := strings.Index(line, "Name: ")
		if idx < 0 {
			return
		}
		p.flushPath()
		p.pending = line[idx+len("Name: "):]
		p.hasPending = true
		p.active = false
	}
}

func (p *parser) flushPath() {
	if !p.hasPending {
		return
	}
	p.paths = append(p.paths, device.PathInfo{DeviceName: p.pending, IsActive: p.active})
	p.hasPending = false
}

func (p *parser) flushGroup() {
	if !p.inGeom {
		return
	}
	p.flushPath()
	name := p.naming.MultipathName(p.geom)
	p.groups[name] = device.MultipathInfo{
		Name:   name,
		Serial: p.geom,
		State:  p.state,
		Paths:  p.paths,
	}
	p.paths = nil
	p.inGeom = false
}
