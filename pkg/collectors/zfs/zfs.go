// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package zfs

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
	"github.com/cobaltcore-dev/sanview/pkg/device"
)

const DefaultCommand = "zpool"

type Config struct {
	Command string // zpool binary
	TTL     time.Duration
	Naming  device.Naming
	Now     func() time.Time
}

// Collector maps pool member devices to their pool, vdev and role.
type Collector struct {
	runner  collectors.Runner
	command string
	naming  device.Naming
	cache   *collectors.Cached[map[string]device.PoolDriveInfo]
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
	return &Collector{
		runner:  runner,
		command: cfg.Command,
		naming:  cfg.Naming,
		cache:   collectors.NewCached[map[string]device.PoolDriveInfo](cfg.TTL, cfg.Now),
	}
}

// Collect returns multipath device name -> pool membership. When the pool
// list cannot be read the last good result (or an empty map) is returned
// with the error. A pool whose status fails is skipped.
func (c *Collector) Collect() (map[string]device.PoolDriveInfo, error) {
	if drives, ok := c.cache.Fresh(); ok {
		return copyDrives(drives), nil
	}

	pools, err := c.pools()
	if err != nil {
		last, _ := c.cache.Last()
		return copyDrives(last), fmt.Errorf("error listing pools: %w", err)
	}

	drives := make(map[string]device.PoolDriveInfo)
	for _, pool := range pools {
		out, err := collectors.RunText(c.runner, c.command, "status", pool)
		if err != nil {
			log.Warn().Err(err).Str("pool", pool).Msg("error reading pool status")
			continue
		}
		for name, info := range ParseStatus(pool, out, c.naming) {
			drives[name] = info
		}
	}

	log.Debug().Int("pools", len(pools)).Int("drives", len(drives)).Msg("pool_topology_refreshed")
	c.cache.Set(drives)
	return copyDrives(drives), nil
}

func (c *Collector) pools() ([]string, error) {
	out, err := collectors.RunText(c.runner, c.command, "list", "-H", "-o", "name")
	if err != nil {
		return nil, err
	}
	var pools []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pools = append(pools, line)
		}
	}
	return pools, nil
}

// ParseStatus reads the config section of "zpool status <pool>".
func ParseStatus(pool, out string, naming device.Naming) map[string]device.PoolDriveInfo {
	drives := make(map[string]device.PoolDriveInfo)
	role := device.RoleData
	vdev := ""
	inConfig := false

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "config:") {
			inConfig = true
			continue
		}
		if !inConfig {
			continue
		}
		if strings.HasPrefix(line, "errors:") {
			break
		}
		if strings.HasPrefix(line, "NAME") || strings.HasPrefix(line, pool) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "logs", "cache", "spares":
			role, _ = device.ParsePoolRole(fields[0])
			vdev = ""
			continue
		}
		if len(fields) < 2 {
			continue
		}

		name, state := fields[0], fields[1]
		// A vdev line inside logs/cache/spares keeps the section role.
		if isVdev(name) {
			vdev = name
			continue
		}
		if !naming.IsMultipath(name) {
			continue
		}
		drives[device.StripPartition(name)] = device.PoolDriveInfo{
			Pool:  pool,
			Vdev:  vdev,
			Role:  role,
			State: state,
		}
	}
	return drives
}

func isVdev(name string) bool {
	return strings.HasPrefix(name, "raidz") ||
		strings.HasPrefix(name, "mirror") ||
		strings.HasPrefix(name, "draid")
}

func copyDrives(in map[string]device.PoolDriveInfo) map[string]device.PoolDriveInfo {
	out := make(map[string]device.PoolDriveInfo, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
