// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/geom"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/multipath"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/ses"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/system"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/zfs"
	"github.com/cobaltcore-dev/sanview/pkg/config"
	"github.com/cobaltcore-dev/sanview/pkg/sampler"
	"github.com/cobaltcore-dev/sanview/pkg/state"
	"github.com/cobaltcore-dev/sanview/pkg/stats"
)

// pipeline is everything the sampling side needs, built once at startup.
type pipeline struct {
	sampler *sampler.Sampler
	store   *state.Store
	slots   *ses.Collector
	watcher *ses.Watcher
}

// buildPipeline fails only when the counter source or the device tree cannot
// be opened; every other source degrades at runtime.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	source, err := geom.NewSystemSource()
	if err != nil {
		return nil, fmt.Errorf("error opening disk statistics: %w", err)
	}
	tree, err := geom.NewSystemTree()
	if err != nil {
		return nil, fmt.Errorf("error loading device tree: %w", err)
	}

	naming := cfg.Naming()
	runner := collectors.ExecRunner{}
	processor := stats.Processor{Alpha: cfg.Alpha}

	sesCfg := ses.Config{Naming: naming}
	if cfg.Display.Mode == "console" && term.IsTerminal(int(os.Stderr.Fd())) {
		sesCfg.Progress = os.Stderr
	}
	enclosureDir := cfg.Enclosure.Dir
	if enclosureDir == "" {
		enclosureDir = ses.DefaultDir
	}
	slots := ses.NewCollector(ses.NewSystemOpener(enclosureDir), sesCfg)

	p := &pipeline{
		store: state.NewStore(processor),
		slots: slots,
	}
	p.sampler = &sampler.Sampler{
		Disks: geom.NewCollector(source, tree, naming),
		Multipath: multipath.NewCollector(runner, multipath.Config{
			Command: cfg.Commands.Multipath,
			TTL:     cfg.CacheTTL,
			Naming:  naming,
		}),
		Slots: slots,
		Pools: zfs.NewCollector(runner, zfs.Config{
			Command: cfg.Commands.Zpool,
			TTL:     cfg.CacheTTL,
			Naming:  naming,
		}),
		System: system.NewCollector(system.Config{
			Refresh:      cfg.Refresh(),
			Alpha:        cfg.Alpha,
			Runner:       runner,
			DisableVMs:   !cfg.CollectVMs,
			DisableJails: !cfg.CollectJails,
		}),
		Store:    p.store,
		Interval: cfg.Refresh(),
	}

	if enclosureWatch(cfg, enclosureDir) {
		w, err := ses.NewWatcher(enclosureDir, slots, ses.MatchSESNode)
		if err != nil {
			log.Warn().Err(err).Str("dir", enclosureDir).Msg("enclosure hot-plug watch disabled")
		} else {
			p.watcher = w
		}
	}
	return p, nil
}

// enclosureWatch reports whether a hot-plug watcher should run on dir.
func enclosureWatch(cfg *config.Config, dir string) bool {
	if !cfg.Enclosure.Watch || dir == "" {
		return false
	}
	if !ses.HotplugWatch {
		log.Info().Str("dir", dir).Msg("enclosure hot-plug watch not available on this platform")
		return false
	}
	return true
}

// start launches the background goroutines. They stop when ctx is cancelled.
func (p *pipeline) start(ctx context.Context) {
	if p.watcher != nil {
		go p.watcher.Run(ctx)
	}
	go p.sampler.Run(ctx)
}
