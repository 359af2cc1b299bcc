// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cobaltcore-dev/sanview/pkg/config"
	"github.com/cobaltcore-dev/sanview/pkg/state"
)

var snapFormat string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print one correlated sample and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		mergeMonitorConfigWithEnv(cfg)
		cfg.Display.Mode = snapFormat
		cfg.Enclosure.Watch = false

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		snap, err := takeSnapshot(p, cfg.Refresh())
		if err != nil {
			return err
		}
		return writeSnapshot(os.Stdout, snap, snapFormat)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapFormat, "format", "json", "Output format (json, yaml)")
}

// takeSnapshot needs two ticks because the first only records the baseline
// counters.
func takeSnapshot(p *pipeline, interval time.Duration) (state.Snapshot, error) {
	p.sampler.Tick()
	time.Sleep(interval)
	if !p.sampler.Tick() {
		return state.Snapshot{}, fmt.Errorf("no disk statistics could be collected")
	}
	return p.store.Snapshot(), nil
}

func writeSnapshot(w io.Writer, snap state.Snapshot, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
