// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/sanview/pkg/config"
	"github.com/cobaltcore-dev/sanview/pkg/display"
)

const natsPublishInterval = time.Second

var (
	monRefreshMs    int
	monNatsURL      string
	monNatsSubject  string
	monPromEnabled  bool
	monPromPort     int
	monNodeName     string
	monInstanceID   string
	monJSON         bool
	monWidth        int
	monNoColor      bool
	monEnclosureDir string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show the live storage dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		applyMonitorFlags(cmd, cfg)
		mergeMonitorConfigWithEnv(cfg)
		logMonitorConfig(cfg)

		return runMonitor(cmd.Context(), cfg)
	},
}

func init() {
	monitorCmd.Flags().IntVar(&monRefreshMs, "refresh-ms", config.DefaultRefreshMs, "Sampling interval in milliseconds (50-10000)")
	monitorCmd.Flags().StringVar(&monNatsURL, "nats-url", "", "NATS server URL")
	monitorCmd.Flags().StringVar(&monNatsSubject, "nats-subject", config.DefaultNatsSubject, "NATS subject to publish snapshots")
	monitorCmd.Flags().BoolVar(&monPromEnabled, "prometheus", false, "Enable Prometheus metrics")
	monitorCmd.Flags().IntVar(&monPromPort, "prometheus-port", config.DefaultPrometheusPort, "Prometheus metrics port")
	monitorCmd.Flags().StringVar(&monNodeName, "node-name", "", "Name of the node")
	monitorCmd.Flags().StringVar(&monInstanceID, "instance-id", "", "Instance ID")
	monitorCmd.Flags().BoolVar(&monJSON, "json", false, "Print JSON lines instead of the dashboard")
	monitorCmd.Flags().IntVar(&monWidth, "width", 0, "Dashboard width, detected from the terminal when 0")
	monitorCmd.Flags().BoolVar(&monNoColor, "no-color", false, "Disable colours")
	monitorCmd.Flags().StringVar(&monEnclosureDir, "enclosure-dir", "", "Directory holding the enclosure service nodes")
}

// applyMonitorFlags lets explicitly set flags override the config file.
func applyMonitorFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("refresh-ms") {
		cfg.RefreshMs = monRefreshMs
	}
	if flags.Changed("nats-url") {
		cfg.Nats.URL = monNatsURL
	}
	if flags.Changed("nats-subject") {
		cfg.Nats.Subject = monNatsSubject
	}
	if flags.Changed("prometheus") {
		cfg.Prometheus.Enabled = monPromEnabled
	}
	if flags.Changed("prometheus-port") {
		cfg.Prometheus.Port = monPromPort
	}
	if flags.Changed("node-name") {
		cfg.NodeName = monNodeName
	}
	if flags.Changed("instance-id") {
		cfg.InstanceID = monInstanceID
	}
	if monJSON {
		cfg.Display.Mode = "json"
	}
	if flags.Changed("width") {
		cfg.Display.Width = monWidth
	}
	if monNoColor {
		cfg.Display.Color = false
	}
	if flags.Changed("enclosure-dir") {
		cfg.Enclosure.Dir = monEnclosureDir
	}
}

func mergeMonitorConfigWithEnv(cfg *config.Config) {
	cfg.RefreshMs = config.ClampRefresh(getEnvInt("REFRESH_MS", cfg.RefreshMs))
	cfg.Nats.URL = getEnv("NATS_URL", cfg.Nats.URL)
	cfg.Nats.Subject = getEnv("NATS_SUBJECT", cfg.Nats.Subject)
	cfg.Prometheus.Port = getEnvInt("PROMETHEUS_PORT", cfg.Prometheus.Port)
	cfg.Prometheus.Enabled = getEnvBool("PROMETHEUS", cfg.Prometheus.Enabled)
	cfg.NodeName = getEnv("NODE_NAME", cfg.NodeName)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)
	cfg.Alpha = getEnvFloat("SMOOTHING_ALPHA", cfg.Alpha)
	cfg.PhysicalPrefixes = getEnvStringSlice("PHYSICAL_PREFIXES", cfg.PhysicalPrefixes)
	cfg.MultipathPrefix = getEnv("MULTIPATH_PREFIX", cfg.MultipathPrefix)

	if cfg.NodeName == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.NodeName = host
		}
	}
}

func logMonitorConfig(cfg *config.Config) {
	event := log.Info()
	event.Int("refresh_ms", cfg.RefreshMs)
	event.Dur("cache_ttl", cfg.CacheTTL)
	event.Strs("physical_prefixes", cfg.PhysicalPrefixes)
	event.Str("multipath_prefix", cfg.MultipathPrefix)
	event.Str("display_mode", cfg.Display.Mode)

	useNats := cfg.Nats.URL != ""
	event.Bool("use_nats", useNats)
	if useNats {
		event.Str("nats_url", cfg.Nats.URL)
		event.Str("nats_subject", cfg.Nats.Subject)
	}

	event.Bool("prometheus_enabled", cfg.Prometheus.Enabled)
	if cfg.Prometheus.Enabled {
		event.Int("prometheus_port", cfg.Prometheus.Port)
	}

	event.Str("node_name", cfg.NodeName)
	event.Str("instance_id", cfg.InstanceID)

	event.Msg("configuration_loaded")
}

func runMonitor(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	var sinks []display.Sink
	var quit <-chan struct{}
	switch cfg.Display.Mode {
	case "json":
		sinks = append(sinks, display.NewJSONSink(os.Stdout, 0))
	case "console":
		restore, raw := display.RawTerminal(os.Stdin)
		defer restore()
		if raw {
			quit = display.WatchQuitKeys(ctx, os.Stdin)
		}
		sinks = append(sinks, display.NewConsoleSink(os.Stdout, display.ConsoleOptions{
			Width: cfg.Display.Width,
			Color: cfg.Display.Color,
			Clear: true,
			CRLF:  raw,
		}))
	default:
		return fmt.Errorf("unknown display mode %q", cfg.Display.Mode)
	}

	if cfg.Prometheus.Enabled {
		display.StartPrometheusServer(cfg.Prometheus.Port)
		sinks = append(sinks, &display.PrometheusSink{NodeName: cfg.NodeName, InstanceID: cfg.InstanceID})
	}

	if cfg.Nats.URL != "" {
		nc, err := nats.Connect(cfg.Nats.URL)
		if err != nil {
			return fmt.Errorf("error connecting to nats: %w", err)
		}
		defer nc.Close()
		sinks = append(sinks, display.NewNATSSink(nc, display.NATSConfig{
			Subject:    cfg.Nats.Subject,
			NodeName:   cfg.NodeName,
			InstanceID: cfg.InstanceID,
			Every:      natsPublishInterval,
		}))
	}

	samplerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.start(samplerCtx)

	err = display.Run(ctx, p.store, sinks, display.Options{Quit: quit})
	p.store.Quit()
	return err
}
