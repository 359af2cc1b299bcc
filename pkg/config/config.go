// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/multipath"
	"github.com/cobaltcore-dev/sanview/pkg/collectors/zfs"
	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/stats"
)

const (
	DefaultRefreshMs = 250
	MinRefreshMs     = 50
	MaxRefreshMs     = 10000

	DefaultNatsSubject    = "sanview.snapshot"
	DefaultPrometheusPort = 9188
)

type CommandsConfig struct {
	Multipath string `mapstructure:"multipath"`
	Zpool     string `mapstructure:"zpool"`
}

type EnclosureConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type DisplayConfig struct {
	Mode  string `mapstructure:"mode"` // console or json
	Width int    `mapstructure:"width"`
	Color bool   `mapstructure:"color"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type NatsConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type Config struct {
	RefreshMs        int              `mapstructure:"refresh_ms"`
	CacheTTL         time.Duration    `mapstructure:"cache_ttl"`
	Alpha            float64          `mapstructure:"alpha"`
	PhysicalPrefixes []string         `mapstructure:"physical_prefixes"`
	MultipathPrefix  string           `mapstructure:"multipath_prefix"`
	Commands         CommandsConfig   `mapstructure:"commands"`
	Enclosure        EnclosureConfig  `mapstructure:"enclosure"`
	Display          DisplayConfig    `mapstructure:"display"`
	Prometheus       PrometheusConfig `mapstructure:"prometheus"`
	Nats             NatsConfig       `mapstructure:"nats"`
	NodeName         string           `mapstructure:"node_name"`
	InstanceID       string           `mapstructure:"instance_id"`
	CollectVMs       bool             `mapstructure:"collect_vms"`
	CollectJails     bool             `mapstructure:"collect_jails"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("refresh_ms", DefaultRefreshMs)
	v.SetDefault("cache_ttl", collectors.DefaultCacheTTL)
	v.SetDefault("alpha", stats.DefaultAlpha)
	v.SetDefault("physical_prefixes", device.DefaultPhysicalPrefixes)
	v.SetDefault("multipath_prefix", device.DefaultMultipathPrefix)
	v.SetDefault("commands.multipath", multipath.DefaultCommand)
	v.SetDefault("commands.zpool", zfs.DefaultCommand)
	v.SetDefault("enclosure.watch", true)
	v.SetDefault("display.mode", "console")
	v.SetDefault("display.color", true)
	v.SetDefault("prometheus.port", DefaultPrometheusPort)
	v.SetDefault("nats.subject", DefaultNatsSubject)
	v.SetDefault("collect_vms", true)
	v.SetDefault("collect_jails", true)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := decode(viper.New())
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads a YAML, TOML or JSON file on top of the defaults. An empty
// path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		return decode(v)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	err := v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	config.RefreshMs = ClampRefresh(config.RefreshMs)
	if config.CacheTTL <= 0 {
		config.CacheTTL = collectors.DefaultCacheTTL
	}
	return &config, nil
}

// ClampRefresh bounds the sampling interval to [50, 10000] ms. Zero or
// negative values select the default.
func ClampRefresh(ms int) int {
	switch {
	case ms <= 0:
		return DefaultRefreshMs
	case ms < MinRefreshMs:
		return MinRefreshMs
	case ms > MaxRefreshMs:
		return MaxRefreshMs
	default:
		return ms
	}
}

func (c *Config) Refresh() time.Duration {
	return time.Duration(ClampRefresh(c.RefreshMs)) * time.Millisecond
}

func (c *Config) Naming() device.Naming {
	n := device.DefaultNaming()
	if len(c.PhysicalPrefixes) > 0 {
		n.PhysicalPrefixes = append([]string(nil), c.PhysicalPrefixes...)
	}
	if c.MultipathPrefix != "" {
		n.MultipathPrefix = c.MultipathPrefix
	}
	return n
}
