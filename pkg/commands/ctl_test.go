// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cobaltcore-dev/sanview/pkg/config"
	"github.com/cobaltcore-dev/sanview/pkg/device"
	"github.com/cobaltcore-dev/sanview/pkg/state"
)

func TestGetEnv(t *testing.T) {
	key := "SANVIEW_TEST_KEY"
	fallback := "default_value"

	assert.Equal(t, fallback, getEnv(key, fallback))

	t.Setenv(key, "expected_value")
	assert.Equal(t, "expected_value", getEnv(key, fallback))
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("SANVIEW_INT", "42")
	t.Setenv("SANVIEW_BAD_INT", "x")
	t.Setenv("SANVIEW_FLOAT", "0.5")
	t.Setenv("SANVIEW_BOOL", "true")
	t.Setenv("SANVIEW_SLICE", "da, nda,,sd")

	assert.Equal(t, 42, getEnvInt("SANVIEW_INT", 1))
	assert.Equal(t, 1, getEnvInt("SANVIEW_BAD_INT", 1))
	assert.Equal(t, 0.5, getEnvFloat("SANVIEW_FLOAT", 0.3))
	assert.True(t, getEnvBool("SANVIEW_BOOL", false))
	assert.Equal(t, []string{"da", "nda", "sd"}, getEnvStringSlice("SANVIEW_SLICE", nil))
	assert.Equal(t, []string{"da"}, getEnvStringSlice("SANVIEW_UNSET", []string{"da"}))
}

func TestSetUpLogs(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.WarnLevel)

	var buf bytes.Buffer
	require.NoError(t, setUpLogs(&buf, "info", false))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Info().Str("device", "multipath/A").Msg("device_seen")
	assert.Contains(t, buf.String(), `"device":"multipath/A"`)

	assert.Error(t, setUpLogs(&buf, "loud", false))
}

func TestMergeMonitorConfigWithEnv(t *testing.T) {
	t.Setenv("REFRESH_MS", "5")
	t.Setenv("NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("PROMETHEUS_PORT", "9100")
	t.Setenv("NODE_NAME", "filer-2")
	t.Setenv("INSTANCE_ID", "abc")

	cfg := config.Default()
	mergeMonitorConfigWithEnv(cfg)
	assert.Equal(t, config.MinRefreshMs, cfg.RefreshMs)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Nats.URL)
	assert.Equal(t, config.DefaultNatsSubject, cfg.Nats.Subject)
	assert.Equal(t, 9100, cfg.Prometheus.Port)
	assert.Equal(t, "filer-2", cfg.NodeName)
	assert.Equal(t, "abc", cfg.InstanceID)
}

func TestApplyMonitorFlags(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, monitorCmd.Flags().Set("refresh-ms", "1000"))
	require.NoError(t, monitorCmd.Flags().Set("json", "true"))
	t.Cleanup(func() {
		monJSON = false
		monRefreshMs = config.DefaultRefreshMs
	})

	applyMonitorFlags(monitorCmd, cfg)
	assert.Equal(t, 1000, cfg.RefreshMs)
	assert.Equal(t, "json", cfg.Display.Mode)
	assert.Equal(t, time.Second, cfg.Refresh())
}

func TestWriteSnapshot(t *testing.T) {
	snap := state.Snapshot{
		Multipath: []device.MultipathDevice{{
			Name:  "multipath/A",
			State: device.MultipathOptimal,
			Slot:  device.IntPtr(4),
			Pool:  &device.PoolDriveInfo{Pool: "tank", Role: device.RoleLog},
		}},
		Ticks: 2,
	}

	var js bytes.Buffer
	require.NoError(t, writeSnapshot(&js, snap, "json"))
	assert.Contains(t, js.String(), `"state": "OPTIMAL"`)
	assert.Contains(t, js.String(), `"role": "slog"`)

	var ym bytes.Buffer
	require.NoError(t, writeSnapshot(&ym, snap, "yaml"))
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &decoded))
	assert.Contains(t, decoded, "multipath")
	assert.True(t, strings.Contains(ym.String(), "slot: 4"))

	assert.Error(t, writeSnapshot(&js, snap, "xml"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(out.String(), "sanview dev"))
}

func TestEnclosureWatchFollowsPlatform(t *testing.T) {
	cfg := config.Default()
	cfg.Enclosure.Watch = true
	assert.Equal(t, runtime.GOOS == "freebsd", enclosureWatch(cfg, "/dev"))
	assert.False(t, enclosureWatch(cfg, ""))

	cfg.Enclosure.Watch = false
	assert.False(t, enclosureWatch(cfg, "/dev"))
}
