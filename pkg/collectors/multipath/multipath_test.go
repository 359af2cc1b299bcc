// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package multipath

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/sanview/pkg/device"
)

var bsdNaming = device.NamingFor(device.FreeBSDPhysicalPrefixes)

const sampleList = `Geom name: 2MVULJ1A
Type: AUTOMATIC
Mode: Active/Passive
UUID: 7a3d42c7-6a5b-11e8-8f2f-0cc47a6b9a2c
State: OPTIMAL
Providers:
1. Name: multipath/2MVULJ1A
   Mediasize: 4000787029504 (3.6T)
   Sectorsize: 512
   Mode: r1w1e3
   State: OPTIMAL
Consumers:
1. Name: da8
   Mediasize: 4000787030016 (3.6T)
   Sectorsize: 512
   Mode: r2w2e4
   State: ACTIVE
2. Name: da32
   Mediasize: 4000787030016 (3.6T)
   Sectorsize: 512
   Mode: r2w2e4
   State: PASSIVE

Geom name: ZC1AB2CD
Type: AUTOMATIC
Mode: Active/Passive
State: DEGRADED
Providers:
1. Name: multipath/ZC1AB2CD
   State: DEGRADED
Consumers:
1. Name: da9
   Mode: r2w2e4
   State: FAIL
2. Name: da33
`

type stubRunner struct {
	out   string
	err   error
	calls int
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.out), nil
}

func TestParse(t *testing.T) {
	groups := Parse(sampleList, bsdNaming)
	require.Len(t, groups, 2)

	g := groups["multipath/2MVULJ1A"]
	assert.Equal(t, "multipath/2MVULJ1A", g.Name)
	assert.Equal(t, "2MVULJ1A", g.Serial)
	assert.Equal(t, device.MultipathOptimal, g.State)
	assert.Equal(t, []device.PathInfo{
		{DeviceName: "da8", IsActive: true},
		{DeviceName: "da32", IsActive: false},
	}, g.Paths)

	d := groups["multipath/ZC1AB2CD"]
	assert.Equal(t, device.MultipathDegraded, d.State)
	// The trailing member has no State line and is flushed at end of input.
	assert.Equal(t, []device.PathInfo{
		{DeviceName: "da9", IsActive: false},
		{DeviceName: "da33", IsActive: false},
	}, d.Paths)
}

func TestParseIgnoresNoise(t *testing.T) {
	groups := Parse("garbage\nState: OPTIMAL\nName: da1\n", bsdNaming)
	assert.Empty(t, groups)

	groups = Parse("Geom name: X\nState: WEIRD\n", bsdNaming)
	require.Len(t, groups, 1)
	assert.Equal(t, device.MultipathUnknown, groups["multipath/X"].State)
	assert.Empty(t, groups["multipath/X"].Paths)
}

func TestCollectCachesWithinTTL(t *testing.T) {
	now := time.Unix(0, 0)
	runner := &stubRunner{out: sampleList}
	c := NewCollector(runner, Config{TTL: 30 * time.Second, Now: func() time.Time { return now }})

	first, err := c.Collect()
	require.NoError(t, err)
	now = now.Add(10 * time.Second)
	second, err := c.Collect()
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 1, c.Refreshes())
	assert.Equal(t, first, second)

	now = now.Add(25 * time.Second)
	_, err = c.Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestCollectFailureKeepsPreviousListing(t *testing.T) {
	now := time.Unix(0, 0)
	runner := &stubRunner{err: errors.New("exit status 1")}
	c := NewCollector(runner, Config{Now: func() time.Time { return now }})

	groups, err := c.Collect()
	assert.Error(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	runner.err = nil
	runner.out = sampleList
	now = now.Add(time.Second)
	groups, err = c.Collect()
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	runner.err = errors.New("exit status 1")
	now = now.Add(time.Minute)
	groups, err = c.Collect()
	assert.Error(t, err)
	assert.Len(t, groups, 2)
}

func TestCollectUsesConfiguredCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := runnerFunc(func(name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	})
	c := NewCollector(runner, Config{Command: "/sbin/gmultipath list -a"})
	_, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, "/sbin/gmultipath", gotName)
	assert.Equal(t, []string{"list", "-a"}, gotArgs)
}

type runnerFunc func(name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	return f(name, args...)
}
