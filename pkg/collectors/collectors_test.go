// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package collectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	out []byte
	err error
}

func (s stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return s.out, s.err
}

func TestRunTextRejectsInvalidUTF8(t *testing.T) {
	_, err := RunText(stubRunner{out: []byte{0xff, 0xfe, 'a'}}, "gmultipath", "list")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOutput))

	out, err := RunText(stubRunner{out: []byte("Geom name: A\n")}, "gmultipath", "list")
	require.NoError(t, err)
	assert.Equal(t, "Geom name: A\n", out)
}

func TestRunTextPropagatesError(t *testing.T) {
	_, err := RunText(stubRunner{err: errors.New("exit status 1")}, "zpool", "list")
	assert.Error(t, err)
}

func TestSplitCommand(t *testing.T) {
	name, args := SplitCommand("  gmultipath   list ")
	assert.Equal(t, "gmultipath", name)
	assert.Equal(t, []string{"list"}, args)

	name, args = SplitCommand("")
	assert.Equal(t, "", name)
	assert.Nil(t, args)
}

func TestCachedExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCached[int](30*time.Second, func() time.Time { return now })

	_, ok := c.Fresh()
	assert.False(t, ok)

	c.Set(7)
	v, ok := c.Fresh()
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	now = now.Add(29 * time.Second)
	_, ok = c.Fresh()
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Fresh()
	assert.False(t, ok)

	v, ok = c.Last()
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	c.Invalidate()
	_, ok = c.Fresh()
	assert.False(t, ok)
}
