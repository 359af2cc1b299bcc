// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package collectors

import (
	"time"
)

// DefaultCacheTTL is how long slow topology listings are reused.
const DefaultCacheTTL = 30 * time.Second

// Cached holds one value together with the instant it was fetched. It is
// owned by a single collector and not safe for concurrent use.
type Cached[T any] struct {
	TTL time.Duration
	Now func() time.Time

	value   T
	fetched time.Time
	valid   bool
}

func NewCached[T any](ttl time.Duration, now func() time.Time) *Cached[T] {
	if now == nil {
		now = time.Now
	}
	return &Cached[T]{TTL: ttl, Now: now}
}

// Fresh returns the cached value if it is younger than the TTL.
func (c *Cached[T]) Fresh() (T, bool) {
	if !c.valid || c.now().Sub(c.fetched) >= c.TTL {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Last returns the most recent value regardless of its age.
func (c *Cached[T]) Last() (T, bool) {
	return c.value, c.valid
}

func (c *Cached[T]) Set(v T) {
	c.value = v
	c.fetched = c.now()
	c.valid = true
}

// Invalidate forces the next Fresh call to miss.
func (c *Cached[T]) Invalidate() {
	c.valid = false
}

func (c *Cached[T]) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
