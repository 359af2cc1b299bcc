// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package display turns state snapshots into output: a terminal dashboard,
// JSON lines, Prometheus gauges and NATS messages.
package display

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/sanview/pkg/state"
)

// DefaultPoll is how long the renderer waits for input between frames.
const DefaultPoll = 100 * time.Millisecond

// Sink consumes snapshots. Render must not retain the snapshot's slices
// beyond the call unless it copies them.
type Sink interface {
	Render(snap state.Snapshot) error
}

// Sizer is implemented by sinks that know their drawing width.
type Sizer interface {
	Width() int
}

// Store is the part of state.Store the renderer needs.
type Store interface {
	SetWidth(width int)
	Snapshot() state.Snapshot
	ShouldQuit() bool
}

type Options struct {
	Poll time.Duration
	// Quit fires when the user asked to leave, e.g. from the key reader.
	Quit <-chan struct{}
}

// Run renders until ctx is cancelled, Quit fires or the store is marked to
// quit. The width of the first sizing sink drives the history capacity. The
// store lock is held only while the snapshot is copied.
func Run(ctx context.Context, store Store, sinks []Sink, opts Options) error {
	poll := opts.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	timer := time.NewTimer(poll)
	defer timer.Stop()

	for {
		if store.ShouldQuit() {
			return nil
		}
		for _, s := range sinks {
			if sz, ok := s.(Sizer); ok {
				store.SetWidth(sz.Width())
				break
			}
		}

		snap := store.Snapshot()
		for _, s := range sinks {
			if err := s.Render(snap); err != nil {
				log.Warn().Err(err).Msgf("error rendering to %T", s)
			}
		}

		timer.Reset(poll)
		select {
		case <-ctx.Done():
			return nil
		case <-opts.Quit:
			return nil
		case <-timer.C:
		}
	}
}
