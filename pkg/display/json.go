// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"encoding/json"
	"io"
	"time"

	"github.com/cobaltcore-dev/sanview/pkg/state"
)

// JSONSink writes one JSON document per new tick. Frames whose tick was
// already written are skipped.
type JSONSink struct {
	enc      *json.Encoder
	lastTick uint64
	every    time.Duration
	last     time.Time
	now      func() time.Time
}

// NewJSONSink emits at most once per every; zero emits every new tick.
func NewJSONSink(out io.Writer, every time.Duration) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(out), every: every, now: time.Now}
}

func (s *JSONSink) Render(snap state.Snapshot) error {
	if snap.Ticks == 0 || snap.Ticks == s.lastTick {
		return nil
	}
	now := s.now()
	if s.every > 0 && !s.last.IsZero() && now.Sub(s.last) < s.every {
		return nil
	}
	if err := s.enc.Encode(snap); err != nil {
		return err
	}
	s.lastTick = snap.Ticks
	s.last = now
	return nil
}
