// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"sync"
	"sync/atomic"

	"github.com/cobaltcore-dev/sanview/pkg/collectors/system"
	"github.com/cobaltcore-dev/sanview/pkg/stats"
)

// Store guards the AppState shared by the sampler and the renderer. Every
// method holds the lock only for the in-memory update or copy.
type Store struct {
	mu    sync.Mutex
	state *AppState
	quit  atomic.Bool
}

func NewStore(processor stats.Processor) *Store {
	return &Store{state: NewAppState(processor)}
}

// Update applies one tick's topology and system sample in a single critical
// section so a snapshot never sees a half-updated tick.
func (s *Store) Update(t Topology, sample *system.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UpdateTopology(t)
	if sample != nil {
		s.state.UpdateSystem(*sample)
	}
}

func (s *Store) UpdateTopology(t Topology) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UpdateTopology(t)
}

func (s *Store) UpdateSystem(sample system.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UpdateSystem(sample)
}

func (s *Store) SetWidth(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetWidth(width)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

func (s *Store) Quit() {
	s.quit.Store(true)
}

func (s *Store) ShouldQuit() bool {
	return s.quit.Load()
}
