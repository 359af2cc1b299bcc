// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package ses

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Invalidator is notified when the set of enclosures may have changed.
type Invalidator interface {
	Invalidate()
}

// Watcher triggers a slot rescan when enclosure nodes appear or vanish.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	target  Invalidator
	match   func(name string) bool
}

// NewWatcher watches dir. match filters event paths; nil accepts all.
func NewWatcher(dir string, target Invalidator, match func(name string) bool) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating enclosure watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("error watching %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("watching enclosure nodes")
	return &Watcher{dir: dir, watcher: watcher, target: target, match: match}, nil
}

// MatchSESNode accepts /dev/sesN style node names.
func MatchSESNode(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "ses") && !strings.Contains(base, ".")
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				log.Warn().Msg("enclosure watcher events channel closed")
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				log.Warn().Msg("enclosure watcher errors channel closed")
				return
			}
			log.Error().Err(err).Msg("enclosure watcher encountered an error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if w.match != nil && !w.match(event.Name) {
		return false
	}
	log.Info().Str("node", event.Name).Str("op", event.Op.String()).Msg("enclosure change detected, rescanning slots")
	w.target.Invalidate()
	return true
}
