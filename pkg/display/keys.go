// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

// IsQuitKey reports whether b is one of q, Q, Esc or Ctrl-C.
func IsQuitKey(b byte) bool {
	switch b {
	case 'q', 'Q', keyEsc, keyCtrlC:
		return true
	}
	return false
}

// WatchQuitKeys reads single bytes from in and closes the returned channel on
// the first quit key or when in is exhausted.
func WatchQuitKeys(ctx context.Context, in io.Reader) <-chan struct{} {
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		buf := make([]byte, 1)
		for ctx.Err() == nil {
			n, err := in.Read(buf)
			if n == 1 && IsQuitKey(buf[0]) {
				return
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Debug().Err(err).Msg("key_reader_stopped")
				}
				return
			}
		}
	}()
	return quit
}

// RawTerminal puts f into raw mode when it is a terminal. The returned
// function restores the previous mode and is always safe to call.
func RawTerminal(f *os.File) (restore func(), ok bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		log.Warn().Err(err).Msg("error switching terminal to raw mode")
		return func() {}, false
	}
	return func() {
		if err := term.Restore(fd, old); err != nil {
			log.Warn().Err(err).Msg("error restoring terminal")
		}
	}, true
}
