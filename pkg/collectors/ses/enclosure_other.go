// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !freebsd && !linux

package ses

import (
	"errors"
)

type noOpener struct{}

const DefaultDir = ""

const HotplugWatch = false

// NewSystemOpener returns an opener that finds no enclosures.
func NewSystemOpener(string) Opener {
	return noOpener{}
}

func (noOpener) List() ([]string, error) { return nil, nil }

func (noOpener) Open(path string) (Enclosure, error) {
	return nil, errors.New("enclosure services are not supported on this platform")
}
