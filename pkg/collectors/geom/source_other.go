// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !freebsd && !linux && !darwin

package geom

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("disk counters are not supported on " + runtime.GOOS)

func NewSystemSource() (Source, error) {
	return nil, errUnsupported
}

func NewSystemTree() (Tree, error) {
	return nil, errUnsupported
}
