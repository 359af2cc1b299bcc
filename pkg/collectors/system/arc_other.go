// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !freebsd && !linux

package system

import (
	"errors"
)

func readARCStats() (ARCStats, error) {
	return ARCStats{}, errors.New("arc statistics are not available on this platform")
}
