// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package system

import (
	"os"
)

const arcstatsPath = "/proc/spl/kstat/zfs/arcstats"

func readARCStats() (ARCStats, error) {
	data, err := os.ReadFile(arcstatsPath)
	if err != nil {
		return ARCStats{}, err
	}
	return parseKstatARC(string(data)), nil
}
