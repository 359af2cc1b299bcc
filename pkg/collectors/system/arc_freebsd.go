// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build freebsd

package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func readARCStats() (ARCStats, error) {
	total, err := unix.SysctlUint64("kstat.zfs.misc.arcstats.size")
	if err != nil {
		return ARCStats{}, fmt.Errorf("error reading arcstats: %w", err)
	}
	get := func(name string) uint64 {
		v, err := unix.SysctlUint64("kstat.zfs.misc.arcstats." + name)
		if err != nil {
			return 0
		}
		return v
	}
	return finishARC(ARCStats{
		TotalBytes:        total,
		MFUBytes:          get("mfu_size"),
		MRUBytes:          get("mru_size"),
		AnonBytes:         get("anon_size"),
		HeaderBytes:       get("hdr_size"),
		OtherBytes:        get("other_size"),
		CompressedBytes:   get("compressed_size"),
		UncompressedBytes: get("uncompressed_size"),
	}), nil
}
