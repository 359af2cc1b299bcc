// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package geom

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Layout of struct devstat on 64-bit FreeBSD (sys/devicestat.h).
const (
	devstatGenerationSize = 8
	devstatSize           = 288

	offStartCount  = 8
	offEndCount    = 12
	offBytes       = 64
	offOperations  = 96
	offDuration    = 128
	offBusyTime    = 192
	offID          = 272
	devstatRead    = 1
	devstatWrite   = 2
	bintimeSize    = 16
	counterSize    = 8
	fracToNanoBits = 32
)

// parseDevstat decodes the kern.devstat.all sysctl: a generation number
// followed by an array of struct devstat.
func parseDevstat(buf []byte, taken time.Time) (*Snapshot, error) {
	if len(buf) < devstatGenerationSize {
		return nil, fmt.Errorf("devstat buffer too short: %d bytes", len(buf))
	}
	body := buf[devstatGenerationSize:]
	if len(body)%devstatSize != 0 {
		return nil, fmt.Errorf("devstat buffer size %d is not a multiple of %d", len(body), devstatSize)
	}

	le := binary.LittleEndian
	snap := &Snapshot{
		Taken:    taken,
		Counters: make(map[string]DeviceCounters, len(body)/devstatSize),
	}
	for off := 0; off < len(body); off += devstatSize {
		rec := body[off : off+devstatSize]

		id := le.Uint64(rec[offID:])
		if id == 0 {
			continue
		}
		start := le.Uint32(rec[offStartCount:])
		end := le.Uint32(rec[offEndCount:])

		c := DeviceCounters{
			ID:         formatID(id),
			ReadBytes:  le.Uint64(rec[offBytes+devstatRead*counterSize:]),
			WriteBytes: le.Uint64(rec[offBytes+devstatWrite*counterSize:]),
			ReadOps:    le.Uint64(rec[offOperations+devstatRead*counterSize:]),
			WriteOps:   le.Uint64(rec[offOperations+devstatWrite*counterSize:]),
			ReadTime:   bintime(rec[offDuration+devstatRead*bintimeSize:]),
			WriteTime:  bintime(rec[offDuration+devstatWrite*bintimeSize:]),
			BusyTime:   bintime(rec[offBusyTime:]),
		}
		if start > end {
			c.QueueLength = uint64(start - end)
		}
		snap.Counters[c.ID] = c
	}
	return snap, nil
}

// bintime converts a struct bintime (seconds + 64 bit binary fraction).
func bintime(b []byte) time.Duration {
	le := binary.LittleEndian
	sec := int64(le.Uint64(b))
	frac := le.Uint64(b[8:])
	ns := ((frac >> fracToNanoBits) * uint64(time.Second)) >> fracToNanoBits
	return time.Duration(sec)*time.Second + time.Duration(ns)
}

func formatID(id uint64) string {
	return fmt.Sprintf("0x%x", id)
}
