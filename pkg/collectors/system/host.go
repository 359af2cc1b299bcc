// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/host"
)

func readHostInfo(info func() (*host.InfoStat, error)) (HostInfo, error) {
	h, err := info()
	if err != nil {
		return HostInfo{}, fmt.Errorf("error reading host info: %w", err)
	}
	return HostInfo{
		Hostname:      h.Hostname,
		OS:            h.OS,
		Platform:      h.Platform,
		KernelVersion: h.KernelVersion,
		Uptime:        time.Duration(h.Uptime) * time.Second,
	}, nil
}
