// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/sanview/pkg/collectors"
)

var jlsArgs = []string{"-h", "jid", "name", "host.hostname", "ip4.addr", "path"}

type JailCollector struct {
	runner collectors.Runner
}

func NewJailCollector(runner collectors.Runner) *JailCollector {
	if runner == nil {
		runner = collectors.ExecRunner{}
	}
	return &JailCollector{runner: runner}
}

func (c *JailCollector) Collect() ([]JailInfo, error) {
	out, err := collectors.RunText(c.runner, "jls", jlsArgs...)
	if err != nil {
		return nil, err
	}
	return ParseJails(out), nil
}

// ParseJails reads "jls -h jid name host.hostname ip4.addr path" output.
// The header row and short rows are skipped.
func ParseJails(out string) []JailInfo {
	jails := make([]JailInfo, 0)
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		jid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		j := JailInfo{JID: jid, Name: fields[1], Hostname: fields[2]}
		if len(fields) >= 5 {
			j.IPAddresses = splitAddresses(fields[3])
			j.Path = fields[4]
		} else {
			j.Path = fields[3]
		}
		jails = append(jails, j)
	}
	return jails
}

func splitAddresses(field string) []string {
	if field == "-" || field == "" {
		return nil
	}
	var ips []string
	for _, ip := range strings.Split(field, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}
