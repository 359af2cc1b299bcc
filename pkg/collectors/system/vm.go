// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Process is the subset of a process the VM listing needs.
type Process interface {
	PID() int32
	Name() (string, error)
	Cmdline() (string, error)
	CPUPercent() (float64, error)
	MemoryInfo() (*process.MemoryInfoStat, error)
	CreateTime() (int64, error)
}

type gopsutilProcess struct {
	*process.Process
}

func (p gopsutilProcess) PID() int32 { return p.Pid }

func listProcesses() ([]Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]Process, len(procs))
	for i, p := range procs {
		out[i] = gopsutilProcess{p}
	}
	return out, nil
}

// VMCollector lists bhyve guests.
type VMCollector struct {
	list func() ([]Process, error)
	now  func() time.Time
}

func NewVMCollector() *VMCollector {
	return &VMCollector{list: listProcesses, now: time.Now}
}

// Collect returns the guests sorted by resident memory, largest first.
// Processes that vanish while being inspected are skipped.
func (c *VMCollector) Collect() ([]VMInfo, error) {
	procs, err := c.list()
	if err != nil {
		return nil, fmt.Errorf("error listing processes: %w", err)
	}

	vms := make([]VMInfo, 0)
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name != "bhyve" {
			continue
		}
		vm := VMInfo{Name: name, PID: p.PID()}
		if cmdline, err := p.Cmdline(); err == nil {
			vm.Name = vmName(cmdline, name)
		}
		if pct, err := p.CPUPercent(); err == nil {
			vm.CPUPct = pct
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			vm.MemoryBytes = mem.RSS
			vm.VirtualBytes = mem.VMS
		}
		if created, err := p.CreateTime(); err == nil && created > 0 {
			if d := c.now().Sub(time.UnixMilli(created)); d > 0 {
				vm.Runtime = d.Truncate(time.Second)
			}
		}
		vms = append(vms, vm)
	}

	sort.SliceStable(vms, func(i, j int) bool {
		if vms[i].MemoryBytes != vms[j].MemoryBytes {
			return vms[i].MemoryBytes > vms[j].MemoryBytes
		}
		return vms[i].Name < vms[j].Name
	})
	return vms, nil
}

// vmName takes the guest name bhyve is started with, which is its last
// argument. The process title "bhyve: <name>" is used when present.
func vmName(cmdline, fallback string) string {
	if rest, ok := strings.CutPrefix(cmdline, "bhyve: "); ok {
		if name := strings.TrimSpace(rest); name != "" {
			return strings.TrimSuffix(name, " (bhyve)")
		}
	}
	fields := strings.Fields(cmdline)
	if len(fields) > 1 {
		return fields[len(fields)-1]
	}
	return fallback
}
