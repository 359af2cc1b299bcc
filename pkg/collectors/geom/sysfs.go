// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package geom

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultSysfsRoot = "/sys"

// SysfsTree treats counter ids as block device names. Whole disks live
// directly under /sys/block and get rank 1; partitions and other derived
// devices get rank 2.
type SysfsTree struct {
	root  string
	cache map[string]Ident
}

func NewSysfsTree(root string) *SysfsTree {
	return &SysfsTree{root: root, cache: make(map[string]Ident)}
}

func (t *SysfsTree) Lookup(id string) (Ident, bool) {
	if ident, ok := t.cache[id]; ok {
		return ident, true
	}
	if _, err := os.Stat(filepath.Join(t.root, "class", "block", id)); err != nil {
		return Ident{}, false
	}

	ident := Ident{Name: id, Rank: 2}
	if _, err := os.Stat(filepath.Join(t.root, "block", id)); err == nil {
		ident.Rank = 1
		ident.Ident = t.serial(id)
	}
	t.cache[id] = ident
	return ident, true
}

func (t *SysfsTree) Refresh() error {
	t.cache = make(map[string]Ident)
	return nil
}

func (t *SysfsTree) serial(name string) string {
	candidates := []string{
		filepath.Join(t.root, "block", name, "device", "wwid"),
		filepath.Join(t.root, "block", name, "device", "serial"),
		filepath.Join(t.root, "block", name, "wwid"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}
	return ""
}
