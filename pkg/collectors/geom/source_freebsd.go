// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build freebsd

package geom

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

type sysctlSource struct{}

// NewSystemSource reads devstat counters through the kern.devstat.all sysctl.
func NewSystemSource() (Source, error) {
	if _, err := unix.SysctlRaw("kern.devstat.all"); err != nil {
		return nil, fmt.Errorf("error reading kern.devstat.all: %w", err)
	}
	return sysctlSource{}, nil
}

func (sysctlSource) Snapshot() (*Snapshot, error) {
	buf, err := unix.SysctlRaw("kern.devstat.all")
	taken := time.Now()
	if err != nil {
		return nil, fmt.Errorf("error reading kern.devstat.all: %w", err)
	}
	return parseDevstat(buf, taken)
}

// NewSystemTree parses the GEOM mesh from kern.geom.confxml.
func NewSystemTree() (Tree, error) {
	t, err := newIndexTree(loadConfXML)
	if err != nil {
		return nil, fmt.Errorf("error creating geom tree: %w", err)
	}
	return t, nil
}

func loadConfXML() (map[string]Ident, error) {
	doc, err := unix.Sysctl("kern.geom.confxml")
	if err != nil {
		return nil, fmt.Errorf("error reading kern.geom.confxml: %w", err)
	}
	return parseConfXML([]byte(doc))
}
