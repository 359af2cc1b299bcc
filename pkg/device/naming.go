// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"strings"
)

const (
	DefaultMultipathPrefix = "multipath/"
)

var (
	// FreeBSDPhysicalPrefixes are the CAM (da) and NVMe (nda) disk names.
	FreeBSDPhysicalPrefixes = []string{"da", "nda"}
	// LinuxPhysicalPrefixes are the SCSI (sd) and NVMe namespace disk names.
	LinuxPhysicalPrefixes = []string{"sd", "nvme"}
)

// Naming captures the array's device naming convention.
type Naming struct {
	PhysicalPrefixes []string
	MultipathPrefix  string
}

// DefaultNaming uses the disk names of the platform the binary was built for.
func DefaultNaming() Naming {
	return NamingFor(DefaultPhysicalPrefixes)
}

// NamingFor builds a Naming with the default multipath prefix.
func NamingFor(prefixes []string) Naming {
	return Naming{
		PhysicalPrefixes: append([]string(nil), prefixes...),
		MultipathPrefix:  DefaultMultipathPrefix,
	}
}

func (n Naming) IsPhysical(name string) bool {
	for _, p := range n.PhysicalPrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (n Naming) IsMultipath(name string) bool {
	return n.MultipathPrefix != "" && strings.HasPrefix(name, n.MultipathPrefix)
}

// Tracked reports whether the differ should keep a device with this name.
func (n Naming) Tracked(name string) bool {
	return n.IsPhysical(name) || n.IsMultipath(name)
}

// MultipathName builds the group key from a bare label.
func (n Naming) MultipathName(label string) string {
	return n.MultipathPrefix + label
}

// StripPartition removes a trailing "p<digits>" partition suffix,
// e.g. multipath/2MVULJ1Ap1 -> multipath/2MVULJ1A.
func StripPartition(name string) string {
	idx := strings.LastIndexByte(name, 'p')
	if idx < 0 || idx == len(name)-1 {
		return name
	}
	for _, c := range name[idx+1:] {
		if c < '0' || c > '9' {
			return name
		}
	}
	return name[:idx]
}
