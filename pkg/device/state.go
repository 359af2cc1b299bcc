// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"strings"
)

// MultipathState is the aggregate health of a redundant group.
type MultipathState int

const (
	MultipathUnknown MultipathState = iota
	MultipathOptimal
	MultipathDegraded
	MultipathFailed
)

var multipathStateNames = map[MultipathState]string{
	MultipathUnknown:  "UNKNOWN",
	MultipathOptimal:  "OPTIMAL",
	MultipathDegraded: "DEGRADED",
	MultipathFailed:   "FAILED",
}

// ParseMultipathState never fails; anything unrecognised is MultipathUnknown.
func ParseMultipathState(s string) MultipathState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPTIMAL":
		return MultipathOptimal
	case "DEGRADED":
		return MultipathDegraded
	case "FAILED":
		return MultipathFailed
	default:
		return MultipathUnknown
	}
}

func (s MultipathState) String() string {
	if name, ok := multipathStateNames[s]; ok {
		return name
	}
	return multipathStateNames[MultipathUnknown]
}

func (s MultipathState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *MultipathState) UnmarshalText(b []byte) error {
	*s = ParseMultipathState(string(b))
	return nil
}

// PathState classifies one access path of a multipath device.
type PathState int

const (
	PathUnknown PathState = iota
	PathActive
	PathPassive
	PathFailed
)

func ParsePathState(s string) PathState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return PathActive
	case "PASSIVE":
		return PathPassive
	case "FAIL", "FAILED":
		return PathFailed
	default:
		return PathUnknown
	}
}

func (s PathState) String() string {
	switch s {
	case PathActive:
		return "ACTIVE"
	case PathPassive:
		return "PASSIVE"
	case PathFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s PathState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PathState) UnmarshalText(b []byte) error {
	*s = ParsePathState(string(b))
	return nil
}

// PoolRole is the function of a device inside its pool.
type PoolRole int

const (
	RoleData PoolRole = iota
	RoleLog
	RoleCache
	RoleSpare
)

// ParsePoolRole maps a zpool status section header to a role.
func ParsePoolRole(section string) (PoolRole, error) {
	switch strings.ToLower(strings.TrimSpace(section)) {
	case "", "data":
		return RoleData, nil
	case "logs", "log", "slog":
		return RoleLog, nil
	case "cache":
		return RoleCache, nil
	case "spares", "spare":
		return RoleSpare, nil
	default:
		return RoleData, fmt.Errorf("unknown pool role %q", section)
	}
}

func (r PoolRole) String() string {
	switch r {
	case RoleLog:
		return "slog"
	case RoleCache:
		return "cache"
	case RoleSpare:
		return "spare"
	default:
		return "data"
	}
}

func (r PoolRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *PoolRole) UnmarshalText(b []byte) error {
	role, err := ParsePoolRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
