// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package ses

const DefaultDir = DefaultSysfsEnclosureDir

// HotplugWatch is false because sysfs emits no inotify events for
// kernel-created enclosure entries.
const HotplugWatch = false

// NewSystemOpener reads the enclosure class from sysfs.
func NewSystemOpener(dir string) Opener {
	if dir == "" {
		dir = DefaultDir
	}
	return SysfsOpener{Dir: dir}
}
