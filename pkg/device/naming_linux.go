// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package device

// DefaultPhysicalPrefixes matches the names sysfs lists under class/block.
var DefaultPhysicalPrefixes = LinuxPhysicalPrefixes
