// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package device

var DefaultPhysicalPrefixes = FreeBSDPhysicalPrefixes
