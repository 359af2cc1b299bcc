// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNamingFreeBSD(t *testing.T) {
	n := DefaultNaming()
	assert.True(t, n.IsPhysical("da3"))
	assert.True(t, n.IsPhysical("nda0"))
	assert.False(t, n.IsPhysical("sda"))
}
