// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNamingLinux(t *testing.T) {
	n := DefaultNaming()
	assert.True(t, n.IsPhysical("sda"))
	assert.True(t, n.IsPhysical("nvme0n1"))
	assert.False(t, n.IsPhysical("da0"))
	assert.False(t, n.IsPhysical("loop0"))
}
