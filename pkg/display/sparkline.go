// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"fmt"
	"strings"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the newest width values of series, scaled to ceiling. A ceiling of
// zero scales to the largest value in the window.
func Sparkline(series []float64, width int, ceiling float64) string {
	if width <= 0 || len(series) == 0 {
		return ""
	}
	if len(series) > width {
		series = series[len(series)-width:]
	}
	if ceiling <= 0 {
		for _, v := range series {
			if v > ceiling {
				ceiling = v
			}
		}
	}

	var b strings.Builder
	for _, v := range series {
		idx := 0
		if ceiling > 0 && v > 0 {
			idx = int(v / ceiling * float64(len(sparkRunes)-1))
			if idx >= len(sparkRunes) {
				idx = len(sparkRunes) - 1
			}
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

// busyColor maps a utilisation to the dashboard's traffic light.
func busyColor(pct float64) string {
	switch {
	case pct >= 80:
		return colorRed
	case pct >= 50:
		return colorYellow
	default:
		return colorGreen
	}
}

// HumanBytes formats a byte count with binary units.
func HumanBytes(b float64) string {
	units := []string{"B", "K", "M", "G", "T", "P"}
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f%s", b, units[i])
	}
	return fmt.Sprintf("%.1f%s", b, units[i])
}
