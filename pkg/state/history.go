// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and sanview contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

// History is a fixed-capacity FIFO of samples. It starts full of zeros so a
// chart has something to draw on the first frame.
type History struct {
	values   []float64
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{values: make([]float64, capacity), capacity: capacity}
}

// Push appends v and evicts the oldest sample when full.
func (h *History) Push(v float64) {
	h.values = append(h.values, v)
	if over := len(h.values) - h.capacity; over > 0 {
		h.values = append(h.values[:0], h.values[over:]...)
	}
}

// Resize changes the capacity. Shrinking drops the oldest samples, growing
// pads the front with zeros so the newest sample stays at the right edge.
func (h *History) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	switch {
	case capacity < len(h.values):
		h.values = append([]float64(nil), h.values[len(h.values)-capacity:]...)
	case capacity > len(h.values):
		padded := make([]float64, capacity-len(h.values), capacity)
		h.values = append(padded, h.values...)
	}
	h.capacity = capacity
}

// Values returns a copy, oldest first.
func (h *History) Values() []float64 {
	return append([]float64(nil), h.values...)
}

// Last is the newest sample.
func (h *History) Last() float64 {
	if len(h.values) == 0 {
		return 0
	}
	return h.values[len(h.values)-1]
}

func (h *History) Len() int {
	return len(h.values)
}

func (h *History) Cap() int {
	return h.capacity
}
