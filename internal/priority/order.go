/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package priority

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidDirection indicates an unknown sort direction was requested.
var ErrInvalidDirection = errors.New("invalid priority direction")

// Direction selects which end of the priority range is processed first.
type Direction string

const (
	// Ascending processes lower numeric priority values first.
	Ascending Direction = "ascending"
	// Descending processes higher numeric priority values first.
	Descending Direction = "descending"
)

// ParseDirection accepts "ascending"/"asc" and "descending"/"desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// Precedes reports whether priority a is processed strictly before priority b.
// Equal priorities never precede each other; callers break ties by input order.
func Precedes(a, b int, dir Direction) bool {
	if dir == Descending {
		return a > b
	}
	return a < b
}

// Order returns the indices of items in processing order. The sort is stable:
// items with equal priority keep their relative input order.
func Order[T any](items []T, key func(T) int, dir Direction) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return Precedes(key(items[idx[i]]), key(items[idx[j]]), dir)
	})
	return idx
}

// Sort returns a new slice holding items in processing order. The input is not modified.
func Sort[T any](items []T, key func(T) int, dir Direction) []T {
	out := make([]T, 0, len(items))
	for _, i := range Order(items, key, dir) {
		out = append(out, items[i])
	}
	return out
}
