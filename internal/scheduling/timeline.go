/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import "sort"

// ResourceTimeline tracks the latest committed end time per named resource.
//
// It keeps one scalar per resource rather than an interval list: activities
// sharing a resource are serialized in processing order, while activities
// with disjoint resource sets may overlap freely.
type ResourceTimeline struct {
	ends map[string]int64
}

// NewResourceTimeline returns an empty timeline.
func NewResourceTimeline() *ResourceTimeline {
	return &ResourceTimeline{ends: make(map[string]int64)}
}

// EarliestStart is the max committed end over resources, or 0 when none has been used.
func (t *ResourceTimeline) EarliestStart(resources []string) int64 {
	var start int64
	for _, r := range resources {
		if end, ok := t.ends[r]; ok && end > start {
			start = end
		}
	}
	return start
}

// Commit advances every named resource to end. A resource never moves backwards.
func (t *ResourceTimeline) Commit(resources []string, end int64) {
	for _, r := range resources {
		if cur, ok := t.ends[r]; ok && cur >= end {
			continue
		}
		t.ends[r] = end
	}
}

// EndOf returns the committed end time for a resource.
func (t *ResourceTimeline) EndOf(resource string) (int64, bool) {
	end, ok := t.ends[resource]
	return end, ok
}

// Resources lists tracked resource names in sorted order.
func (t *ResourceTimeline) Resources() []string {
	names := make([]string, 0, len(t.ends))
	for r := range t.ends {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current state.
func (t *ResourceTimeline) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(t.ends))
	for r, end := range t.ends {
		out[r] = end
	}
	return out
}
