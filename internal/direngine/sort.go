/*
Copyright 2026 The TNFS Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package direngine

import (
	"sort"
	"strings"
)

// SortOpt bits, spec.md section 4.5. The zero value is case-insensitive
// ascending by name.
type SortOpt uint8

const (
	SortNone       SortOpt = 0
	SortCase       SortOpt = 1 << 0
	SortDescending SortOpt = 1 << 1
	SortModified   SortOpt = 1 << 2
	SortBySize     SortOpt = 1 << 3
)

// sortEntries sorts entries in place per opt. The legacy implementation
// merge-sorts a linked list; sort.SliceStable over the materialized
// slice gives the same stable ordering with better cache behavior
// (spec.md section 9 explicitly allows this substitution).
func sortEntries(entries []Entry, opt SortOpt) {
	less := func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case opt&SortBySize != 0:
			return a.Size < b.Size
		case opt&SortModified != 0:
			return a.MTime < b.MTime
		default:
			an, bn := a.EntryPath, b.EntryPath
			if opt&SortCase == 0 {
				an, bn = strings.ToLower(an), strings.ToLower(bn)
			}
			return an < bn
		}
	}
	sort.SliceStable(entries, less)
	if opt&SortDescending != 0 {
		reverse(entries)
	}
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
