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

import "path/filepath"

// Traverse recursively flattens absPath's subtree into a single entry
// list, applying the same per-directory filter/pattern rules as Load
// at every level, then sorting the flattened result as a whole. This
// is the recursive variant described in spec.md section 4.5 for
// DIROPT.TRAVERSE on a non-reused handle; entrypath for nested entries
// is the path relative to absPath so the client can address them
// directly.
func Traverse(absPath string, opt LoadOptions) ([]Entry, error) {
	var all []Entry
	if err := walk(absPath, "", opt, &all); err != nil {
		return nil, err
	}
	sortEntries(all, opt.SortOpt)
	return all, nil
}

func walk(dir, prefix string, opt LoadOptions, out *[]Entry) error {
	// MaxResults is not threaded through recursive levels: spec.md
	// leaves traversal's own pagination contract to the (out-of-core)
	// traversal collaborator, so unbounded accumulation here is correct
	// for the baseline, non-streaming implementation.
	unbounded := opt
	unbounded.MaxResults = 0

	entries, err := Load(dir, unbounded)
	if err != nil {
		return err
	}
	for _, e := range entries {
		rel := e.EntryPath
		if prefix != "" {
			rel = filepath.Join(prefix, e.EntryPath)
		}
		flat := e
		flat.EntryPath = rel
		*out = append(*out, flat)
		if e.IsDir() {
			if err := walk(filepath.Join(dir, e.EntryPath), rel, opt, out); err != nil {
				return err
			}
		}
	}
	return nil
}
