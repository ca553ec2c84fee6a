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
	"math/rand/v2"
	"strings"
)

// ExtOpt bits: a trailing, optional byte a TNFS_DIR_EXT-aware client
// appends to READDIRX's baseline dir_handle(u8) max_entries(u8)
// payload. A baseline client that never sends the byte gets ext_opt=0,
// i.e. no transformation, regardless of EnableDirExt.
const (
	ExtShuffle  uint8 = 1 << 0
	ExtReverse  uint8 = 1 << 1
	ExtCaseFold uint8 = 1 << 2
)

// DirExt implements the TNFS_DIR_EXT alternate surface named in
// spec.md section 9: shuffle, reverse, and case-fold at readdir time.
// It is an optional extension, not part of the baseline contract —
// callers gate it behind a server-level flag (server.Config.EnableDirExt,
// carried as Dispatcher.EnableDirExt) and must not apply it unless a
// client has opted in.
type DirExt struct {
	Shuffle  bool
	Reverse  bool
	CaseFold bool // lowercases every EntryPath in the returned view
}

// ParseDirExt decodes a READDIRX request's trailing ext_opt byte.
func ParseDirExt(b uint8) DirExt {
	return DirExt{
		Shuffle:  b&ExtShuffle != 0,
		Reverse:  b&ExtReverse != 0,
		CaseFold: b&ExtCaseFold != 0,
	}
}

// Apply returns a new slice (the input is left untouched, since the
// underlying handle's materialized list must stay stable for
// telldir/seekdir) with ext's transformations applied.
func (ext DirExt) Apply(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	if ext.CaseFold {
		for i := range out {
			out[i].EntryPath = strings.ToLower(out[i].EntryPath)
		}
	}
	if ext.Reverse {
		reverse(out)
	}
	if ext.Shuffle {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}
