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

package dispatch

import (
	"time"

	"github.com/tnfsd/tnfsd/internal/direngine"
	"github.com/tnfsd/tnfsd/internal/session"
	"github.com/tnfsd/tnfsd/internal/tnfserr"
	"github.com/tnfsd/tnfsd/internal/wire"
)

// cmdOpendir implements the legacy (non-extended) OPENDIR: path(cstring)
// -> dir_handle(u8). It always (re)loads the directory with default
// options — folders first, hidden/special skipped, no pattern —
// matching spec.md section 4.5's baseline OPENDIR behavior.
func (d *Dispatcher) cmdOpendir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	path, _, err := wire.ReadCString(payload, 0)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	abs := d.root(sess).Resolve(path)

	idx, reused, err := sess.Dirs.Alloc(time.Now(), false, abs, "", 0, 0)
	if err != nil {
		return tnfserr.ENOHANDLE, nil
	}
	slot, _ := sess.Dirs.Get(idx)
	if !reused {
		entries, err := direngine.Load(abs, direngine.LoadOptions{})
		if err != nil {
			return tnfserr.FromError(err), nil
		}
		slot.Path = abs
		slot.DirOpt = 0
		slot.SortOpt = 0
		slot.Loaded = true
		slot.Entries = entries
		slot.Cursor = 0
	}
	return tnfserr.OK, []byte{byte(idx)}
}

// cmdOpendirx implements the extended OPENDIRX: dir_opt(u8) sort_opt(u8)
// max_results(u16 LE) pattern(cstring) path(cstring) -> dir_handle(u8).
// When only one cstring follows the fixed fields it is the path and the
// pattern is empty. The pattern filters files, and directories too when
// DirPattern is set. A matching, loaded-but-closed handle is reused
// verbatim per spec.md section 4.4's three-tier allocation.
func (d *Dispatcher) cmdOpendirx(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 4 {
		return tnfserr.EINVAL, nil
	}
	dirOpt := direngine.DirOpt(payload[0])
	sortOpt := direngine.SortOpt(payload[1])
	maxResults := wire.ReadU16(payload, 2)

	pattern, next, err := wire.ReadCString(payload, 4)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	path, _, err := wire.ReadCString(payload, next)
	if err != nil {
		// Only one cstring: it is the path, with no pattern.
		path, pattern = pattern, ""
	}
	abs := d.root(sess).Resolve(path)

	idx, reused, err := sess.Dirs.Alloc(time.Now(), true, abs, pattern, dirOpt, sortOpt)
	if err != nil {
		return tnfserr.ENOHANDLE, nil
	}
	slot, _ := sess.Dirs.Get(idx)
	if !reused {
		opts := direngine.LoadOptions{DirOpt: dirOpt, SortOpt: sortOpt, MaxResults: maxResults, Pattern: pattern}
		var entries []direngine.Entry
		var err error
		if dirOpt&direngine.OptTraverse != 0 {
			entries, err = direngine.Traverse(abs, opts)
		} else {
			entries, err = direngine.Load(abs, opts)
		}
		if err != nil {
			return tnfserr.FromError(err), nil
		}
		slot.Path = abs
		slot.Pattern = pattern
		slot.DirOpt = dirOpt
		slot.SortOpt = sortOpt
		slot.Loaded = true
		slot.Entries = entries
		slot.Cursor = 0
	}
	return tnfserr.OK, []byte{byte(idx)}
}

// cmdReaddirx implements READDIRX: dir_handle(u8) max_entries(u8)
// [ext_opt(u8)] -> count(u8) dir_status(u8) dirpos(u16 LE) [entries...].
// ext_opt is the optional trailing TNFS_DIR_EXT byte (spec.md section
// 9): present only when a dir-ext-aware client sends it, and only
// honored when the server was started with EnableDirExt. dirpos is the
// position of the first entry returned, as TELLDIR would report it.
// Pagination stops at whichever of requested count, payload budget, or
// end-of-list comes first (spec.md section 4.5).
func (d *Dispatcher) cmdReaddirx(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 2 {
		return tnfserr.EINVAL, nil
	}
	idx := int(payload[0])
	reqCount := payload[1]

	slot, err := sess.Dirs.Get(idx)
	if err != nil {
		return tnfserr.EBADF, nil
	}
	if !slot.Loaded {
		return tnfserr.EBADF, nil
	}

	view := slot.Entries
	if d.EnableDirExt && len(payload) >= 3 {
		// TNFS_DIR_EXT views never mutate the handle's canonical entry
		// list, so seekdir/telldir positions stay meaningful — see
		// direngine.DirExt.Apply.
		ext := direngine.ParseDirExt(payload[2])
		view = ext.Apply(view)
	}

	page := direngine.ReadPage(view, slot.Cursor, reqCount)
	slot.Cursor = page.NextIndex

	var status uint8
	if page.EOF {
		status = direngine.DirStatusEOF
	}
	body := make([]byte, 4, 4+len(page.Entries)*16)
	body[0] = uint8(len(page.Entries))
	body[1] = status
	wire.WriteU16(body, 2, page.DirPos)
	body = direngine.EncodeEntries(body, page.Entries)
	return tnfserr.OK, body
}

// cmdReaddir implements legacy READDIR: dir_handle(u8) -> one
// NUL-terminated filename per call, or EOF once the cursor is
// exhausted.
func (d *Dispatcher) cmdReaddir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 1 {
		return tnfserr.EINVAL, nil
	}
	idx := int(payload[0])
	slot, err := sess.Dirs.Get(idx)
	if err != nil {
		return tnfserr.EBADF, nil
	}
	if !slot.Loaded || slot.Cursor >= len(slot.Entries) {
		return tnfserr.EOF, nil
	}
	name := slot.Entries[slot.Cursor].EntryPath
	slot.Cursor++
	return tnfserr.OK, wire.AppendCString(nil, name)
}

// cmdClosedir implements CLOSEDIR: dir_handle(u8) -> (no body). The
// handle's entry list survives the close, per spec.md section 3, so a
// matching OPENDIRX with reuse requested can pick it back up.
func (d *Dispatcher) cmdClosedir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 1 {
		return tnfserr.EINVAL, nil
	}
	if err := sess.Dirs.Close(int(payload[0])); err != nil {
		return tnfserr.EBADF, nil
	}
	return tnfserr.OK, nil
}

// cmdSeekdir implements SEEKDIR: dir_handle(u8) position(u16 LE) ->
// (no body). The position is an index into the handle's materialized
// entry slice, the sanctioned substitution for the legacy linked-list
// offset (spec.md section 9).
func (d *Dispatcher) cmdSeekdir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 3 {
		return tnfserr.EINVAL, nil
	}
	idx := int(payload[0])
	pos := int(wire.ReadU16(payload, 1))
	slot, err := sess.Dirs.Get(idx)
	if err != nil {
		return tnfserr.EBADF, nil
	}
	if pos < 0 || pos > len(slot.Entries) {
		return tnfserr.EINVAL, nil
	}
	slot.Cursor = pos
	return tnfserr.OK, nil
}

// cmdTelldir implements TELLDIR: dir_handle(u8) -> position(u16 LE).
func (d *Dispatcher) cmdTelldir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 1 {
		return tnfserr.EINVAL, nil
	}
	slot, err := sess.Dirs.Get(int(payload[0]))
	if err != nil {
		return tnfserr.EBADF, nil
	}
	out := make([]byte, 2)
	wire.WriteU16(out, 0, uint16(slot.Cursor))
	return tnfserr.OK, out
}
