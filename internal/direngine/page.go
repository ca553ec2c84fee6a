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

import "github.com/tnfsd/tnfsd/internal/wire"

// DirStatusEOF is set in the READDIRX reply's dir_status byte once the
// cursor reaches the end of the entry list after the returned batch.
const DirStatusEOF uint8 = 1 << 0

// entryWireSize is flags(1) + size(4) + mtime(4) + ctime(4) + name + NUL.
func entryWireSize(e Entry) int {
	return 1 + 4 + 4 + 4 + len(e.EntryPath) + 1
}

// Page is one READDIRX response: the entries returned, the dirpos of
// the first one, and whether the cursor is at EOF after this batch.
type Page struct {
	Entries   []Entry
	DirPos    uint16
	EOF       bool
	NextIndex int
}

// ReadPage materializes the next batch of entries starting at cursor,
// per spec.md section 4.5's READDIRX termination priority: requested
// count reached, next entry would overflow the payload budget, or the
// cursor is exhausted — whichever comes first. reqCount == 0 means
// "fill the datagram".
func ReadPage(entries []Entry, cursor int, reqCount uint8) Page {
	if cursor >= len(entries) {
		return Page{DirPos: uint16(cursor), EOF: true, NextIndex: cursor}
	}

	// 4 bytes of READDIRX response header precede the entry list.
	budget := wire.MaxPayload - 4
	start := cursor
	i := cursor
	for i < len(entries) {
		if reqCount != 0 && uint8(i-start) >= reqCount {
			break
		}
		sz := entryWireSize(entries[i])
		if sz > budget {
			break
		}
		budget -= sz
		i++
	}

	return Page{
		Entries:   entries[start:i],
		DirPos:    uint16(start),
		EOF:       i >= len(entries),
		NextIndex: i,
	}
}

// EncodeEntries appends the wire form of entries (flags, size, mtime,
// ctime, NUL-terminated name, each little-endian) to buf.
func EncodeEntries(buf []byte, entries []Entry) []byte {
	for _, e := range entries {
		buf = append(buf, e.Flags)
		sz := make([]byte, 4)
		wire.WriteU32(sz, 0, e.Size)
		buf = append(buf, sz...)
		mt := make([]byte, 4)
		wire.WriteU32(mt, 0, e.MTime)
		buf = append(buf, mt...)
		ct := make([]byte, 4)
		wire.WriteU32(ct, 0, e.CTime)
		buf = append(buf, ct...)
		buf = wire.AppendCString(buf, e.EntryPath)
	}
	return buf
}
