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
	"os"
	"path/filepath"
	"testing"

	"github.com/tnfsd/tnfsd/internal/direngine"
	"github.com/tnfsd/tnfsd/internal/session"
	"github.com/tnfsd/tnfsd/internal/tnfserr"
	"github.com/tnfsd/tnfsd/internal/wire"
)

func newTestDispatcher(t *testing.T, root string) *Dispatcher {
	t.Helper()
	return &Dispatcher{
		Sessions:   session.NewTable(4096, 32),
		GlobalRoot: root,
	}
}

func buildRequest(sid uint16, seq, cmd byte, payload []byte) []byte {
	req := make([]byte, wire.ReqHeaderSize+len(payload))
	wire.WriteU16(req, 0, sid)
	req[2] = seq
	req[3] = cmd
	copy(req[wire.ReqHeaderSize:], payload)
	return req
}

func mountPayload(mountpoint string) []byte {
	p := make([]byte, 2)
	wire.WriteU16(p, 0, 0x0102)
	p = wire.AppendCString(p, mountpoint)
	p = wire.AppendCString(p, "")
	p = wire.AppendCString(p, "")
	return p
}

func mustMount(t *testing.T, d *Dispatcher, mountpoint string) (sid uint16, replyStatus tnfserr.Status) {
	t.Helper()
	req := buildRequest(0, 0, CmdMount, mountPayload(mountpoint))
	reply, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("MOUNT produced no reply")
	}
	if _, err := wire.ParseHeader(reply); err != nil {
		t.Fatalf("parsing reply header: %v", err)
	}
	status := tnfserr.Status(reply[4])
	if status != tnfserr.OK {
		t.Fatalf("MOUNT status = %v, want OK", status)
	}
	// The new sid is the first field of the MOUNT reply body, right
	// after the status byte; the reply header echoes the request's sid.
	return wire.ReadU16(reply, 5), status
}

func TestMountUmountRoundTrip(t *testing.T) {
	root := t.TempDir()
	d := newTestDispatcher(t, root)

	sid, _ := mustMount(t, d, "/")
	if sid == 0 {
		t.Fatalf("MOUNT returned sid 0")
	}
	if d.Sessions.FindBySID(sid) == nil {
		t.Fatalf("session %#04x not present after MOUNT", sid)
	}

	req := buildRequest(sid, 1, CmdUmount, nil)
	reply, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("UMOUNT produced no reply")
	}
	if status := tnfserr.Status(reply[4]); status != tnfserr.OK {
		t.Fatalf("UMOUNT status = %v, want OK", status)
	}
	if d.Sessions.FindBySID(sid) != nil {
		t.Fatalf("session %#04x still present after UMOUNT", sid)
	}
}

func TestRetransmittedMountReusesSessionInsteadOfAllocatingAnother(t *testing.T) {
	root := t.TempDir()
	d := newTestDispatcher(t, root)

	req := buildRequest(0, 0, CmdMount, mountPayload("/"))
	first, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("first MOUNT produced no reply")
	}
	if d.Sessions.Len() != 1 {
		t.Fatalf("session count after first MOUNT = %d, want 1", d.Sessions.Len())
	}

	// The client never saw the reply and resends the identical MOUNT
	// request (same seq, same source address). This must return the
	// cached reply from the session FindByOwner already found, not mint
	// a second session.
	second, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("retransmitted MOUNT produced no reply")
	}
	if string(second) != string(first) {
		t.Fatalf("retransmitted MOUNT reply differs from the original: %v vs %v", second, first)
	}
	if d.Sessions.Len() != 1 {
		t.Fatalf("session count after retransmitted MOUNT = %d, want still 1", d.Sessions.Len())
	}
}

func TestUnknownSIDRejected(t *testing.T) {
	root := t.TempDir()
	d := newTestDispatcher(t, root)

	req := buildRequest(0xBEEF, 0, CmdStat, wire.AppendCString(nil, "/"))
	reply, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("expected a reply for an unknown sid")
	}
	if status := tnfserr.Status(reply[4]); status != tnfserr.EBADSESSION {
		t.Fatalf("status = %v, want EBADSESSION", status)
	}
}

func TestPathEscapeClampsToGlobalRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "visible"), 0o755); err != nil {
		t.Fatalf("setup mkdir: %v", err)
	}
	d := newTestDispatcher(t, root)
	sid, _ := mustMount(t, d, "/")

	escape := wire.AppendCString(nil, "../../../../../../nonexistent-outside-root-xyz")
	req := buildRequest(sid, 1, CmdOpendir, escape)
	reply, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("OPENDIR produced no reply")
	}
	// If the escape attempt were not silently clamped to global_root,
	// this path would resolve to a nonexistent directory outside root
	// and fail with ENOENT. Clamping makes it equivalent to opening "/".
	if status := tnfserr.Status(reply[4]); status != tnfserr.OK {
		t.Fatalf("OPENDIR with an escaping path: status = %v, want OK (clamped to root)", status)
	}
}

func TestRetransmitReturnsCachedReplyWithoutReexecuting(t *testing.T) {
	root := t.TempDir()
	d := newTestDispatcher(t, root)
	sid, _ := mustMount(t, d, "/")

	mkdirPayload := wire.AppendCString(nil, "newdir")
	req := buildRequest(sid, 1, CmdMkdir, mkdirPayload)

	first, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("first MKDIR produced no reply")
	}
	if status := tnfserr.Status(first[4]); status != tnfserr.OK {
		t.Fatalf("first MKDIR status = %v, want OK", status)
	}

	// Resending the identical (sid, seq) must return the byte-identical
	// cached reply, not attempt to create the directory again (which
	// would otherwise fail with EEXIST).
	second, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("retransmitted MKDIR produced no reply")
	}
	if string(second) != string(first) {
		t.Fatalf("retransmit reply differs from the original: %v vs %v", second, first)
	}
}

func TestOpendirxSortsFoldersFirstThenByNameCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"banana.txt", "Apple.txt", "zzz-dir", "aaa-dir"} {
		if name == "zzz-dir" || name == "aaa-dir" {
			if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", name, err)
			}
			continue
		}
		if err := os.WriteFile(filepath.Join(root, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	d := newTestDispatcher(t, root)
	sid, _ := mustMount(t, d, "/")

	payload := []byte{0, 0, 0, 0}
	payload = wire.AppendCString(payload, "/")
	req := buildRequest(sid, 1, CmdOpendirx, payload)
	reply, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok {
		t.Fatalf("OPENDIRX produced no reply")
	}
	if status := tnfserr.Status(reply[4]); status != tnfserr.OK {
		t.Fatalf("OPENDIRX status = %v, want OK", status)
	}
	handle := reply[5]

	rdReq := buildRequest(sid, 2, CmdReaddirx, []byte{handle, 0})
	rdReply, ok := d.Dispatch("127.0.0.1:1700", -1, rdReq)
	if !ok {
		t.Fatalf("READDIRX produced no reply")
	}
	if status := tnfserr.Status(rdReply[4]); status != tnfserr.OK {
		t.Fatalf("READDIRX status = %v, want OK", status)
	}
	count := int(rdReply[5])
	if count != 4 {
		t.Fatalf("READDIRX returned %d entries, want 4", count)
	}
	dirStatus := rdReply[6]
	if dirStatus&direngine.DirStatusEOF == 0 {
		t.Fatalf("READDIRX dir_status = %#x, want EOF set", dirStatus)
	}
	if dirPos := wire.ReadU16(rdReply, 7); dirPos != 0 {
		t.Fatalf("READDIRX dirpos = %d, want 0", dirPos)
	}
	entries := rdReply[9:]
	for i, want := range []string{"aaa-dir", "zzz-dir", "Apple.txt", "banana.txt"} {
		got := firstEntryName(entries)
		if got != want {
			t.Fatalf("READDIRX entry %d = %q, want %q", i, got, want)
		}
		entries = entries[13+len(got)+1:]
	}
}

func TestReaddirxAppliesDirExtReverseWhenEnabledAndRequested(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(root, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	d := newTestDispatcher(t, root)
	d.EnableDirExt = true
	sid, _ := mustMount(t, d, "/")

	payload := []byte{0, 0, 0, 0}
	payload = wire.AppendCString(payload, "/")
	req := buildRequest(sid, 1, CmdOpendirx, payload)
	reply, ok := d.Dispatch("127.0.0.1:1700", -1, req)
	if !ok || tnfserr.Status(reply[4]) != tnfserr.OK {
		t.Fatalf("OPENDIRX failed: ok=%v reply=%v", ok, reply)
	}
	handle := reply[5]

	// Baseline (no ext_opt byte): ascending order, unaffected even
	// though the server has the extension enabled.
	baseReq := buildRequest(sid, 2, CmdReaddirx, []byte{handle, 0})
	baseReply, ok := d.Dispatch("127.0.0.1:1700", -1, baseReq)
	if !ok || tnfserr.Status(baseReply[4]) != tnfserr.OK {
		t.Fatalf("READDIRX (baseline) failed: ok=%v reply=%v", ok, baseReply)
	}
	if first := firstEntryName(baseReply[9:]); first != "a" {
		t.Fatalf("baseline first entry = %q, want %q", first, "a")
	}

	// Reopen to reset the cursor, then request with the ext_opt byte
	// set to ExtReverse.
	req2 := buildRequest(sid, 3, CmdOpendirx, payload)
	reply2, ok := d.Dispatch("127.0.0.1:1700", -1, req2)
	if !ok || tnfserr.Status(reply2[4]) != tnfserr.OK {
		t.Fatalf("OPENDIRX (2nd) failed: ok=%v reply=%v", ok, reply2)
	}
	handle2 := reply2[5]

	extReq := buildRequest(sid, 4, CmdReaddirx, []byte{handle2, 0, direngine.ExtReverse})
	extReply, ok := d.Dispatch("127.0.0.1:1700", -1, extReq)
	if !ok || tnfserr.Status(extReply[4]) != tnfserr.OK {
		t.Fatalf("READDIRX (ext) failed: ok=%v reply=%v", ok, extReply)
	}
	if first := firstEntryName(extReply[9:]); first != "c" {
		t.Fatalf("reversed first entry = %q, want %q", first, "c")
	}
}

// firstEntryName extracts the EntryPath of the first READDIRX entry
// from the entry list that follows the 4-byte count/status/dirpos
// header: flags(1) size(4) mtime(4) ctime(4) then a NUL-terminated name.
func firstEntryName(entries []byte) string {
	nameStart := 13
	end := nameStart
	for end < len(entries) && entries[end] != 0 {
		end++
	}
	return string(entries[nameStart:end])
}
