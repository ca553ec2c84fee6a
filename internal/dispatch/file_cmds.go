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
	"io"
	"os"

	"github.com/tnfsd/tnfsd/internal/fsops"
	"github.com/tnfsd/tnfsd/internal/session"
	"github.com/tnfsd/tnfsd/internal/tnfserr"
	"github.com/tnfsd/tnfsd/internal/wire"
)

// cmdOpen: flags(u16 LE) mode(u16 LE) path(cstring) -> fd(u8).
func (d *Dispatcher) cmdOpen(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 4 {
		return tnfserr.EINVAL, nil
	}
	flags := wire.ReadU16(payload, 0)
	mode := wire.ReadU16(payload, 2)
	path, _, err := wire.ReadCString(payload, 4)
	if err != nil {
		return tnfserr.EINVAL, nil
	}

	abs := d.root(sess).Resolve(path)
	f, err := fsops.Open(abs, int(flags), os.FileMode(mode))
	if err != nil {
		return tnfserr.FromError(err), nil
	}
	idx, err := sess.Files.Alloc(f, abs)
	if err != nil {
		f.Close()
		return tnfserr.EMFILE, nil
	}
	return tnfserr.OK, []byte{byte(idx)}
}

// cmdRead: fd(u8) size(u16 LE) -> data.
func (d *Dispatcher) cmdRead(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 3 {
		return tnfserr.EINVAL, nil
	}
	idx := int(payload[0])
	size := int(wire.ReadU16(payload, 1))
	if size > wire.MaxPayload {
		size = wire.MaxPayload
	}
	slot, err := sess.Files.Get(idx)
	if err != nil {
		return tnfserr.EBADF, nil
	}
	buf := make([]byte, size)
	n, err := slot.FD.Read(buf)
	if n == 0 && err != nil {
		if err == io.EOF {
			return tnfserr.EOF, nil
		}
		return tnfserr.FromError(err), nil
	}
	return tnfserr.OK, buf[:n]
}

// cmdWrite: fd(u8) size(u16 LE) data -> bytes_written(u16 LE).
func (d *Dispatcher) cmdWrite(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 3 {
		return tnfserr.EINVAL, nil
	}
	idx := int(payload[0])
	size := int(wire.ReadU16(payload, 1))
	if len(payload) < 3+size {
		return tnfserr.EINVAL, nil
	}
	slot, err := sess.Files.Get(idx)
	if err != nil {
		return tnfserr.EBADF, nil
	}
	n, err := slot.FD.Write(payload[3 : 3+size])
	if err != nil {
		return tnfserr.FromError(err), nil
	}
	out := make([]byte, 2)
	wire.WriteU16(out, 0, uint16(n))
	return tnfserr.OK, out
}

// cmdClose: fd(u8) -> (no body).
func (d *Dispatcher) cmdClose(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 1 {
		return tnfserr.EINVAL, nil
	}
	if err := sess.Files.Close(int(payload[0])); err != nil {
		return tnfserr.EBADF, nil
	}
	return tnfserr.OK, nil
}

// cmdLseek: fd(u8) whence(u8) offset(i32 LE) -> new_offset(u32 LE).
func (d *Dispatcher) cmdLseek(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	if len(payload) < 6 {
		return tnfserr.EINVAL, nil
	}
	idx := int(payload[0])
	whence := int(payload[1])
	offset := int64(int32(wire.ReadU32(payload, 2)))
	slot, err := sess.Files.Get(idx)
	if err != nil {
		return tnfserr.EBADF, nil
	}
	newOff, err := fsops.Seek(slot.FD, offset, whence)
	if err != nil {
		return tnfserr.FromError(err), nil
	}
	out := make([]byte, 4)
	wire.WriteU32(out, 0, uint32(newOff))
	return tnfserr.OK, out
}

// cmdStat: path(cstring) -> flags(u8) size(u32 LE) mtime(u32 LE) ctime(u32 LE).
func (d *Dispatcher) cmdStat(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	path, _, err := wire.ReadCString(payload, 0)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	size, mtime, ctime, isDir, err := fsops.Stat(d.root(sess).Resolve(path))
	if err != nil {
		return tnfserr.FromError(err), nil
	}
	var flags byte
	if isDir {
		flags = 1
	}
	out := make([]byte, 13)
	out[0] = flags
	wire.WriteU32(out, 1, size)
	wire.WriteU32(out, 5, mtime)
	wire.WriteU32(out, 9, ctime)
	return tnfserr.OK, out
}

// cmdChmod: path(cstring) mode(u16 LE) -> (no body).
func (d *Dispatcher) cmdChmod(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	path, next, err := wire.ReadCString(payload, 0)
	if err != nil || next+2 > len(payload) {
		return tnfserr.EINVAL, nil
	}
	mode := wire.ReadU16(payload, next)
	if err := fsops.Chmod(d.root(sess).Resolve(path), os.FileMode(mode)); err != nil {
		return tnfserr.FromError(err), nil
	}
	return tnfserr.OK, nil
}

// cmdRename: oldpath(cstring) newpath(cstring) -> (no body).
func (d *Dispatcher) cmdRename(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	oldPath, next, err := wire.ReadCString(payload, 0)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	newPath, _, err := wire.ReadCString(payload, next)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	root := d.root(sess)
	if err := fsops.Rename(root.Resolve(oldPath), root.Resolve(newPath)); err != nil {
		return tnfserr.FromError(err), nil
	}
	return tnfserr.OK, nil
}

// cmdUnlink: path(cstring) -> (no body).
func (d *Dispatcher) cmdUnlink(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	path, _, err := wire.ReadCString(payload, 0)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	if err := fsops.Unlink(d.root(sess).Resolve(path)); err != nil {
		return tnfserr.FromError(err), nil
	}
	return tnfserr.OK, nil
}

// cmdMkdir: path(cstring) -> (no body).
func (d *Dispatcher) cmdMkdir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	path, _, err := wire.ReadCString(payload, 0)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	if err := fsops.Mkdir(d.root(sess).Resolve(path), 0o755); err != nil {
		return tnfserr.FromError(err), nil
	}
	return tnfserr.OK, nil
}

// cmdRmdir: path(cstring) -> (no body).
func (d *Dispatcher) cmdRmdir(sess *session.Session, payload []byte) (tnfserr.Status, []byte) {
	path, _, err := wire.ReadCString(payload, 0)
	if err != nil {
		return tnfserr.EINVAL, nil
	}
	if err := fsops.Rmdir(d.root(sess).Resolve(path)); err != nil {
		return tnfserr.FromError(err), nil
	}
	return tnfserr.OK, nil
}

// cmdSize: (no body) -> total_bytes(u32 LE).
func (d *Dispatcher) cmdSize(sess *session.Session, _ []byte) (tnfserr.Status, []byte) {
	_, total, err := fsops.FreeSpace(d.root(sess).Resolve(""))
	if err != nil {
		return tnfserr.FromError(err), nil
	}
	out := make([]byte, 4)
	wire.WriteU32(out, 0, uint32(total))
	return tnfserr.OK, out
}

// cmdFree: (no body) -> free_bytes(u32 LE).
func (d *Dispatcher) cmdFree(sess *session.Session, _ []byte) (tnfserr.Status, []byte) {
	free, _, err := fsops.FreeSpace(d.root(sess).Resolve(""))
	if err != nil {
		return tnfserr.FromError(err), nil
	}
	out := make([]byte, 4)
	wire.WriteU32(out, 0, uint32(free))
	return tnfserr.OK, out
}
