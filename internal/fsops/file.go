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

package fsops

import (
	"os"
)

// OpenFlags name the os.OpenFile flags this daemon supports. The OPEN
// handler passes the client's flags value to Open unchanged, so these
// are the host's own flag values.
const (
	ORead   = os.O_RDONLY
	OWrite  = os.O_WRONLY
	ORdWr   = os.O_RDWR
	OCreat  = os.O_CREATE
	OTrunc  = os.O_TRUNC
	OExcl   = os.O_EXCL
	OAppend = os.O_APPEND
)

// Open opens absPath with the given os.OpenFile flags and permission
// bits, matching the stat-then-wrap style of the disk-backed blob
// storage in the retrieval pack (localdisk.go's receive path): the
// caller stores the returned *os.File in a handle.FileSlot.
func Open(absPath string, flags int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(absPath, flags, perm)
}

// Seek repositions f per whence (0=set, 1=cur, 2=end), returning the
// new absolute offset.
func Seek(f *os.File, offset int64, whence int) (int64, error) {
	return f.Seek(offset, whence)
}

// Stat returns the size, mtime, ctime, and whether absPath is a
// directory, with the numbers in the same representation
// direngine.Entry uses. ctime is reported as the mtime.
func Stat(absPath string) (size uint32, mtime, ctime uint32, isDir bool, err error) {
	fi, err := os.Stat(absPath)
	if err != nil {
		return 0, 0, 0, false, err
	}
	return uint32(fi.Size()), uint32(fi.ModTime().Unix()), uint32(fi.ModTime().Unix()), fi.IsDir(), nil
}

// Chmod applies mode bits to absPath.
func Chmod(absPath string, mode os.FileMode) error {
	return os.Chmod(absPath, mode)
}

// Rename moves oldPath to newPath; both must already be
// containment-resolved by the caller.
func Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Unlink removes a single file (not a directory).
func Unlink(absPath string) error {
	return os.Remove(absPath)
}
