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

// Package tnfserr maps host errno values (and the handful of protocol-
// level conditions that aren't filesystem errors) onto the fixed TNFS
// status byte table.
package tnfserr

import (
	"errors"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status is a single TNFS wire status byte. 0 means success.
type Status uint8

// The fixed TNFS status table (spec.md section 4.2).
const (
	OK             Status = 0
	EPERM          Status = 1
	ENOENT         Status = 2
	EIO            Status = 5
	EBADF          Status = 9
	EACCES         Status = 13
	EEXIST         Status = 17
	ENOTDIR        Status = 20
	EISDIR         Status = 21
	EINVAL         Status = 22
	ENFILE         Status = 23
	EMFILE         Status = 24
	EROFS          Status = 30
	ENAMETOOLONG   Status = 91
	ENOSYS         Status = 38
	ENOTEMPTY      Status = 93
	EAGAIN         Status = 11
	EOF            Status = 96
	ENOSPC         Status = 28
	EBADSESSION    Status = 97
	ENOHANDLE      Status = 98
	EMODE          Status = 99
)

// String returns a short lowercase mnemonic, for logging.
func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case EPERM:
		return "eperm"
	case ENOENT:
		return "enoent"
	case EIO:
		return "eio"
	case EBADF:
		return "ebadf"
	case EACCES:
		return "eacces"
	case EEXIST:
		return "eexist"
	case ENOTDIR:
		return "enotdir"
	case EISDIR:
		return "eisdir"
	case EINVAL:
		return "einval"
	case ENFILE:
		return "enfile"
	case EMFILE:
		return "emfile"
	case EROFS:
		return "erofs"
	case ENAMETOOLONG:
		return "enametoolong"
	case ENOSYS:
		return "enosys"
	case ENOTEMPTY:
		return "enotempty"
	case EAGAIN:
		return "eagain"
	case EOF:
		return "eof"
	case ENOSPC:
		return "enospc"
	case EBADSESSION:
		return "ebadsession"
	case ENOHANDLE:
		return "enohandle"
	case EMODE:
		return "emode"
	default:
		return "eio"
	}
}

// FromError maps a Go error — typically one surfaced from an os.*
// filesystem call — to a TNFS status. A nil error maps to OK. Unmapped
// errors fall back to EIO, matching the platform-absorption rule in
// spec.md section 4.2.
//
// The errors.Is-chain style here follows the Err2Status pattern used
// for errno-to-protocol-status mapping across the retrieval pack (see
// DESIGN.md), adapted to syscall.Errno since TNFS's status table is a
// closer match to POSIX errno than to NFSv4's status space.
func FromError(err error) Status {
	if err == nil {
		return OK
	}
	if errors.Is(err, io.EOF) {
		return EOF
	}
	if errors.Is(err, os.ErrNotExist) {
		return ENOENT
	}
	if errors.Is(err, os.ErrExist) {
		return EEXIST
	}
	if errors.Is(err, os.ErrPermission) {
		return EACCES
	}
	if errors.Is(err, os.ErrInvalid) {
		return EINVAL
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return fromErrno(errno)
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return FromError(pathErr.Err)
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return FromError(linkErr.Err)
	}

	return EIO
}

func fromErrno(errno syscall.Errno) Status {
	switch errno {
	case unix.EPERM:
		return EPERM
	case unix.ENOENT:
		return ENOENT
	case unix.EIO:
		return EIO
	case unix.EBADF:
		return EBADF
	case unix.EACCES:
		return EACCES
	case unix.EEXIST:
		return EEXIST
	case unix.ENOTDIR:
		return ENOTDIR
	case unix.EISDIR:
		return EISDIR
	case unix.EINVAL:
		return EINVAL
	case unix.ENFILE:
		return ENFILE
	case unix.EMFILE:
		return EMFILE
	case unix.EROFS:
		return EROFS
	case unix.ENAMETOOLONG:
		return ENAMETOOLONG
	case unix.ENOSYS:
		return ENOSYS
	case unix.ENOTEMPTY:
		return ENOTEMPTY
	case unix.EAGAIN:
		return EAGAIN
	case unix.ENOSPC:
		return ENOSPC
	default:
		return EIO
	}
}
