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

//go:build !linux

package fsops

import "syscall"

// FreeSpace is not implemented for this platform; the daemon's SIZE
// and FREE handlers map this to ENOSYS rather than failing to build.
func FreeSpace(absPath string) (free, total uint64, err error) {
	return 0, 0, syscall.ENOSYS
}
