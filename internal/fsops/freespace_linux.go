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

//go:build linux

package fsops

import "golang.org/x/sys/unix"

// FreeSpace reports the free and total bytes of the filesystem backing
// absPath, for the TNFS SIZE/FREE commands.
func FreeSpace(absPath string) (free, total uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(absPath, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return st.Bavail * bsize, st.Blocks * bsize, nil
}
