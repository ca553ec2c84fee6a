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

import "os"

// Mkdir creates absPath with the given permission bits.
func Mkdir(absPath string, perm os.FileMode) error {
	return os.Mkdir(absPath, perm)
}

// Rmdir removes an empty directory at absPath.
func Rmdir(absPath string) error {
	return os.Remove(absPath)
}
