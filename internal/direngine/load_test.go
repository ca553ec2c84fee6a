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
	"os"
	"path/filepath"
	"testing"
)

func mkTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"B", "a", "C"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.EntryPath
	}
	return out
}

func TestLoadFoldersFirstDefaultSort(t *testing.T) {
	dir := mkTestTree(t)
	entries, err := Load(dir, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := names(entries)
	want := []string{"sub", "a", "B", "C"}
	if !equalSlices(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadCaseDescending(t *testing.T) {
	dir := mkTestTree(t)
	entries, err := Load(dir, LoadOptions{SortOpt: SortCase | SortDescending})
	if err != nil {
		t.Fatal(err)
	}
	got := names(entries)
	want := []string{"sub", "a", "C", "B"}
	if !equalSlices(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadGlobPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"foo.sna", "foo.txt", "bar.sna"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := Load(dir, LoadOptions{Pattern: "*.sna"})
	if err != nil {
		t.Fatal(err)
	}
	got := names(entries)
	want := []string{"bar.sna", "foo.sna"}
	if !equalSlices(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadSkipHidden(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"visible", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := Load(dir, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(entries); !equalSlices(got, []string{"visible"}) {
		t.Errorf("got %v, want [visible]", got)
	}

	entries, err = Load(dir, LoadOptions{DirOpt: OptNoSkipHidden})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("with NoSkipHidden got %v, want 2 entries", names(entries))
	}
}

func TestLoadNoFolders(t *testing.T) {
	dir := mkTestTree(t)
	entries, err := Load(dir, LoadOptions{DirOpt: OptNoFolders})
	if err != nil {
		t.Fatal(err)
	}
	got := names(entries)
	want := []string{"a", "B", "C"}
	if !equalSlices(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadMaxResults(t *testing.T) {
	dir := mkTestTree(t)
	entries, err := Load(dir, LoadOptions{MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
