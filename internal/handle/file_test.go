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

package handle

import (
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T, dir, name string) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return f
}

func TestFileTableAllocFillsFirstFreeSlot(t *testing.T) {
	dir := t.TempDir()
	tbl := NewFileTable(MaxFDPerConn)

	idx, err := tbl.Alloc(openTemp(t, dir, "a"), filepath.Join(dir, "a"))
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if idx != 0 {
		t.Fatalf("Alloc index = %d, want 0", idx)
	}
}

func TestFileTableGetRejectsOutOfRangeAndClosedSlots(t *testing.T) {
	tbl := NewFileTable(MaxFDPerConn)
	if _, err := tbl.Get(-1); err != ErrBadHandle {
		t.Fatalf("Get(-1): got %v, want ErrBadHandle", err)
	}
	if _, err := tbl.Get(MaxFDPerConn); err != ErrBadHandle {
		t.Fatalf("Get(MaxFDPerConn): got %v, want ErrBadHandle", err)
	}
	if _, err := tbl.Get(0); err != ErrBadHandle {
		t.Fatalf("Get(0) on an unopened slot: got %v, want ErrBadHandle", err)
	}
}

func TestFileTableCloseFreesSlotForReuse(t *testing.T) {
	dir := t.TempDir()
	tbl := NewFileTable(MaxFDPerConn)

	idx, err := tbl.Alloc(openTemp(t, dir, "a"), filepath.Join(dir, "a"))
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := tbl.Close(idx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := tbl.Get(idx); err != ErrBadHandle {
		t.Fatalf("Get after Close: got %v, want ErrBadHandle", err)
	}

	idx2, err := tbl.Alloc(openTemp(t, dir, "b"), filepath.Join(dir, "b"))
	if err != nil {
		t.Fatalf("Alloc after Close: %v", err)
	}
	if idx2 != idx {
		t.Fatalf("Alloc after Close reused index %d, want %d", idx2, idx)
	}
}

func TestFileTableAllocReturnsErrNoFreeHandleWhenFull(t *testing.T) {
	dir := t.TempDir()
	tbl := NewFileTable(2)

	if _, err := tbl.Alloc(openTemp(t, dir, "a"), filepath.Join(dir, "a")); err != nil {
		t.Fatalf("Alloc 1: %v", err)
	}
	if _, err := tbl.Alloc(openTemp(t, dir, "b"), filepath.Join(dir, "b")); err != nil {
		t.Fatalf("Alloc 2: %v", err)
	}
	if _, err := tbl.Alloc(openTemp(t, dir, "c"), filepath.Join(dir, "c")); err != ErrNoFreeHandle {
		t.Fatalf("Alloc 3rd into a 2-slot table: got %v, want ErrNoFreeHandle", err)
	}
}

func TestFileTableCloseAllReleasesEverySlot(t *testing.T) {
	dir := t.TempDir()
	tbl := NewFileTable(MaxFDPerConn)

	i1, _ := tbl.Alloc(openTemp(t, dir, "a"), filepath.Join(dir, "a"))
	i2, _ := tbl.Alloc(openTemp(t, dir, "b"), filepath.Join(dir, "b"))

	tbl.CloseAll()

	if _, err := tbl.Get(i1); err != ErrBadHandle {
		t.Fatalf("slot %d still open after CloseAll", i1)
	}
	if _, err := tbl.Get(i2); err != ErrBadHandle {
		t.Fatalf("slot %d still open after CloseAll", i2)
	}
}
