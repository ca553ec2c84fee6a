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
	"testing"
	"time"
)

func TestDirTableAllocEmptySlot(t *testing.T) {
	dt := NewDirTable(2)
	idx, reused, err := dt.Alloc(time.Now(), false, "/a", "", 0, 0)
	if err != nil || reused || idx != 0 {
		t.Fatalf("idx=%d reused=%v err=%v", idx, reused, err)
	}
}

func TestDirTableBadHandleBound(t *testing.T) {
	dt := NewDirTable(MaxDHandPerConn)
	if _, err := dt.Get(MaxDHandPerConn); err != ErrBadHandle {
		t.Errorf("Get(MaxDHandPerConn) = %v, want ErrBadHandle", err)
	}
	if _, err := dt.Get(-1); err != ErrBadHandle {
		t.Errorf("Get(-1) = %v, want ErrBadHandle", err)
	}
}

func TestDirTableReuseAfterClose(t *testing.T) {
	dt := NewDirTable(1)
	now := time.Now()
	idx, _, err := dt.Alloc(now, true, "/a", "", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	slot, _ := dt.Get(idx)
	slot.Loaded = true
	slot.Path, slot.Pattern = "/a", ""
	slot.Cursor = 5

	if err := dt.Close(idx); err != nil {
		t.Fatal(err)
	}

	idx2, reused, err := dt.Alloc(now, true, "/a", "", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reused || idx2 != idx {
		t.Fatalf("expected reuse of slot %d, got idx=%d reused=%v", idx, idx2, reused)
	}
	slot2, _ := dt.Get(idx2)
	if slot2.Cursor != 0 {
		t.Errorf("Cursor = %d, want reset to 0", slot2.Cursor)
	}
}

func TestDirTableNoFreeHandleWhenAllOpen(t *testing.T) {
	dt := NewDirTable(1)
	idx, _, err := dt.Alloc(time.Now(), false, "/a", "", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	dt.slots[idx].Loaded = true // simulate a loaded+open handle

	if _, _, err := dt.Alloc(time.Now(), false, "/b", "", 0, 0); err != ErrNoFreeHandle {
		t.Errorf("got %v, want ErrNoFreeHandle", err)
	}
}

func TestDirTableEvictsExpiredLoaded(t *testing.T) {
	dt := NewDirTable(1)
	idx, _, _ := dt.Alloc(time.Now(), false, "/a", "", 0, 0)
	dt.slots[idx].Loaded = true
	dt.Close(idx)
	dt.slots[idx].OpenAt = time.Now().Add(-DirHandleTimeout - time.Second)

	idx2, reused, err := dt.Alloc(time.Now(), false, "/b", "", 0, 0)
	if err != nil || reused || idx2 != idx {
		t.Fatalf("idx=%d reused=%v err=%v, want eviction of slot %d", idx2, reused, err, idx)
	}
}
