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
	"time"

	"github.com/tnfsd/tnfsd/internal/direngine"
)

// DirHandleTimeout is how long a loaded-but-closed directory handle
// survives before becoming eligible for eviction (spec.md section 3).
const DirHandleTimeout = 300 * time.Second

// DirSlot is one directory handle, spec.md section 3's state machine:
// free, reserved-but-not-open, loaded, or open (loaded and open are
// independent bits: Loaded tracks whether Entries is populated, Open
// tracks whether the client currently holds the handle).
type DirSlot struct {
	Open   bool
	Loaded bool

	Path    string
	Pattern string
	DirOpt  direngine.DirOpt
	SortOpt direngine.SortOpt

	OpenAt  time.Time
	Entries []direngine.Entry
	Cursor  int

	// NativeIter and NativeName are not set by any caller: legacy OPENDIR
	// handles materialize their entry list through direngine.Load just
	// as OPENDIRX handles do, and TELLDIR reports a list index for both.
	NativeIter any
	NativeName string // directory path for the legacy iterator
}

func (d *DirSlot) matches(path, pattern string, dirOpt direngine.DirOpt, sortOpt direngine.SortOpt) bool {
	return d.Loaded && !d.Open &&
		d.Path == path && d.Pattern == pattern && d.DirOpt == dirOpt && d.SortOpt == sortOpt
}

func (d *DirSlot) expired(now time.Time) bool {
	return d.Loaded && !d.Open && now.Sub(d.OpenAt) > DirHandleTimeout
}

func (d *DirSlot) release() {
	*d = DirSlot{}
}

// DirTable is the fixed-size per-session directory-handle array.
type DirTable struct {
	slots []DirSlot
}

// NewDirTable builds a table with n slots.
func NewDirTable(n int) *DirTable {
	return &DirTable{slots: make([]DirSlot, n)}
}

// sweepExpired releases every loaded-but-closed slot past its timeout.
// Called before every allocation attempt, per spec.md section 4.4.
func (t *DirTable) sweepExpired(now time.Time) {
	for i := range t.slots {
		if t.slots[i].expired(now) {
			t.slots[i].release()
		}
	}
}

// Alloc implements the three-tier directory-handle allocation from
// spec.md section 4.4: reuse (if requested and a matching
// loaded-but-closed slot exists), then first empty slot, then eviction
// of the first non-open slot. The chosen slot is marked open. It
// returns the slot index and whether
// the returned slot's entry list can be reused as-is (true) or must be
// (re)loaded by the caller (false).
func (t *DirTable) Alloc(now time.Time, reuse bool, path, pattern string, dirOpt direngine.DirOpt, sortOpt direngine.SortOpt) (idx int, reused bool, err error) {
	t.sweepExpired(now)

	if reuse {
		for i := range t.slots {
			if t.slots[i].matches(path, pattern, dirOpt, sortOpt) {
				t.slots[i].Cursor = 0
				t.slots[i].Open = true
				return i, true, nil
			}
		}
	}

	for i := range t.slots {
		if !t.slots[i].Open && !t.slots[i].Loaded {
			t.slots[i].Open = true
			return i, false, nil
		}
	}

	for i := range t.slots {
		if !t.slots[i].Open {
			t.slots[i].release()
			t.slots[i].Open = true
			return i, false, nil
		}
	}

	return 0, false, ErrNoFreeHandle
}

// Get returns the slot at idx, with the corrected ">=" bound from
// spec.md section 9 (the legacy implementation's off-by-one used ">").
func (t *DirTable) Get(idx int) (*DirSlot, error) {
	if idx < 0 || idx >= len(t.slots) {
		return nil, ErrBadHandle
	}
	s := &t.slots[idx]
	if !s.Open {
		return nil, ErrBadHandle
	}
	return s, nil
}

// Close marks the slot at idx no longer open. Its entry list is left
// in place (Loaded stays true) so a matching reopen can reuse it,
// until DirHandleTimeout or eviction reclaims it — spec.md section 3's
// ownership rule.
func (t *DirTable) Close(idx int) error {
	s, err := t.Get(idx)
	if err != nil {
		return err
	}
	s.Open = false
	s.OpenAt = time.Now()
	return nil
}

// CloseAll releases every slot — called on session teardown.
func (t *DirTable) CloseAll() {
	for i := range t.slots {
		t.slots[i].release()
	}
}
