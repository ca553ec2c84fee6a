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
	"strings"
)

// DirOpt bits, spec.md section 4.5.
type DirOpt uint8

const (
	OptNoFoldersFirst DirOpt = 1 << 0
	OptNoSkipHidden   DirOpt = 1 << 1
	OptNoSkipSpecial  DirOpt = 1 << 2
	OptDirPattern     DirOpt = 1 << 3
	OptNoFolders      DirOpt = 1 << 4
	OptTraverse       DirOpt = 1 << 5
)

// LoadOptions groups the parameters of an OPENDIRX request that affect
// which entries are materialized and in what order.
type LoadOptions struct {
	DirOpt     DirOpt
	SortOpt    SortOpt
	MaxResults uint16 // 0 means unlimited
	Pattern    string
}

// Load reads absPath (an already path-contained, resolved directory)
// and returns the filtered, pattern-matched, sorted entry list per
// spec.md section 4.5's OPENDIRX load procedure. It does not recurse;
// see Traverse for the recursive variant used with OptTraverse.
func Load(absPath string, opt LoadOptions) ([]Entry, error) {
	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, err
	}

	var dirs, files []Entry
	total := 0
	for _, de := range dirEntries {
		if opt.MaxResults != 0 && total >= int(opt.MaxResults) {
			break
		}
		info, err := de.Info()
		if err != nil {
			continue // entry vanished between readdir and stat; skip it
		}
		e := entryFromInfo(de.Name(), info)

		if e.IsHidden() && opt.DirOpt&OptNoSkipHidden == 0 {
			continue
		}
		if e.IsSpecial() && opt.DirOpt&OptNoSkipSpecial == 0 {
			continue
		}
		if e.IsDir() && opt.DirOpt&OptNoFolders != 0 {
			continue
		}
		if opt.Pattern != "" {
			applies := !e.IsDir() || opt.DirOpt&OptDirPattern != 0
			if applies && !matchGlob(opt.Pattern, e.EntryPath) {
				continue
			}
		}

		if e.IsDir() && opt.DirOpt&OptNoFoldersFirst == 0 {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
		total++
	}

	sortEntries(dirs, opt.SortOpt)
	sortEntries(files, opt.SortOpt)
	return append(dirs, files...), nil
}

func entryFromInfo(name string, info os.FileInfo) Entry {
	var flags uint8
	mode := info.Mode()
	switch {
	case mode.IsDir():
		flags |= FlagDirectory
	case mode.IsRegular():
		// plain file, no extra flag
	default:
		flags |= FlagSpecial
	}
	if isHiddenName(name) {
		flags |= FlagHidden
	}
	return Entry{
		Flags:     flags,
		Size:      uint32(info.Size()),
		MTime:     unixU32(info.ModTime()),
		CTime:     unixU32(info.ModTime()), // ctime is not portably available via os.FileInfo; mtime is used as the best available approximation
		EntryPath: name,
	}
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
