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

// Package dispatch implements the TNFS protocol dispatcher: header
// decode, session lookup, IP/fd verification, retransmit detection,
// command routing, and reply caching (spec.md section 4.6).
package dispatch

// Command opcodes, legacy TNFS-0x0102 numbering (SPEC_FULL.md section 9).
const (
	CmdMount    = 0x00
	CmdUmount   = 0x01
	CmdOpen     = 0x02
	CmdRead     = 0x03
	CmdWrite    = 0x04
	CmdClose    = 0x05
	CmdReaddir  = 0x06
	CmdOpendir  = 0x07
	CmdClosedir = 0x08
	CmdStat     = 0x09
	CmdLseek    = 0x0A
	CmdMkdir    = 0x0C
	CmdRmdir    = 0x0D
	CmdTelldir  = 0x11
	CmdSeekdir  = 0x12
	CmdOpendirx = 0x17
	CmdReaddirx = 0x18
	CmdChmod    = 0x1A
	CmdUnlink   = 0x1B
	CmdRename   = 0x1E
	CmdSize     = 0x30
	CmdFree     = 0x31
)
