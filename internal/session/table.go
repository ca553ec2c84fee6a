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

// Package session implements the TNFS session table: a capacity-bounded
// map of sessions keyed by a 16-bit session id, with per-IP capacity
// enforcement and idle-timeout sweeping.
//
// The server is single-threaded and cooperative (spec.md section 5):
// the table itself does no locking. All methods are expected to be
// called from the one event-loop goroutine.
package session

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/tnfsd/tnfsd/internal/handle"
)

// ErrTableFull is returned by Alloc when MaxSessions live sessions
// already exist.
var ErrTableFull = errors.New("tnfs: session table full")

// ErrIPQuota is returned by Alloc when the source IP already owns
// MaxPerIP live sessions.
var ErrIPQuota = errors.New("tnfs: per-IP session quota exceeded")

// Session is one live TNFS mount.
type Session struct {
	SID         uint16
	ClientAddr  string // source IP, and for UDP also source port
	CliFD       int    // owning TCP connection fd; -1 for UDP
	Root        string // subpath within the global root selected at MOUNT
	LastContact time.Time
	LastSeq     uint8
	HaveLastSeq bool
	LastReply   []byte

	Files *handle.FileTable
	Dirs  *handle.DirTable

	LastPath string // usage-log only, not protocol state
}

// Table is the fixed-capacity session table.
type Table struct {
	MaxSessions int
	MaxPerIP    int

	sessions map[uint16]*Session
}

// NewTable builds an empty table with the given capacity limits.
func NewTable(maxSessions, maxPerIP int) *Table {
	return &Table{
		MaxSessions: maxSessions,
		MaxPerIP:    maxPerIP,
		sessions:    make(map[uint16]*Session, maxSessions),
	}
}

// Len returns the number of live sessions.
func (t *Table) Len() int { return len(t.sessions) }

// countByIP returns how many live sessions share clientAddr's host
// portion. UDP sessions are keyed by full addr (ip:port); this counts
// the IP prefix only, matching spec.md's "per-IP" invariant.
func (t *Table) countByIP(ip string) int {
	n := 0
	for _, s := range t.sessions {
		if hostOf(s.ClientAddr) == ip {
			n++
		}
	}
	return n
}

func hostOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// Alloc allocates a new session slot for clientAddr. If withSID is
// non-zero it is used as-is (the caller is responsible for checking it
// doesn't collide — used only by tests); otherwise a fresh, unique,
// non-zero SID is picked at random with a bounded collision probe,
// falling back to a linear scan of the id space.
func (t *Table) Alloc(clientAddr string, cliFD int, withSID uint16) (*Session, error) {
	if len(t.sessions) >= t.MaxSessions {
		return nil, ErrTableFull
	}
	if t.countByIP(hostOf(clientAddr)) >= t.MaxPerIP {
		return nil, ErrIPQuota
	}

	sid := withSID
	if sid == 0 {
		var ok bool
		sid, ok = t.pickSID()
		if !ok {
			return nil, ErrTableFull
		}
	} else if _, exists := t.sessions[sid]; exists {
		return nil, errors.New("tnfs: sid collision")
	}

	s := &Session{
		SID:         sid,
		ClientAddr:  clientAddr,
		CliFD:       cliFD,
		LastContact: time.Now(),
		Files:       handle.NewFileTable(handle.MaxFDPerConn),
		Dirs:        handle.NewDirTable(handle.MaxDHandPerConn),
	}
	t.sessions[sid] = s
	return s, nil
}

// pickSID tries random non-zero 16-bit ids a bounded number of times
// before falling back to an exhaustive linear scan, per spec.md's
// "random or counter with collision check".
func (t *Table) pickSID() (uint16, bool) {
	const probes = 64
	for i := 0; i < probes; i++ {
		sid := uint16(rand.IntN(0xFFFF)) + 1 // never 0
		if _, exists := t.sessions[sid]; !exists {
			return sid, true
		}
	}
	for sid := uint32(1); sid <= 0xFFFF; sid++ {
		if _, exists := t.sessions[uint16(sid)]; !exists {
			return uint16(sid), true
		}
	}
	return 0, false
}

// FindBySID returns the live session with the given SID, or nil.
func (t *Table) FindBySID(sid uint16) *Session {
	return t.sessions[sid]
}

// FindByIP returns the first live session whose ClientAddr matches
// addr exactly (source IP and, for UDP, source port). Request routing
// does not use it: Dispatch looks sessions up with FindBySID.
func (t *Table) FindByIP(addr string) *Session {
	for _, s := range t.sessions {
		if s.ClientAddr == addr {
			return s
		}
	}
	return nil
}

// FindByOwner returns the first live session owned by the given
// connection: for TCP (cliFD >= 0) matched by CliFD, for UDP (cliFD
// < 0) by ClientAddr. Used by MOUNT, which has no sid yet to look up
// by, to recognize a retransmit from the same client.
func (t *Table) FindByOwner(clientAddr string, cliFD int) *Session {
	for _, s := range t.sessions {
		if cliFD >= 0 {
			if s.CliFD == cliFD {
				return s
			}
			continue
		}
		if s.ClientAddr == clientAddr {
			return s
		}
	}
	return nil
}

// Free closes every file and directory handle owned by s and removes
// it from the table.
func (t *Table) Free(s *Session) {
	if s == nil {
		return
	}
	s.Files.CloseAll()
	s.Dirs.CloseAll()
	delete(t.sessions, s.SID)
}

// Sweep frees every session whose last contact is older than timeout,
// provided timeout > 0 (a zero timeout disables sweeping, per spec.md
// section 5).
func (t *Table) Sweep(now time.Time, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	var expired []*Session
	for _, s := range t.sessions {
		if now.Sub(s.LastContact) > timeout {
			expired = append(expired, s)
		}
	}
	for _, s := range expired {
		t.Free(s)
	}
}

// ResetCliFD frees every TCP-bound session owned by the given
// connection fd. Called when a TCP connection is dropped.
func (t *Table) ResetCliFD(fd int) {
	var matched []*Session
	for _, s := range t.sessions {
		if s.CliFD == fd {
			matched = append(matched, s)
		}
	}
	for _, s := range matched {
		t.Free(s)
	}
}

// CheckRetransmit reports whether seq equals the session's last seen
// sequence number — i.e. this is a retransmit of the previous request,
// not a new one. The very first request on a fresh session is never a
// retransmit.
func (s *Session) CheckRetransmit(seq uint8) bool {
	return s.HaveLastSeq && s.LastSeq == seq
}

// Touch refreshes last-contact, records seq as the new last-seen
// sequence, and caches reply for idempotent resend on retransmit. This
// must only be called once the request has actually been executed.
func (s *Session) Touch(now time.Time, seq uint8, reply []byte) {
	s.LastContact = now
	s.LastSeq = seq
	s.HaveLastSeq = true
	s.LastReply = reply
}
