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

// Package statlog is the daemon's usage/stats counter, named out of
// core scope by spec.md section 1 ("usage logging" is an external
// collaborator) but carried here as a thin ambient concern: it counts
// commands served, sessions mounted and sessions unmounted, flushed on
// the server loop's stats tick (StatsInterval), which runs separately
// from the session sweep tick. It has no effect on
// protocol semantics — the dispatcher only ever increments counters,
// never reads them back to make a decision.
package statlog

import "log"

// Counters is safe for use from the single event-loop goroutine only —
// like the rest of the core, it deliberately does no locking.
type Counters struct {
	ByCommand      map[byte]uint64
	SessionsOpened uint64
	SessionsClosed uint64
}

// New returns an empty Counters.
func New() *Counters {
	return &Counters{ByCommand: make(map[byte]uint64)}
}

// CountCommand increments the counter for an executed (non-retransmit)
// command.
func (c *Counters) CountCommand(cmd byte) {
	c.ByCommand[cmd]++
}

// SessionOpened increments the session-created counter.
func (c *Counters) SessionOpened() { c.SessionsOpened++ }

// SessionClosed increments the session-closed counter. Only UMOUNT
// calls it; sessions freed by the idle sweep or by a TCP disconnect are
// not counted.
func (c *Counters) SessionClosed() { c.SessionsClosed++ }

// Flush logs a one-line summary and resets the per-command counters,
// called on the daemon's periodic STATS_INTERVAL tick.
func (c *Counters) Flush(logger *log.Logger) {
	total := uint64(0)
	for _, n := range c.ByCommand {
		total += n
	}
	logger.Printf("stats: %d commands served, %d sessions opened, %d closed",
		total, c.SessionsOpened, c.SessionsClosed)
	c.ByCommand = make(map[byte]uint64)
}
