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

package dispatch

import (
	"github.com/tnfsd/tnfsd/internal/session"
	"github.com/tnfsd/tnfsd/internal/tnfserr"
	"github.com/tnfsd/tnfsd/internal/wire"
)

// handleMount implements MOUNT, which has no prior session (spec.md
// section 4.6 step 3): proto_version(2 LE), mountpoint, userid,
// password cstrings. On success a fresh session is allocated and its
// sid returned.
func (d *Dispatcher) handleMount(clientAddr string, cliFD int, hdr wire.Header, payload []byte) ([]byte, bool) {
	if len(payload) < 2 {
		return nil, false
	}
	_ = wire.ReadU16(payload, 0) // client proto_version; any value is accepted for a baseline MOUNT

	mountpoint, next, err := wire.ReadCString(payload, 2)
	if err != nil {
		return d.reply(hdr, tnfserr.EINVAL, nil), true
	}
	_, next, err = wire.ReadCString(payload, next) // userid
	if err != nil {
		return d.reply(hdr, tnfserr.EINVAL, nil), true
	}
	_, _, err = wire.ReadCString(payload, next) // password
	if err != nil {
		return d.reply(hdr, tnfserr.EINVAL, nil), true
	}

	// MOUNT precedes session creation, so the normal per-session
	// (sid, seq) retransmit cache can't protect it: a resent MOUNT
	// would otherwise allocate a fresh session and sid every time.
	// Recognize a same-seq retransmit from the same owning connection
	// and hand back its cached reply instead of mutating the table
	// again.
	if existing := d.Sessions.FindByOwner(clientAddr, cliFD); existing != nil && existing.CheckRetransmit(hdr.Seq) && existing.LastReply != nil {
		return existing.LastReply, true
	}

	sess, err := d.Sessions.Alloc(clientAddr, cliFD, 0)
	if err != nil {
		switch err {
		case session.ErrTableFull:
			return d.reply(hdr, tnfserr.EMFILE, nil), true
		case session.ErrIPQuota:
			return d.reply(hdr, tnfserr.EACCES, nil), true
		default:
			return d.reply(hdr, tnfserr.EIO, nil), true
		}
	}
	sess.Root = mountpoint
	if d.Stats != nil {
		d.Stats.SessionOpened()
	}

	minRetry := d.MinRetryMS
	if minRetry == 0 {
		minRetry = DefaultMinRetryMS
	}
	body := make([]byte, 6)
	wire.WriteU16(body, 0, sess.SID)
	wire.WriteU16(body, 2, ProtoVersion)
	wire.WriteU16(body, 4, minRetry)

	reply := d.reply(hdr, tnfserr.OK, body)
	sess.Touch(sess.LastContact, hdr.Seq, reply)
	return reply, true
}

func (d *Dispatcher) cmdUmount(sess *session.Session) (tnfserr.Status, []byte) {
	d.Sessions.Free(sess)
	if d.Stats != nil {
		d.Stats.SessionClosed()
	}
	return tnfserr.OK, nil
}
