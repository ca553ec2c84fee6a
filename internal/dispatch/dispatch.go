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
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tnfsd/tnfsd/internal/fsops"
	"github.com/tnfsd/tnfsd/internal/session"
	"github.com/tnfsd/tnfsd/internal/statlog"
	"github.com/tnfsd/tnfsd/internal/tnfserr"
	"github.com/tnfsd/tnfsd/internal/wire"
)

// ProtoVersion is the server's TNFS protocol version, spec.md section 6.
const ProtoVersion = 0x0102

// DefaultMinRetryMS is the default minimum retry interval advertised
// to clients at MOUNT time (1000ms, bytes 0xE8 0x03 little-endian).
const DefaultMinRetryMS = 1000

// Dispatcher ties the session table, global root, and command handlers
// together. It has no concept of UDP vs TCP — internal/transport calls
// Dispatch once per decoded message and is responsible for delivering
// the reply back on whichever socket the request arrived on.
type Dispatcher struct {
	Sessions     *session.Table
	GlobalRoot   string
	MinRetryMS   uint16
	EnableDirExt bool
	Logger       *log.Logger
	Stats        *statlog.Counters

	// Verbose enables per-request correlation-id trace logging, tagged
	// with a uuid so concurrent client streams can be told apart in the
	// log — this is purely a debugging aid, never part of the wire
	// protocol or of any handler's decision making.
	Verbose bool
}

// Dispatch decodes one request datagram/frame, routes it, and returns
// the encoded reply (if any is owed) along with whether a reply should
// be sent at all — a too-small or unparseable datagram is silently
// dropped, per spec.md section 4.6 step 1.
func (d *Dispatcher) Dispatch(clientAddr string, cliFD int, data []byte) ([]byte, bool) {
	if len(data) < wire.ReqHeaderSize || len(data) > wire.MaxMsgSize {
		return nil, false
	}
	hdr, err := wire.ParseHeader(data)
	if err != nil {
		return nil, false
	}
	payload := data[wire.ReqHeaderSize:]

	if d.Verbose {
		d.logf("req id=%s sid=%#04x seq=%d cmd=%#02x from=%s", uuid.NewString()[:8], hdr.SID, hdr.Seq, hdr.Cmd, clientAddr)
	}

	if hdr.Cmd == CmdMount {
		return d.handleMount(clientAddr, cliFD, hdr, payload)
	}

	sess := d.Sessions.FindBySID(hdr.SID)
	if sess == nil {
		return d.reply(hdr, tnfserr.EBADSESSION, nil), true
	}
	if cliFD >= 0 {
		if sess.CliFD != cliFD {
			return nil, false
		}
	} else if sess.ClientAddr != clientAddr {
		return nil, false
	}

	if sess.CheckRetransmit(hdr.Seq) {
		return sess.LastReply, sess.LastReply != nil
	}

	status, body := d.route(sess, hdr.Cmd, payload)
	reply := d.reply(hdr, status, body)
	sess.Touch(time.Now(), hdr.Seq, reply)
	if d.Stats != nil {
		d.Stats.CountCommand(hdr.Cmd)
	}
	return reply, true
}

func (d *Dispatcher) route(sess *session.Session, cmd byte, payload []byte) (tnfserr.Status, []byte) {
	switch cmd {
	case CmdUmount:
		return d.cmdUmount(sess)
	case CmdOpen:
		return d.cmdOpen(sess, payload)
	case CmdRead:
		return d.cmdRead(sess, payload)
	case CmdWrite:
		return d.cmdWrite(sess, payload)
	case CmdClose:
		return d.cmdClose(sess, payload)
	case CmdLseek:
		return d.cmdLseek(sess, payload)
	case CmdStat:
		return d.cmdStat(sess, payload)
	case CmdChmod:
		return d.cmdChmod(sess, payload)
	case CmdRename:
		return d.cmdRename(sess, payload)
	case CmdUnlink:
		return d.cmdUnlink(sess, payload)
	case CmdMkdir:
		return d.cmdMkdir(sess, payload)
	case CmdRmdir:
		return d.cmdRmdir(sess, payload)
	case CmdOpendir:
		return d.cmdOpendir(sess, payload)
	case CmdReaddir:
		return d.cmdReaddir(sess, payload)
	case CmdClosedir:
		return d.cmdClosedir(sess, payload)
	case CmdSeekdir:
		return d.cmdSeekdir(sess, payload)
	case CmdTelldir:
		return d.cmdTelldir(sess, payload)
	case CmdOpendirx:
		return d.cmdOpendirx(sess, payload)
	case CmdReaddirx:
		return d.cmdReaddirx(sess, payload)
	case CmdSize:
		return d.cmdSize(sess, payload)
	case CmdFree:
		return d.cmdFree(sess, payload)
	default:
		return tnfserr.ENOSYS, nil
	}
}

func (d *Dispatcher) reply(hdr wire.Header, status tnfserr.Status, body []byte) []byte {
	b, err := wire.FormatReply(wire.ReplyHeader{SID: hdr.SID, Seq: hdr.Seq, Cmd: hdr.Cmd, Status: uint8(status)}, body)
	if err != nil {
		// A handler built an oversized reply; this is a server bug, not
		// a client-triggerable condition, so fall back to a bare error
		// reply rather than silently dropping the request.
		b, _ = wire.FormatReply(wire.ReplyHeader{SID: hdr.SID, Seq: hdr.Seq, Cmd: hdr.Cmd, Status: uint8(tnfserr.EIO)}, nil)
	}
	return b
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

// root returns the fsops.Root for sess, rooted at the dispatcher's
// configured GlobalRoot with sess's per-mount subpath applied.
func (d *Dispatcher) root(sess *session.Session) fsops.Root {
	return fsops.Root{Global: d.GlobalRoot, Session: sess.Root}
}
