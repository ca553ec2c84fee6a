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

package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// TCPHandler has the same shape as UDPHandler; cliFD lets the
// dispatcher bind a session to the owning connection instead of a
// source address, per spec.md section 4.3's "TCP connection fd"
// session-ownership rule.
type TCPHandler func(clientAddr string, cliFD int, data []byte) ([]byte, bool)

// TCP is the daemon's optional reliable transport (spec.md section 1:
// "TCP optional"). Each accepted connection is framed with a 2-byte
// big-endian length prefix ahead of the same request/reply bytes UDP
// carries raw — TNFS-over-TCP has no inherent datagram boundary, so a
// prefix is needed to tell frames apart on the stream.
type TCP struct {
	ln      net.Listener
	limiter *rate.Limiter
}

// ListenTCP binds addr and accepts connections no faster than
// acceptsPerSec (with a burst of acceptsPerSec+1), protecting the
// single-threaded loop from an accept storm.
func ListenTCP(addr string, acceptsPerSec float64) (*TCP, error) {
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, err
	}
	return &TCP{ln: ln, limiter: rate.NewLimiter(rate.Limit(acceptsPerSec), int(acceptsPerSec)+1)}, nil
}

// Conn wraps one accepted TCP connection.
type Conn struct {
	nc net.Conn
	fd int
}

// RemoteAddr is the connection's client address.
func (c *Conn) RemoteAddr() string { return c.nc.RemoteAddr().String() }

// FD is the connection's file descriptor, used both for Readiness
// registration and as the session table's CliFD ownership key.
func (c *Conn) FD() int { return c.fd }

// FD returns the listening socket's descriptor, for registration with
// a Readiness multiplexer alongside the UDP socket and accepted
// connections.
func (t *TCP) FD() (int, error) {
	tl, ok := t.ln.(*net.TCPListener)
	if !ok {
		return -1, fmt.Errorf("tnfs: listener is not a *net.TCPListener")
	}
	raw, err := tl.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	ctrlErr := raw.Control(func(d uintptr) { fd = int(d) })
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}

// Accept is called once the event loop's Readiness source reports the
// listening socket is ready, so the accept itself does not block.
// Applying the accept-rate limiter here, rather than before Wait sees
// the fd, still bounds how fast the single loop spends time accepting
// instead of servicing already-open connections. Returns nil, nil if
// the limiter denied this tick — the caller should leave the listener
// registered and try again on the next ready event.
func (t *TCP) Accept() (*Conn, error) {
	if !t.limiter.Allow() {
		return nil, nil
	}
	nc, err := t.ln.Accept()
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := nc.(*net.TCPConn); ok {
		// Idle TCP mounts are otherwise invisible to the peer until the
		// next command; keepalive lets a dead client's session get swept
		// by TNFS's own SESSION_TIMEOUT instead of lingering as a leaked
		// fd.
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}
	fd, err := fdOf(nc)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &Conn{nc: nc, fd: fd}, nil
}

func fdOf(nc net.Conn) (int, error) {
	if tc, ok := nc.(*net.TCPConn); ok {
		raw, err := tc.SyscallConn()
		if err != nil {
			return -1, err
		}
		var fd int
		ctrlErr := raw.Control(func(d uintptr) { fd = int(d) })
		if ctrlErr != nil {
			return -1, ctrlErr
		}
		return fd, nil
	}
	return -1, fmt.Errorf("tnfs: connection is not a *net.TCPConn")
}

// ReadFrame reads one length-prefixed frame from the connection. It is
// called only when the connection's fd has already been reported ready
// by the event loop's Readiness source, so in practice the header read
// does not block.
func ReadFrame(c *Conn) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(c.nc, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.nc, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes one length-prefixed frame.
func WriteFrame(c *Conn, data []byte) error {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	if _, err := c.nc.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := c.nc.Write(data)
	return err
}

// Close closes the connection.
func (c *Conn) Close() error { return c.nc.Close() }

// Close closes the listener.
func (t *TCP) Close() error { return t.ln.Close() }
