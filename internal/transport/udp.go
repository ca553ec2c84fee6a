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
	"net"

	"golang.org/x/net/ipv4"
)

// UDPHandler processes one decoded datagram and returns the bytes to
// send back (if any), exactly matching dispatch.Dispatcher.Dispatch's
// signature so the server can wire it in directly.
type UDPHandler func(clientAddr string, cliFD int, data []byte) ([]byte, bool)

// UDP is the daemon's primary transport: a single UDP socket shared by
// every session, dispatched on the server's cooperative event loop
// (spec.md section 1 — "UDP transport required").
type UDP struct {
	conn *net.UDPConn
	pconn *ipv4.PacketConn
	buf  [65535]byte
}

// ListenUDP binds addr (host:port, host may be empty for all interfaces).
func ListenUDP(addr string) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, err
	}
	pconn := ipv4.NewPacketConn(conn)
	// Request the inbound interface/destination on every read so a
	// multi-homed host replies from the same local address a client
	// addressed it on, rather than whatever the routing table picks.
	_ = pconn.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true)
	return &UDP{conn: conn, pconn: pconn}, nil
}

// FD returns the underlying socket descriptor, for registration with a
// Readiness multiplexer.
func (u *UDP) FD() (int, error) {
	raw, err := u.conn.SyscallConn()
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

// ServeOne reads and dispatches a single ready datagram, replying
// in-line. It never blocks beyond one read+handle+write cycle, keeping
// the caller's event loop responsive to other readiness sources.
func (u *UDP) ServeOne(handle UDPHandler) error {
	n, cm, addr, err := u.pconn.ReadFrom(u.buf[:])
	if err != nil {
		return err
	}
	reply, ok := handle(addr.String(), -1, append([]byte(nil), u.buf[:n]...))
	if !ok {
		return nil
	}
	var wcm *ipv4.ControlMessage
	if cm != nil {
		wcm = &ipv4.ControlMessage{Src: cm.Dst, IfIndex: cm.IfIndex}
	}
	_, err = u.pconn.WriteTo(reply, wcm, addr)
	return err
}

// Close releases the socket.
func (u *UDP) Close() error {
	return u.conn.Close()
}
