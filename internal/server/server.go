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

// Package server assembles the TNFS daemon: the session table, the
// protocol dispatcher, one or two transports, and the periodic
// maintenance sweep, all driven by a single cooperative loop per
// spec.md section 5. There is deliberately no process-wide singleton —
// every piece of daemon state lives on a *Server value constructed by
// New, so a test or an embedding program can run more than one.
package server

import (
	"context"
	"log"
	"time"

	"github.com/tnfsd/tnfsd/internal/dispatch"
	"github.com/tnfsd/tnfsd/internal/session"
	"github.com/tnfsd/tnfsd/internal/statlog"
	"github.com/tnfsd/tnfsd/internal/transport"
)

// pollInterval bounds how long the readiness loop blocks between
// checking ctx cancellation and running the sweep/stats tick; it is
// not a protocol timeout.
const pollInterval = 1 * time.Second

// Config holds the daemon's tunables, all of which have a spec.md
// default.
type Config struct {
	Root             string
	UDPAddr          string
	TCPAddr          string // empty disables TCP
	SessionTimeout   time.Duration
	StatsInterval    time.Duration
	MaxSessions      int
	MaxPerIP         int
	EnableDirExt     bool
	Verbose          bool
}

// Server is one running TNFS daemon instance.
type Server struct {
	cfg        Config
	logger     *log.Logger
	sessions   *session.Table
	dispatcher *dispatch.Dispatcher
	stats      *statlog.Counters

	udp   *transport.UDP
	tcp   *transport.TCP
	ready transport.Readiness

	udpFD int
	tcpFD int
	conns map[int]*transport.Conn
}

// New builds a Server from cfg. It does not bind any sockets; call Run
// to start serving.
func New(cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	sessions := session.NewTable(cfg.MaxSessions, cfg.MaxPerIP)
	stats := statlog.New()
	d := &dispatch.Dispatcher{
		Sessions:     sessions,
		GlobalRoot:   cfg.Root,
		EnableDirExt: cfg.EnableDirExt,
		Logger:       logger,
		Stats:        stats,
		Verbose:      cfg.Verbose,
	}
	return &Server{cfg: cfg, logger: logger, sessions: sessions, dispatcher: d, stats: stats}
}

// Run binds the configured transports and serves until ctx is
// cancelled or a transport fails irrecoverably. Everything after
// binding happens on this one goroutine: spec.md section 5 specifies a
// single-threaded, cooperative, readiness-driven loop, and
// internal/session's table deliberately does no locking because it
// assumes exactly one caller. A goroutine-per-connection model would
// call the dispatcher — and so the shared session table — from more
// than one goroutine at once, which is the bug this design avoids.
func (s *Server) Run(ctx context.Context) error {
	udp, err := transport.ListenUDP(s.cfg.UDPAddr)
	if err != nil {
		return err
	}
	s.udp = udp
	defer udp.Close()

	ready, err := transport.NewReadiness()
	if err != nil {
		return err
	}
	s.ready = ready
	defer ready.Close()

	s.udpFD, err = udp.FD()
	if err != nil {
		return err
	}
	if err := ready.Add(s.udpFD); err != nil {
		return err
	}

	s.tcpFD = -1
	s.conns = make(map[int]*transport.Conn)
	if s.cfg.TCPAddr != "" {
		tcp, err := transport.ListenTCP(s.cfg.TCPAddr, 50)
		if err != nil {
			return err
		}
		s.tcp = tcp
		defer tcp.Close()

		s.tcpFD, err = tcp.FD()
		if err != nil {
			return err
		}
		if err := ready.Add(s.tcpFD); err != nil {
			return err
		}
	}

	return s.loop(ctx)
}

// loop is the event loop spec.md section 5 describes: wait for
// readiness, handle every ready fd to completion, then wait again. The
// only suspension points are inside Wait and inside the blocking
// file/network I/O a handler performs, matching section 5's
// "Suspension points" note.
func (s *Server) loop(ctx context.Context) error {
	statsTick := s.cfg.StatsInterval
	if statsTick <= 0 {
		statsTick = 60 * time.Second
	}
	sweepTick := 5 * time.Second
	lastSweep := time.Now()
	lastStats := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		events, err := s.ready.Wait(pollInterval)
		if err != nil {
			return err
		}
		for _, ev := range events {
			s.handleReady(ev.FD)
		}

		now := time.Now()
		if now.Sub(lastSweep) >= sweepTick {
			s.sessions.Sweep(now, s.cfg.SessionTimeout)
			lastSweep = now
		}
		if now.Sub(lastStats) >= statsTick {
			s.stats.Flush(s.logger)
			lastStats = now
		}
	}
}

// handleReady processes one ready descriptor to completion: a UDP
// datagram, a new TCP connection, or one framed request on an existing
// TCP connection. It never blocks waiting on a second descriptor.
func (s *Server) handleReady(fd int) {
	switch {
	case fd == s.udpFD:
		if err := s.udp.ServeOne(s.dispatcher.Dispatch); err != nil {
			s.logger.Printf("udp: %v", err)
		}
	case fd == s.tcpFD:
		s.acceptConn()
	default:
		s.serveConnOnce(fd)
	}
}

func (s *Server) acceptConn() {
	conn, err := s.tcp.Accept()
	if err != nil {
		s.logger.Printf("tcp accept: %v", err)
		return
	}
	if conn == nil {
		return // accept-rate limiter denied this tick
	}
	if err := s.ready.Add(conn.FD()); err != nil {
		s.logger.Printf("tcp register: %v", err)
		conn.Close()
		return
	}
	s.conns[conn.FD()] = conn
}

// serveConnOnce reads and dispatches exactly one framed request from
// the connection at fd. A read/write error or EOF tears the connection
// (and any session bound to it) down.
func (s *Server) serveConnOnce(fd int) {
	conn := s.conns[fd]
	if conn == nil {
		return
	}
	frame, err := transport.ReadFrame(conn)
	if err != nil {
		s.dropConn(conn)
		return
	}
	reply, ok := s.dispatcher.Dispatch(conn.RemoteAddr(), conn.FD(), frame)
	if !ok {
		return
	}
	if err := transport.WriteFrame(conn, reply); err != nil {
		s.dropConn(conn)
	}
}

func (s *Server) dropConn(conn *transport.Conn) {
	_ = s.ready.Remove(conn.FD())
	delete(s.conns, conn.FD())
	s.sessions.ResetCliFD(conn.FD())
	conn.Close()
}
