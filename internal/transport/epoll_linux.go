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

//go:build linux

package transport

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollReadiness is the Linux Readiness backend.
type epollReadiness struct {
	epfd int
}

// NewReadiness builds the platform's Readiness implementation.
func NewReadiness() (Readiness, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollReadiness{epfd: fd}, nil
}

func (e *epollReadiness) Add(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	return unix.EpollCtl(e.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (e *epollReadiness) Remove(fd int) error {
	err := unix.EpollCtl(e.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (e *epollReadiness) Wait(timeout time.Duration) ([]Event, error) {
	events := make([]unix.EpollEvent, 64)
	n, err := unix.EpollWait(e.epfd, events, int(timeout/time.Millisecond))
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Event{FD: int(events[i].Fd)})
	}
	return out, nil
}

func (e *epollReadiness) Close() error {
	return unix.Close(e.epfd)
}
