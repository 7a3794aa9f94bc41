//go:build !linux

/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"sync"
	"time"

	"github.com/glacio/corerpc/cmn/nlog"
)

// pollSelector is the portable fallback used on platforms without an epoll
// readiness primitive wired in (see selector_linux.go for the production
// path). It does not probe the fds: a background goroutine per registered
// fd reports it Readable every 50ms, and write interest (Register's and
// Modify's writable flag) is ignored. Coarser than epoll_wait, but it keeps
// the pool package's leader/follower loop running everywhere
// golang.org/x/sys/unix doesn't have an EpollWait.
type pollSelector struct {
	mu      sync.Mutex
	entries map[uintptr]*pollEntry
	ready   chan Event
	closed  bool
}

type pollEntry struct {
	userData any
	stop     chan struct{}
}

func NewSelector() (Selector, error) {
	nlog.Warningln("transport: epoll selector unavailable on this platform, using poll fallback")
	return &pollSelector{entries: make(map[uintptr]*pollEntry), ready: make(chan Event, 256)}, nil
}

func (s *pollSelector) Register(fd uintptr, userData any, writable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	e := &pollEntry{userData: userData, stop: make(chan struct{})}
	s.entries[fd] = e
	go s.pollLoop(fd, e)
	return nil
}

func (s *pollSelector) pollLoop(fd uintptr, e *pollEntry) {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-t.C:
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			select {
			case s.ready <- Event{UserData: e.userData, Readable: true}:
			default:
			}
		}
	}
}

func (s *pollSelector) Modify(fd uintptr, writable bool) error { return nil }

func (s *pollSelector) Remove(fd uintptr) error {
	s.mu.Lock()
	e, ok := s.entries[fd]
	delete(s.entries, fd)
	s.mu.Unlock()
	if ok {
		close(e.stop)
	}
	return nil
}

func (s *pollSelector) Wait(dst []Event, timeout time.Duration) ([]Event, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		tm := time.NewTimer(timeout)
		defer tm.Stop()
		deadline = tm.C
	}
	select {
	case ev := <-s.ready:
		dst = append(dst, ev)
		for {
			select {
			case ev := <-s.ready:
				dst = append(dst, ev)
			default:
				return dst, nil
			}
		}
	case <-deadline:
		return dst, nil
	}
}

func (s *pollSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, e := range s.entries {
		close(e.stop)
	}
	s.entries = make(map[uintptr]*pollEntry)
	return nil
}
