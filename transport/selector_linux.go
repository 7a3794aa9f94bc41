//go:build linux

/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/glacio/corerpc/ierr"
)

// epollSelector is the Linux readiness selector the pool package's
// leader/follower loop polls; userData is keyed by fd since epoll_event's
// union only carries 8 bytes of opaque payload and we want arbitrary values.
type epollSelector struct {
	epfd int

	mu   sync.Mutex
	data map[int32]any
}

func NewSelector() (Selector, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, ierr.Wrap(ierr.SocketException, err, "epoll_create1")
	}
	return &epollSelector{epfd: fd, data: make(map[int32]any)}, nil
}

func (s *epollSelector) Register(fd uintptr, userData any, writable bool) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: unix.EPOLLIN}
	if writable {
		ev.Events |= unix.EPOLLOUT
	}
	s.mu.Lock()
	s.data[int32(fd)] = userData
	s.mu.Unlock()
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return ierr.Wrap(ierr.SocketException, err, "epoll_ctl add")
	}
	return nil
}

func (s *epollSelector) Modify(fd uintptr, writable bool) error {
	ev := unix.EpollEvent{Fd: int32(fd), Events: unix.EPOLLIN}
	if writable {
		ev.Events |= unix.EPOLLOUT
	}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev); err != nil {
		return ierr.Wrap(ierr.SocketException, err, "epoll_ctl mod")
	}
	return nil
}

func (s *epollSelector) Remove(fd uintptr) error {
	s.mu.Lock()
	delete(s.data, int32(fd))
	s.mu.Unlock()
	// Linux requires a non-nil event pointer pre-4.5; pass a throwaway one.
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, int(fd), &unix.EpollEvent{}); err != nil {
		return ierr.Wrap(ierr.SocketException, err, "epoll_ctl del")
	}
	return nil
}

func (s *epollSelector) Wait(dst []Event, timeout time.Duration) ([]Event, error) {
	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
	}
	raw := make([]unix.EpollEvent, 64)
	n, err := unix.EpollWait(s.epfd, raw, msec)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, ierr.Wrap(ierr.SocketException, err, "epoll_wait")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		ud := s.data[raw[i].Fd]
		dst = append(dst, Event{
			UserData: ud,
			Readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0,
			Writable: raw[i].Events&unix.EPOLLOUT != 0,
			Err:      raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	return dst, nil
}

func (s *epollSelector) Close() error {
	return unix.Close(s.epfd)
}
