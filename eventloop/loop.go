/*
 * MIT License
 *
 * Copyright (c) 2026 the goudp authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package eventloop is a single-threaded, edge-triggered epoll reactor.
// One Loop owns one OS thread (via runtime.LockOSThread) and multiplexes
// any number of Registrations; a Registration is the only thing that
// crosses into per-socket code, so the reactor itself stays ignorant of
// UDP specifics.
package eventloop

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/xlog"
)

// Handler is implemented by whatever owns a registered file descriptor;
// the loop calls back into it on readiness, never touching the fd's
// payload itself.
type Handler interface {
	// HandleReadReady is called when the fd is readable (EPOLLIN).
	HandleReadReady()
	// HandleWriteReady is called when the fd is writable (EPOLLOUT).
	HandleWriteReady()
	// HandleError is called on EPOLLERR/EPOLLHUP; err is always non-nil.
	HandleError(err error)
}

// Registration is a live (fd, Handler) pair known to a Loop.
type Registration struct {
	fd      int
	handler Handler
	loop    *Loop
	events  uint32

	mu   sync.Mutex
	data any
}

// UserData returns whatever was last passed to SetUserData, nil if
// nothing has been stored yet. Lets a Handler stash per-registration
// scratch state (e.g. a batch I/O staging buffer) that must live exactly
// as long as the registration itself, rather than as long as whatever
// object happened to call Register.
func (r *Registration) UserData() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// SetUserData stores v for later retrieval via UserData.
func (r *Registration) SetUserData(v any) {
	r.mu.Lock()
	r.data = v
	r.mu.Unlock()
}

// SetWritable arms or disarms EPOLLOUT for this registration. The
// epoll_ctl call runs directly on the calling goroutine, and the
// registration's cached interest set is updated without locking.
func (r *Registration) SetWritable(on bool) error {
	return r.loop.modify(r, on)
}

// Deregister removes the fd from the loop. The Handler receives no
// further callbacks after this returns.
func (r *Registration) Deregister() error {
	return r.loop.deregister(r)
}

// Loop is one epoll instance plus the registrations it multiplexes.
// Create one per OS thread you want dedicated to I/O; Run blocks until
// ctx is cancelled or Close is called.
type Loop struct {
	epfd int
	log  *xlog.Logger

	mu   sync.Mutex
	regs map[int]*Registration

	tasks chan func()
	close chan struct{}
	once  sync.Once
}

// New creates an epoll instance. log may be nil.
func New(log *xlog.Logger) (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Loop{
		epfd:  epfd,
		log:   log,
		regs:  make(map[int]*Registration),
		tasks: make(chan func(), 256),
		close: make(chan struct{}),
	}, nil
}

// Register adds fd to the loop in edge-triggered mode, starting with
// EPOLLIN armed and EPOLLOUT disarmed. Must be called from the loop's
// own goroutine (i.e. from within a Handler callback) or before Run
// starts; use Submit to hop onto the loop otherwise.
func (l *Loop) Register(fd int, h Handler) (*Registration, error) {
	r := &Registration{fd: fd, handler: h, loop: l, events: unix.EPOLLIN | unix.EPOLLET}

	l.mu.Lock()
	l.regs[fd] = r
	l.mu.Unlock()

	ev := unix.EpollEvent{Events: r.events, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		l.mu.Lock()
		delete(l.regs, fd)
		l.mu.Unlock()
		return nil, fmt.Errorf("epoll_ctl add: %w", err)
	}
	return r, nil
}

func (l *Loop) modify(r *Registration, writable bool) error {
	events := uint32(unix.EPOLLIN | unix.EPOLLET)
	if writable {
		events |= unix.EPOLLOUT
	}
	if events == r.events {
		return nil
	}
	r.events = events
	ev := unix.EpollEvent{Events: events, Fd: int32(r.fd)}
	return unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, r.fd, &ev)
}

func (l *Loop) deregister(r *Registration) error {
	l.mu.Lock()
	delete(l.regs, r.fd)
	l.mu.Unlock()
	return unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, r.fd, nil)
}

// Submit queues fn to run on the loop's own goroutine, the only safe
// way to touch Loop/Registration state from another goroutine (e.g. to
// call Register for a brand-new socket).
func (l *Loop) Submit(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.close:
	}
}

// Run pins the calling goroutine to its OS thread and services epoll
// readiness plus submitted tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	events := make([]unix.EpollEvent, 128)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.close:
			return nil
		case fn := <-l.tasks:
			fn()
			continue
		default:
		}

		n, err := unix.EpollWait(l.epfd, events, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			l.dispatch(events[i])
		}
	}
}

func (l *Loop) dispatch(ev unix.EpollEvent) {
	l.mu.Lock()
	r, ok := l.regs[int(ev.Fd)]
	l.mu.Unlock()
	if !ok {
		return
	}

	if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		r.handler.HandleError(fmt.Errorf("epoll: fd %d reported EPOLLERR/EPOLLHUP", ev.Fd))
		return
	}
	if ev.Events&unix.EPOLLIN != 0 {
		r.handler.HandleReadReady()
	}
	if ev.Events&unix.EPOLLOUT != 0 {
		r.handler.HandleWriteReady()
	}
}

// Close stops Run and releases the epoll fd. Safe to call more than
// once.
func (l *Loop) Close() error {
	var err error
	l.once.Do(func() {
		close(l.close)
		err = unix.Close(l.epfd)
	})
	return err
}
