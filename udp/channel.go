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

// Package udp implements the Linux epoll, edge-triggered UDP datagram
// channel: bind/connect/disconnect/close lifecycle, the batched write
// and read paths, and multicast group membership, all running on a
// single event-loop thread.
package udp

import (
	"net"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/alloc"
	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/config"
	"github.com/nabbar/goudp/errs"
	"github.com/nabbar/goudp/eventloop"
	"github.com/nabbar/goudp/message"
	"github.com/nabbar/goudp/metrics"
	"github.com/nabbar/goudp/netcap"
	"github.com/nabbar/goudp/pipeline"
	"github.com/nabbar/goudp/xlog"
)

// Channel is one Linux UDP socket wired into an eventloop.Loop. Every
// method that touches I/O state must run on the owning loop's
// goroutine. That includes Write: it appends to the outbound queue and
// arms EPOLLOUT directly, without locking.
type Channel struct {
	fd     int
	family int
	id     string
	cfg    *config.Config
	pipe   pipeline.Pipeline
	log    *xlog.Logger
	met    *metrics.Collector
	label  string

	loop *eventloop.Loop
	reg  *eventloop.Registration

	open      atomic.Bool
	bound     atomic.Bool
	connected atomic.Bool
	active    atomic.Bool

	// localAddr/remoteAddr are touched only from the event-loop thread,
	// same as every other piece of I/O state on this type.
	localAddr  net.Addr
	remoteAddr net.Addr

	queue  outboundQueue
	filter *OutboundFilter
	write  *writePath
	read   *readPath
}

// New creates a Channel bound to no address yet; its fd is added to
// loop only when the caller calls Register. family is unix.AF_INET or
// unix.AF_INET6. pool supplies replacement direct buffers for the
// outbound filter; allocHandle drives the ReadPath's receive-buffer
// sizing (alloc.NewAdaptive() is a reasonable default).
func New(family int, cfg *config.Config, loop *eventloop.Loop, pipe pipeline.Pipeline, log *xlog.Logger, met *metrics.Collector, label string, pool *buffer.Pool, allocHandle alloc.Handle) (*Channel, error) {
	fd, err := unix.Socket(family, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK, unix.IPPROTO_UDP)
	if err != nil {
		return nil, errs.Wrap(errs.CodeIO, "socket", err)
	}

	caps := netcap.Probe()
	if cfg.EnableGRO && caps.UDPGro {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_UDP, udpGro, 1)
	}
	if cfg.RecvBufferSize > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBufferSize)
	}
	if cfg.SendBufferSize > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBufferSize)
	}

	c := &Channel{
		fd:     fd,
		family: family,
		id:     uuid.NewString(),
		cfg:    cfg,
		pipe:   pipe,
		log:    log,
		met:    met,
		label:  label,
		loop:   loop,
		filter: NewOutboundFilter(cfg.EnableSegmentation, pool),
	}
	c.open.Store(true)

	// The batch staging arrays are allocated lazily in Register, once an
	// eventloop.Registration exists to own them; see registrationArrays.
	c.write = &writePath{fd: fd, cfg: cfg, queue: &c.queue, metrics: met, label: label}
	c.read = &readPath{fd: fd, cfg: cfg, alloc: allocHandle, pool: pool, pipe: pipe, metrics: met, label: label}

	return c, nil
}

// registrationArrays bundles the read and write NativePacketArrays one
// eventloop.Registration lends out to whatever channel is registered on
// it, stored in the Registration's UserData rather than on the Channel
// so the staging buffers are scoped to the registration's lifetime.
type registrationArrays struct {
	read  *NativePacketArray
	write *NativePacketArray
}

// Fd exposes the raw file descriptor, for registration with an
// eventloop.Loop via HandleReadReady/HandleWriteReady/HandleError.
func (c *Channel) Fd() int { return c.fd }

// ID returns the channel's generated identifier, stable for its
// lifetime, useful to correlate log lines and metrics across channels
// sharing the same label.
func (c *Channel) ID() string { return c.id }

// Bind binds the local address. If local is an IPv4 ANY address and the
// channel's socket family is IPv6, it is rewritten to the IPv6 ANY
// address at the same port before binding, per the dual-stack
// equivalence law.
func (c *Channel) Bind(local *net.UDPAddr) error {
	effective := local
	if c.family == unix.AF_INET6 && local.IP.To4() != nil && local.IP.Equal(net.IPv4zero) {
		effective = &net.UDPAddr{IP: net.IPv6zero, Port: local.Port, Zone: local.Zone}
	}

	if err := unix.Bind(c.fd, toSockaddr(effective)); err != nil {
		return errs.Wrap(errs.CodeIO, "bind", err)
	}
	c.bound.Store(true)
	c.active.Store(true)
	c.localAddr = effective
	c.read.localAddr = effective
	return nil
}

// Connect connects the socket to remote, restricting it to a single
// peer and enabling the connected read/write fast paths.
func (c *Channel) Connect(remote *net.UDPAddr) error {
	if err := unix.Connect(c.fd, toSockaddr(remote)); err != nil {
		return errs.Wrap(errs.CodeIO, "connect", err)
	}
	c.connected.Store(true)
	c.remoteAddr = remote
	return nil
}

// Disconnect dissolves a prior Connect via connect(AF_UNSPEC), clearing
// both connected and active and invalidating cached addresses.
func (c *Channel) Disconnect() error {
	if err := disconnectSyscall(c.fd); err != nil {
		return errs.Wrap(errs.CodeIO, "disconnect", err)
	}
	c.connected.Store(false)
	c.active.Store(false)
	c.remoteAddr = nil
	c.localAddr = nil
	return nil
}

// Close deregisters the channel (if registered) and closes its fd.
// Safe to call once; a second call returns nil. Deregistration and the
// fd close are independent failure points, so both are attempted and
// any errors are combined rather than the second masking the first.
func (c *Channel) Close() error {
	if !c.open.CompareAndSwap(true, false) {
		return nil
	}
	c.connected.Store(false)

	var result *multierror.Error
	if c.reg != nil {
		if err := c.reg.Deregister(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := unix.Close(c.fd); err != nil {
		result = multierror.Append(result, err)
	}
	if result.ErrorOrNil() != nil {
		return errs.Wrap(errs.CodeIO, "close", result.ErrorOrNil())
	}
	return nil
}

// IsActive reports socket.open AND ((activeOnOpen AND registered) OR
// active).
func (c *Channel) IsActive() bool {
	if !c.open.Load() {
		return false
	}
	registered := c.reg != nil
	return (c.cfg.ActiveOnOpen && registered) || c.active.Load()
}

// IsConnected and IsBound expose the remaining lifecycle flags.
func (c *Channel) IsConnected() bool { return c.connected.Load() }
func (c *Channel) IsBound() bool     { return c.bound.Load() }

// LocalAddr and RemoteAddr return the addresses cached by Bind/Connect,
// nil before the corresponding call or after Disconnect. Close leaves
// them as they were.
func (c *Channel) LocalAddr() net.Addr  { return c.localAddr }
func (c *Channel) RemoteAddr() net.Addr { return c.remoteAddr }

// Write enqueues m after running it through the OutboundFilter. The
// returned error, if non-nil, is a filter rejection (a programming
// error per the error taxonomy); successful enqueue still completes
// asynchronously via m.Promise.
func (c *Channel) Write(m *message.Outbound) error {
	if err := c.filter.Apply(m); err != nil {
		m.Promise.Complete(err)
		return err
	}
	c.queue.push(m)
	if c.reg != nil {
		_ = c.reg.SetWritable(true)
	}
	return nil
}

// HandleWriteReady implements eventloop.Handler; it drains the
// outbound queue and (de)arms EPOLLOUT per the result.
func (c *Channel) HandleWriteReady() {
	writable := c.write.run(c.connected.Load())
	if c.reg != nil {
		_ = c.reg.SetWritable(writable)
	}
}

// HandleReadReady implements eventloop.Handler; it runs one ReadPath
// invocation.
func (c *Channel) HandleReadReady() {
	c.read.run(c.connected.Load())
}

// HandleError implements eventloop.Handler.
func (c *Channel) HandleError(err error) {
	c.met.ObserveError(errs.CodeIO.String())
	c.pipe.FireException(err)
}

// Register adds the channel's fd to its loop and remembers the
// resulting Registration, then claims (creating if necessary) that
// Registration's batch staging arrays for the read and write paths.
func (c *Channel) Register() error {
	reg, err := c.loop.Register(c.fd, c)
	if err != nil {
		return errs.Wrap(errs.CodeIO, "register", err)
	}
	c.reg = reg

	arrays, _ := reg.UserData().(*registrationArrays)
	if arrays == nil {
		arrays = &registrationArrays{
			read:  NewNativePacketArray(c.cfg.MaxDatagramsPerRead),
			write: NewNativePacketArray(c.cfg.MaxDatagramsPerWrite),
		}
		reg.SetUserData(arrays)
	}
	c.read.array = arrays.read
	c.write.array = arrays.write
	return nil
}
