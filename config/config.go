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

// Package config collects the options that shape one channel's
// behavior: the batching, offload and buffering knobs a caller tunes
// per socket, plus the capability flags derived from netcap.Probe once
// those options are reconciled against what the kernel actually offers.
package config

import (
	"time"

	"github.com/nabbar/goudp/netcap"
)

// Config holds the tunables recognised by the channel. Zero-value
// Config is not meant to be used directly; call Default and override.
type Config struct {
	// RecvBufferSize/SendBufferSize set SO_RCVBUF/SO_SNDBUF on the
	// underlying socket. Zero leaves the kernel default in place.
	RecvBufferSize int
	SendBufferSize int

	// MaxDatagramsPerRead is the slot capacity of the read-side
	// NativePacketArray, bounding how many datagrams one recvmmsg call
	// can drain. How many recv calls one epoll readiness event makes is
	// decided by the allocator's ContinueReading.
	MaxDatagramsPerRead int

	// MaxDatagramsPerWrite bounds how many queued outbound messages one
	// writable event will flush via sendmmsg before yielding.
	MaxDatagramsPerWrite int

	// MaxDatagramPayloadSize is the expected per-packet size used to
	// size the scattering batch read; 0 means one datagram per buffer
	// (no batch read attempted).
	MaxDatagramPayloadSize int

	// EnableSendmmsg and EnableRecvmmsg request the batched syscalls
	// when the kernel supports them; they're ignored (treated as
	// false) when netcap.Probe reports the facility unavailable.
	EnableSendmmsg bool
	EnableRecvmmsg bool

	// EnableSegmentation (UDP_SEGMENT / GSO) lets a single large
	// outbound payload be split by the kernel into SegmentSize chunks.
	EnableSegmentation bool
	// EnableGRO (UDP_GRO) lets the kernel coalesce several inbound
	// datagrams from the same sender into one read, which the channel
	// fans back out before delivery.
	EnableGRO bool

	// WriteSpinRetries bounds how many times the write path retries a
	// single EAGAIN before arming EPOLLOUT and yielding.
	WriteSpinRetries int

	// ActiveOnOpen affects IsActive semantics: when true, a channel
	// already registered with its event loop counts as active even
	// before its own active flag (set by a successful Bind) is true.
	ActiveOnOpen bool

	// NetworkInterface names the default interface multicast
	// operations resolve against when no explicit interface is given.
	NetworkInterface string

	// ConnectTimeout is carried in the configuration but not read by
	// the channel: Channel.Connect issues connect(2) once, with no
	// timeout applied.
	ConnectTimeout time.Duration
}

// Default returns the baseline configuration: batching and offload
// enabled wherever the running kernel supports it, conservative
// per-event drain limits, and no explicit buffer sizing.
func Default() *Config {
	caps := netcap.Probe()
	return &Config{
		MaxDatagramsPerRead:  64,
		MaxDatagramsPerWrite: 64,
		EnableSendmmsg:       caps.Sendmmsg,
		EnableRecvmmsg:       caps.Recvmmsg,
		EnableSegmentation:   caps.UDPSegment,
		EnableGRO:            caps.UDPGro,
		WriteSpinRetries:     16,
		ConnectTimeout:       0,
	}
}

// Reconcile clears any enabled facility the running kernel does not
// actually support, so callers that hand-build a Config (rather than
// start from Default) can't accidentally request an offload that will
// just fail at setsockopt time.
func (c *Config) Reconcile() {
	caps := netcap.Probe()
	c.EnableSendmmsg = c.EnableSendmmsg && caps.Sendmmsg
	c.EnableRecvmmsg = c.EnableRecvmmsg && caps.Recvmmsg
	c.EnableSegmentation = c.EnableSegmentation && caps.UDPSegment
	c.EnableGRO = c.EnableGRO && caps.UDPGro

	if c.MaxDatagramsPerRead <= 0 {
		c.MaxDatagramsPerRead = 64
	}
	if c.MaxDatagramsPerWrite <= 0 {
		c.MaxDatagramsPerWrite = 64
	}
	if c.WriteSpinRetries <= 0 {
		c.WriteSpinRetries = 16
	}
}
