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

// Package netcap probes, once per process, which of the kernel's
// batched and offload UDP facilities (sendmmsg, recvmmsg, UDP_SEGMENT
// GSO, UDP_GRO) are actually usable on this machine, so the channel can
// fall back gracefully instead of failing at the first datagram.
package netcap

import (
	"sync"

	"golang.org/x/sys/unix"
)

// UDP_SEGMENT and UDP_GRO are Linux SOL_UDP socket option names for GSO/GRO on
// UDP sockets (linux/udp.h). x/sys/unix does not export them on every
// pinned version, so they're named locally; the numeric values are
// stable ABI and have not changed since their introduction.
const (
	udpSegment = 103
	udpGro     = 104
)

// Capabilities records which optional fast paths this process can use.
type Capabilities struct {
	Sendmmsg   bool
	Recvmmsg   bool
	UDPSegment bool
	UDPGro     bool
}

var (
	once   sync.Once
	probed Capabilities
)

// Probe returns the process-wide capability set, probing the kernel the
// first time it's called and caching the result afterward.
func Probe() Capabilities {
	once.Do(func() {
		probed = probe()
	})
	return probed
}

func probe() Capabilities {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return Capabilities{}
	}
	defer unix.Close(fd)

	caps := Capabilities{}

	// sendmmsg/recvmmsg are present on every kernel this module targets
	// (3.0+ resp. 2.6.33+); the syscalls themselves are the only sure
	// test, and a zero-length batch call is harmless.
	if _, err := unix.Sendmmsg(fd, nil, 0); err == nil || err == unix.EINVAL {
		caps.Sendmmsg = true
	}
	if _, err := unix.Recvmmsg(fd, nil, 0, nil); err == nil || err == unix.EINVAL {
		caps.Recvmmsg = true
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_UDP, udpSegment, 1500); err == nil {
		caps.UDPSegment = true
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_UDP, udpGro, 1); err == nil {
		caps.UDPGro = true
	}

	return caps
}

// reset is a test-only hook letting tests force a fresh probe.
func reset() {
	once = sync.Once{}
}
