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

//go:build linux

package udp

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// iovec, msghdr and mmsghdr mirror the Linux 64-bit ABI layout, which is
// the same shape on both architectures this package has syscall numbers
// for (amd64 and arm64). x/sys/unix does not
// export mmsghdr on every pinned version, so the wire structs are kept
// local, following the same pattern the rest of the raw-batch-syscall
// corpus uses for sendmmsg/recvmmsg. The three syscall numbers these
// functions call through ARE architecture-specific and live in
// mmsg_linux_amd64.go/mmsg_linux_arm64.go, since amd64 and arm64 assign
// different numbers to the same syscalls.
type iovec struct {
	base *byte
	len  uint64
}

type msghdr struct {
	name       *byte
	namelen    uint32
	_          [4]byte
	iov        *iovec
	iovlen     uint64
	control    *byte
	controllen uint64
	flags      int32
	_          [4]byte
}

type mmsghdr struct {
	hdr msghdr
	len uint32
	_   [4]byte
}

// disconnectSyscall dissolves a prior connect(2) by reconnecting with a
// sockaddr carrying AF_UNSPEC, the POSIX idiom for disconnecting a
// datagram socket. unix.Sockaddr has no exported AF_UNSPEC
// implementation, so this goes through the raw syscall directly.
func disconnectSyscall(fd int) error {
	var sa rawSockaddr
	_, _, errno := unix.Syscall(sysConnect, uintptr(fd), uintptr(unsafe.Pointer(&sa[0])), uintptr(len(sa)))
	if errno != 0 {
		return errno
	}
	return nil
}

// sendmmsg issues the sendmmsg(2) syscall for msgs[:n]. A zero return
// with a nil error means EAGAIN: the socket isn't writable.
func sendmmsg(fd int, msgs []mmsghdr, n int, flags int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	r, _, errno := unix.Syscall6(sysSendmmsg, uintptr(fd), uintptr(unsafe.Pointer(&msgs[0])), uintptr(n), uintptr(flags), 0, 0)
	if errno != 0 {
		if errno == unix.EAGAIN || errno == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, errno
	}
	return int(r), nil
}

// recvmmsg issues the recvmmsg(2) syscall for msgs[:n], non-blocking
// (no timeout pointer). A zero return with a nil error means EAGAIN.
func recvmmsg(fd int, msgs []mmsghdr, n int, flags int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	r, _, errno := unix.Syscall6(sysRecvmmsg, uintptr(fd), uintptr(unsafe.Pointer(&msgs[0])), uintptr(n), uintptr(flags), 0, 0)
	if errno != 0 {
		if errno == unix.EAGAIN || errno == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, errno
	}
	return int(r), nil
}

// cmsgSpace returns the total control-message buffer size needed to
// carry one cmsghdr plus dataLen bytes of payload, 8-byte aligned per
// the Linux CMSG_SPACE macro.
func cmsgSpace(dataLen int) int {
	return cmsgAlign(cmsgHeaderLen) + cmsgAlign(dataLen)
}

const cmsgHeaderLen = 16 // sizeof(struct cmsghdr) on 64-bit Linux

func cmsgAlign(n int) int {
	const align = 8
	return (n + align - 1) &^ (align - 1)
}

// putSegmentCmsg writes a SOL_UDP/UDP_SEGMENT or UDP_GRO control
// message carrying a uint16 segment size into buf, which must be at
// least cmsgSpace(2) bytes.
func putSegmentCmsg(buf []byte, cmsgType int32, segmentSize uint16) {
	h := (*struct {
		Len   uint64
		Level int32
		Type  int32
	})(unsafe.Pointer(&buf[0]))
	h.Len = uint64(cmsgHeaderLen + 2)
	h.Level = unix.IPPROTO_UDP
	h.Type = cmsgType

	data := buf[cmsgAlign(cmsgHeaderLen):]
	data[0] = byte(segmentSize)
	data[1] = byte(segmentSize >> 8)
}

// parseSegmentCmsg reads a gso_size/segment size out of a control
// message buffer produced by the kernel for a UDP_GRO-enabled receive.
// Returns 0 if no matching control message is present.
func parseSegmentCmsg(buf []byte) uint16 {
	off := 0
	for off+cmsgHeaderLen <= len(buf) {
		h := (*struct {
			Len   uint64
			Level int32
			Type  int32
		})(unsafe.Pointer(&buf[off]))
		segLen := int(h.Len)
		if segLen < cmsgHeaderLen || off+segLen > len(buf) {
			break
		}
		if h.Level == unix.IPPROTO_UDP && h.Type == udpGro {
			data := buf[off+cmsgAlign(cmsgHeaderLen):]
			if len(data) >= 2 {
				return uint16(data[0]) | uint16(data[1])<<8
			}
		}
		off += cmsgAlign(segLen)
	}
	return 0
}
