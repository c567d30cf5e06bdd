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

package udp

import (
	"net"

	"github.com/nabbar/goudp/message"
)

// NativePacketArray is a pooled, fixed-capacity staging area for one
// batch of sendmmsg/recvmmsg slots. A pair of these (one for reads, one
// for writes) is owned by the eventloop.Registration the channel is
// registered with, stored in its UserData and looked up from there
// rather than allocated per Channel, so the staging buffers live and
// die with the registration. Callers must Reset() before use and must
// not hold an array across a pipeline callback.
type NativePacketArray struct {
	cap   int
	iovs  []iovec
	addrs []rawSockaddr
	cmsgs [][]byte
	msgs  []mmsghdr
	count int
}

// NewNativePacketArray builds an array with room for capacity slots.
func NewNativePacketArray(capacity int) *NativePacketArray {
	if capacity <= 0 {
		capacity = 64
	}
	a := &NativePacketArray{
		cap:   capacity,
		iovs:  make([]iovec, capacity),
		addrs: make([]rawSockaddr, capacity),
		cmsgs: make([][]byte, capacity),
		msgs:  make([]mmsghdr, capacity),
	}
	space := cmsgSpace(2)
	for i := range a.cmsgs {
		a.cmsgs[i] = make([]byte, space)
	}
	return a
}

// Reset empties all slots without freeing the underlying allocations.
func (a *NativePacketArray) Reset() {
	a.count = 0
}

// Count reports how many slots are currently populated.
func (a *NativePacketArray) Count() int {
	return a.count
}

// Cap reports the array's slot capacity.
func (a *NativePacketArray) Cap() int {
	return a.cap
}

// AddWritable registers one receive target. Returns false if the array
// is already at capacity.
func (a *NativePacketArray) AddWritable(buf []byte) bool {
	if a.count >= a.cap {
		return false
	}
	i := a.count
	a.setIovec(i, buf)
	a.msgs[i] = mmsghdr{hdr: msghdr{
		name:       &a.addrs[i][0],
		namelen:    uint32(len(a.addrs[i])),
		iov:        &a.iovs[i],
		iovlen:     1,
		control:    &a.cmsgs[i][0],
		controllen: uint64(len(a.cmsgs[i])),
	}}
	a.count++
	return true
}

// AddOutbound registers one outbound message for a batched sendmmsg
// call. connected suppresses the recipient address (the kernel uses
// the connected peer). Returns false if the array is full.
func (a *NativePacketArray) AddOutbound(m *message.Outbound, connected bool) bool {
	if a.count >= a.cap {
		return false
	}
	i := a.count
	a.setIovec(i, m.Payload.Bytes())

	h := msghdr{iov: &a.iovs[i], iovlen: 1}
	if !connected && m.Recipient != nil {
		n := packSockaddr(m.Recipient, &a.addrs[i])
		h.name = &a.addrs[i][0]
		h.namelen = n
	}
	if m.Kind == message.KindSegmented {
		putSegmentCmsg(a.cmsgs[i], udpSegment, uint16(m.SegmentSize))
		h.control = &a.cmsgs[i][0]
		h.controllen = uint64(cmsgSpace(2))
	}
	a.msgs[i] = mmsghdr{hdr: h}
	a.count++
	return true
}

func (a *NativePacketArray) setIovec(i int, buf []byte) {
	if len(buf) == 0 {
		a.iovs[i] = iovec{}
		return
	}
	a.iovs[i] = iovec{base: &buf[0], len: uint64(len(buf))}
}

// SentLen reports, for slot i after a sendmmsg call, how many
// bytes the kernel accepted (msg_len).
func (a *NativePacketArray) SentLen(i int) int {
	return int(a.msgs[i].len)
}

// RecvResult is the decoded outcome of one populated recvmmsg/recvmsg
// slot: how many bytes arrived, who sent them, and the GRO segment size
// the kernel reported (0 if none).
type RecvResult struct {
	N           int
	Sender      *net.UDPAddr
	SegmentSize int
}

// Decode reads back slot i's result after a recvmmsg/recvmsg call.
func (a *NativePacketArray) Decode(i int) (RecvResult, error) {
	n := int(a.msgs[i].len)
	sender, err := unpackSockaddr(a.addrs[i], a.msgs[i].hdr.namelen)
	if err != nil {
		return RecvResult{}, err
	}
	seg := int(parseSegmentCmsg(a.cmsgs[i]))
	return RecvResult{N: n, Sender: sender, SegmentSize: seg}, nil
}

// Raw exposes the populated mmsghdr slice for a syscall, len == Count().
func (a *NativePacketArray) Raw() []mmsghdr {
	return a.msgs[:a.count]
}
