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

// Package message defines the datagram shapes that flow through the
// write and read paths of the UDP channel: bare, addressed and segmented
// outbound messages, and the inbound datagram (whose
// SegmentSize is set transiently when UDP_GRO coalesced several
// datagrams into one read, pending fan-out).
package message

import (
	"net"

	"github.com/nabbar/goudp/buffer"
)

// Kind discriminates the outbound message shapes from spec §3.
type Kind uint8

const (
	// KindBuffer is a bare payload; the channel must already be connected.
	KindBuffer Kind = iota
	// KindAddressed carries an explicit per-packet recipient.
	KindAddressed
	// KindSegmented is a single large payload the kernel will split into
	// SegmentSize-byte datagrams via UDP_SEGMENT (GSO).
	KindSegmented
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindAddressed:
		return "addressed"
	case KindSegmented:
		return "segmented"
	default:
		return "unknown"
	}
}

// Outbound is one message handed to the channel's write queue. Recipient
// is nil for KindBuffer, and may be nil for KindAddressed only when the
// channel is connected (the kernel uses the connected peer). Payload is
// released exactly once, whether the message is sent, fails, or is
// rejected by the filter.
type Outbound struct {
	Kind        Kind
	Payload     *buffer.Buffer
	Recipient   *net.UDPAddr
	SegmentSize int
	Promise     *Promise
}

// NewBuffer builds a bare outbound message; the channel must be
// connected for this to be accepted.
func NewBuffer(payload *buffer.Buffer) *Outbound {
	return &Outbound{Kind: KindBuffer, Payload: payload, Promise: NewPromise()}
}

// NewAddressed builds an outbound message with an explicit per-packet
// recipient. recipient may be nil only when the channel is connected.
func NewAddressed(payload *buffer.Buffer, recipient *net.UDPAddr) *Outbound {
	return &Outbound{Kind: KindAddressed, Payload: payload, Recipient: recipient, Promise: NewPromise()}
}

// NewSegmented builds an outbound message whose payload the kernel
// splits into segmentSize-byte datagrams via UDP_SEGMENT. segmentSize
// must be > 0.
func NewSegmented(payload *buffer.Buffer, segmentSize int, recipient *net.UDPAddr) *Outbound {
	return &Outbound{Kind: KindSegmented, Payload: payload, Recipient: recipient, SegmentSize: segmentSize, Promise: NewPromise()}
}

// Inbound is the datagram the read path delivers to the pipeline.
// Sender is nil for datagrams read by a connected channel's single-read
// path, which does not record the peer address. SegmentSize is non-zero
// only transiently, between a GRO-coalesced
// recv and the fan-out that splits it into SegmentSize-sized Inbound
// values with SegmentSize reset to 0.
type Inbound struct {
	Payload     *buffer.Buffer
	Sender      net.Addr
	Recipient   net.Addr
	SegmentSize int
}

// IsSegmented reports whether this inbound datagram is an unexpanded
// GRO-coalesced read still awaiting fan-out.
func (in *Inbound) IsSegmented() bool {
	return in.SegmentSize > 0
}

// FanOut splits a GRO-coalesced Inbound into ordinary, SegmentSize-sized
// Addressed packets, retained-slicing the receive buffer so no copy is
// made. The original container's own reference is released; the caller
// must not use in.Payload after this call.
func (in *Inbound) FanOut() []*Inbound {
	if !in.IsSegmented() {
		return []*Inbound{in}
	}

	total := in.Payload.Readable()
	out := make([]*Inbound, 0, (total+in.SegmentSize-1)/in.SegmentSize)

	off := 0
	for off < total {
		n := in.SegmentSize
		if rem := total - off; rem < n {
			n = rem
		}
		out = append(out, &Inbound{
			Payload:   in.Payload.RetainedSlice(off, n),
			Sender:    in.Sender,
			Recipient: in.Recipient,
		})
		off += n
	}

	in.Payload.Release()
	return out
}
