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

	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/alloc"
	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/config"
	"github.com/nabbar/goudp/errs"
	"github.com/nabbar/goudp/message"
	"github.com/nabbar/goudp/metrics"
	"github.com/nabbar/goudp/pipeline"
)

// readPath drives one epoll-in event to completion: it asks the
// allocator for a buffer, picks a strategy (connected single read,
// unconnected/GRO single read, or scattering batch read), delivers
// datagrams to the pipeline, and decides whether to loop for more.
type readPath struct {
	fd        int
	cfg       *config.Config
	alloc     alloc.Handle
	pool      *buffer.Pool
	array     *NativePacketArray
	pipe      pipeline.Pipeline
	metrics   *metrics.Collector
	label     string
	localAddr net.Addr
}

// run executes one ReadPath invocation for a connected or unconnected
// channel and reports the last bytes-read value recorded, mirroring the
// allocator-discipline hook from the component design.
func (r *readPath) run(connected bool) int {
	lastBytesRead := 0
	var captured error

	r.alloc.Reset()

	for {
		n, err := r.iterate(connected)
		lastBytesRead = n

		if err != nil {
			captured = err
			break
		}
		if n <= 0 {
			break
		}

		r.alloc.RecordBytesRead(n)
		fullRead := n >= r.alloc.Guess()
		if !r.alloc.ContinueReading(fullRead) {
			break
		}
	}

	r.pipe.FireReadComplete()
	if captured != nil {
		r.metrics.ObserveError(classify(captured).String())
		r.pipe.FireException(captured)
	}
	return lastBytesRead
}

func (r *readPath) iterate(connected bool) (int, error) {
	datagramSize := r.cfg.MaxDatagramPayloadSize
	numDatagram := 1
	if r.cfg.EnableRecvmmsg && datagramSize > 0 {
		numDatagram = r.alloc.Guess() / datagramSize
		if numDatagram < 1 {
			numDatagram = 1
		}
	}

	switch {
	case connected && !r.cfg.EnableGRO && numDatagram <= 1:
		return r.connectedSingleRead()
	case numDatagram <= 1:
		return r.unconnectedSingleRead(connected)
	default:
		return r.scatteringRead(datagramSize, numDatagram, connected)
	}
}

func (r *readPath) connectedSingleRead() (int, error) {
	b := r.acquireReceiveBuffer(r.alloc.Guess())
	n, err := unix.Read(r.fd, b.WritableBytes())
	if err != nil {
		b.Release()
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return -1, errs.Translate(err, true)
	}
	if n <= 0 {
		b.Release()
		return n, nil
	}

	b.AdvanceWriter(n)
	in := &message.Inbound{Payload: b, Sender: nil, Recipient: r.localAddr}
	r.deliver(in)
	r.metrics.ObserveRead(r.label, 1, n)
	return n, nil
}

// unconnectedSingleRead reads one datagram, recording the sender address
// and any GRO segment size. It uses recvmmsg (n=1) when the platform and
// config allow batched I/O, and falls back to a portable recvmsg(2) call
// otherwise, since recvmmsg is not guaranteed available.
func (r *readPath) unconnectedSingleRead(connected bool) (int, error) {
	if r.cfg.EnableRecvmmsg {
		return r.unconnectedSingleReadBatched(connected)
	}
	return r.unconnectedSingleReadPortable(connected)
}

func (r *readPath) unconnectedSingleReadBatched(connected bool) (int, error) {
	r.array.Reset()
	b := r.acquireReceiveBuffer(r.alloc.Guess())
	r.array.AddWritable(b.WritableBytes())

	n, err := recvmmsg(r.fd, r.array.Raw(), 1, 0)
	if err != nil {
		b.Release()
		return -1, errs.Translate(err, connected)
	}
	if n == 0 {
		b.Release()
		return -1, nil
	}

	res, err := r.array.Decode(0)
	if err != nil {
		b.Release()
		return -1, errs.Wrap(errs.CodeIO, "decode sender address", err)
	}

	b.AdvanceWriter(res.N)
	in := &message.Inbound{Payload: b, Sender: res.Sender, Recipient: r.localAddr, SegmentSize: res.SegmentSize}

	r.deliverWithFanOut(in)
	r.metrics.ObserveRead(r.label, 1, res.N)
	return res.N, nil
}

func (r *readPath) unconnectedSingleReadPortable(connected bool) (int, error) {
	b := r.acquireReceiveBuffer(r.alloc.Guess())
	oob := make([]byte, cmsgSpace(2))

	n, oobn, _, from, err := unix.Recvmsg(r.fd, b.WritableBytes(), oob, 0)
	if err != nil {
		b.Release()
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return -1, errs.Translate(err, connected)
	}
	if n <= 0 {
		b.Release()
		return n, nil
	}

	b.AdvanceWriter(n)
	seg := int(parseSegmentCmsg(oob[:oobn]))
	in := &message.Inbound{Payload: b, Sender: sockaddrToUDPAddr(from), Recipient: r.localAddr, SegmentSize: seg}

	r.deliverWithFanOut(in)
	r.metrics.ObserveRead(r.label, 1, n)
	return n, nil
}

// scatteringRead is only reached when EnableRecvmmsg is set (see
// iterate), since draining several datagrams per syscall has no
// portable equivalent.
func (r *readPath) scatteringRead(datagramSize, numDatagram int, connected bool) (int, error) {
	r.array.Reset()
	bufs := make([]*buffer.Buffer, 0, numDatagram)
	for i := 0; i < numDatagram; i++ {
		b := r.acquireReceiveBuffer(datagramSize)
		dst := b.WritableBytes()
		if len(dst) > datagramSize {
			dst = dst[:datagramSize]
		}
		if !r.array.AddWritable(dst) {
			b.Release()
			break
		}
		bufs = append(bufs, b)
	}

	n, err := recvmmsg(r.fd, r.array.Raw(), len(bufs), 0)
	if err != nil {
		for _, b := range bufs {
			b.Release()
		}
		return -1, errs.Translate(err, connected)
	}
	if n == 0 {
		for _, b := range bufs {
			b.Release()
		}
		return -1, nil
	}

	total := 0
	for i := 0; i < n; i++ {
		res, derr := r.array.Decode(i)
		if derr != nil {
			bufs[i].Release()
			continue
		}
		bufs[i].AdvanceWriter(res.N)
		in := &message.Inbound{Payload: bufs[i], Sender: res.Sender, Recipient: r.localAddr, SegmentSize: res.SegmentSize}
		r.deliverWithFanOut(in)
		total += res.N
	}
	for i := n; i < len(bufs); i++ {
		bufs[i].Release()
	}
	r.metrics.ObserveRead(r.label, n, total)
	return total, nil
}

func (r *readPath) deliverWithFanOut(in *message.Inbound) {
	for _, piece := range in.FanOut() {
		r.deliver(piece)
	}
}

func (r *readPath) deliver(in *message.Inbound) {
	r.pipe.FireRead(in)
}

// acquireReceiveBuffer draws a direct, writable buffer sized for one
// receive: from the pool when it's configured and big enough, or a
// fresh allocation otherwise. The caller must Release it on every exit
// path, including EAGAIN and error returns.
func (r *readPath) acquireReceiveBuffer(size int) *buffer.Buffer {
	if r.pool != nil && size <= r.pool.Capacity() {
		return r.pool.Get()
	}
	return buffer.NewWritable(make([]byte, size), true)
}
