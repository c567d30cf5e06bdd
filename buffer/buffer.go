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

// Package buffer implements the reference-counted byte buffer the
// datagram channel moves payloads through: a shared backing allocation,
// an independent reader/writer cursor pair per handle, and a
// retained-slice operation that lets the read path fan a single kernel
// buffer out into many owned datagrams without copying.
package buffer

import (
	"errors"
	"sync/atomic"
)

// ErrReleased is returned by any operation on a Buffer whose reference
// count has already reached zero.
var ErrReleased = errors.New("buffer: use after release")

// shared is the backing allocation, owned jointly by every Buffer handle
// retained from it (the original allocation plus any retained slices).
type shared struct {
	mem    []byte
	refCnt atomic.Int32
	onZero func([]byte)
}

func (s *shared) retain() {
	s.refCnt.Add(1)
}

func (s *shared) release() bool {
	if s.refCnt.Add(-1) == 0 {
		if s.onZero != nil {
			s.onZero(s.mem)
		}
		return true
	}
	return false
}

// Buffer is one reference-counted view over a (possibly shared) backing
// allocation. offset/length bound the view within the shared slice; rIdx
// and wIdx are cursor positions relative to the view, mirroring a
// read/write cursor pair over the same memory.
type Buffer struct {
	sh     *shared
	offset int
	length int
	rIdx   int
	wIdx   int
	direct bool
	freed  atomic.Bool
	// held counts references taken through Retain on this handle that
	// Release has not yet given back.
	held atomic.Int32
}

// New wraps buf as a Buffer with a single reference, writer index at
// len(buf) (the buffer is presented as "already full" — the common case
// for a receive buffer that was just filled by the kernel) and reader
// index at 0. direct marks whether this memory is kernel-addressable
// without an intermediate copy.
func New(buf []byte, direct bool) *Buffer {
	sh := &shared{mem: buf}
	sh.refCnt.Store(1)
	return &Buffer{sh: sh, offset: 0, length: len(buf), wIdx: len(buf), direct: direct}
}

// NewWritable wraps buf as an empty Buffer (writer index 0), the shape
// expected by the allocator before a recv call fills it in.
func NewWritable(buf []byte, direct bool) *Buffer {
	sh := &shared{mem: buf}
	sh.refCnt.Store(1)
	return &Buffer{sh: sh, offset: 0, length: len(buf), direct: direct}
}

// SetReleaseFunc installs a callback invoked with the backing slice when
// the last reference to it is released (e.g. to return it to a pool).
// Must be called before any Retain/Release races against it; the typical
// caller is whoever constructed the buffer, immediately after New.
func (b *Buffer) SetReleaseFunc(fn func([]byte)) {
	b.sh.onZero = fn
}

// Direct reports whether the backing memory is kernel-addressable
// without an intermediate copy.
func (b *Buffer) Direct() bool {
	return b.direct
}

// Retain increments the shared reference count and returns the same
// handle, mirroring the fluent retain() convention of reference-counted
// buffers.
func (b *Buffer) Retain() *Buffer {
	b.held.Add(1)
	b.sh.retain()
	return b
}

// Release decrements the shared reference count, freeing the backing
// memory when it reaches zero. Each Release gives back one reference
// held by this handle: first those taken through Retain, then the
// handle's own. Once all of them are given back, further calls on the
// same *Buffer are no-ops.
func (b *Buffer) Release() {
	for {
		h := b.held.Load()
		if h <= 0 {
			break
		}
		if b.held.CompareAndSwap(h, h-1) {
			b.sh.release()
			return
		}
	}
	if b.freed.Swap(true) {
		return
	}
	b.sh.release()
}

// RefCnt returns the current shared reference count, for tests and
// invariant assertions only.
func (b *Buffer) RefCnt() int32 {
	return b.sh.refCnt.Load()
}

// Bytes returns the readable region [ReaderIndex, WriterIndex) of this
// view. The returned slice aliases the shared backing memory and must
// not be retained past Release.
func (b *Buffer) Bytes() []byte {
	return b.sh.mem[b.offset+b.rIdx : b.offset+b.wIdx]
}

// WritableBytes returns the writable region [WriterIndex, Cap) of this
// view, the target of a recv syscall.
func (b *Buffer) WritableBytes() []byte {
	return b.sh.mem[b.offset+b.wIdx : b.offset+b.length]
}

// Cap returns the total capacity of this view.
func (b *Buffer) Cap() int { return b.length }

// ReaderIndex / WriterIndex expose the cursor pair.
func (b *Buffer) ReaderIndex() int { return b.rIdx }
func (b *Buffer) WriterIndex() int { return b.wIdx }

// Readable returns the number of bytes available between the reader and
// writer cursors.
func (b *Buffer) Readable() int { return b.wIdx - b.rIdx }

// Writable returns the remaining capacity after the writer cursor.
func (b *Buffer) Writable() int { return b.length - b.wIdx }

// AdvanceWriter moves the writer cursor forward by n bytes, as a recv
// call reports bytes written into WritableBytes.
func (b *Buffer) AdvanceWriter(n int) {
	b.wIdx += n
	if b.wIdx > b.length {
		b.wIdx = b.length
	}
}

// AdvanceReader moves the reader cursor forward by n bytes, as a
// retained slice or a send call consumes bytes from Bytes().
func (b *Buffer) AdvanceReader(n int) {
	b.rIdx += n
	if b.rIdx > b.wIdx {
		b.rIdx = b.wIdx
	}
}

// RetainedSlice returns an independent Buffer handle over
// [ReaderIndex+offset, ReaderIndex+offset+length) of this buffer's
// readable region, sharing (and retaining) the same backing allocation.
// The returned buffer owns its own cursor pair; releasing it never
// affects this buffer's own reference.
func (b *Buffer) RetainedSlice(offset, length int) *Buffer {
	b.sh.retain()
	base := b.offset + b.rIdx + offset
	return &Buffer{
		sh:     b.sh,
		offset: base,
		length: length,
		wIdx:   length,
		direct: b.direct,
	}
}
