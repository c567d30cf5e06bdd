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

package buffer

import "sync"

// Pool hands out direct, writable Buffers of a fixed capacity and takes
// their backing slice back once the last reference is released, so the
// allocator doesn't churn the GC under sustained datagram traffic.
type Pool struct {
	cap int
	p   sync.Pool
}

// NewPool builds a Pool of buffers with the given capacity.
func NewPool(capacity int) *Pool {
	pl := &Pool{cap: capacity}
	pl.p.New = func() any {
		b := make([]byte, capacity)
		return &b
	}
	return pl
}

// Get returns a fresh writable Buffer backed by a pooled slice. The
// buffer is "direct" by pool convention: Pool exists specifically to
// hand the kernel pre-allocated, reusable memory.
func (pl *Pool) Get() *Buffer {
	ptr := pl.p.Get().(*[]byte)
	b := NewWritable(*ptr, true)
	b.SetReleaseFunc(func(mem []byte) {
		pl.p.Put(&mem)
	})
	return b
}

// Capacity returns the fixed size of buffers this pool hands out.
func (pl *Pool) Capacity() int { return pl.cap }
