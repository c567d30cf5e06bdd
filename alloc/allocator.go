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

// Package alloc sizes receive buffers adaptively, shrinking after a run
// of small reads and growing after a full-buffer read, so steady-state
// traffic settles on a buffer size close to the actual datagram size
// without resorting to a fixed guess per socket.
package alloc

// Handle is owned by one Registration and consulted once per read-path
// invocation. It is not safe for concurrent use; the event loop that
// owns the registration is the only caller.
type Handle interface {
	// Guess returns the buffer size to allocate for the next recv call.
	Guess() int
	// ContinueReading reports whether the read path should attempt
	// another recv in the same invocation, given how full the last
	// read left its buffer. fullRead is true when the previous read
	// filled the entire buffer Guess() returned, a signal more data
	// may be pending.
	ContinueReading(fullRead bool) bool
	// RecordBytesRead feeds the size of one completed read into the
	// sizing that drives the next Guess().
	RecordBytesRead(n int)
	// Reset clears the per-invocation read count; called once at the
	// start of each read-path invocation.
	Reset()
}

// sizeTable mirrors Netty's AdaptiveRecvByteBufAllocator steps: small
// jumps below 512 bytes, doubling above it, bounded at both ends.
var sizeTable = buildSizeTable()

func buildSizeTable() []int {
	t := make([]int, 0, 53)
	for i := 16; i < 512; i += 16 {
		t = append(t, i)
	}
	for v := 512; v <= 65536*16; v <<= 1 {
		t = append(t, v)
	}
	return t
}

func indexOf(size int) int {
	lo, hi := 0, len(sizeTable)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if sizeTable[mid] < size {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

const (
	defaultMinimum = 64
	defaultInitial = 1024
	defaultMaximum = 65536
	// maxMessagesPerRead caps how many recv calls one read-path
	// invocation will attempt regardless of ContinueReading's verdict,
	// guarding against one socket starving the rest of the event loop.
	maxMessagesPerRead = 16
)

// Adaptive is the default Handle, grounded on Netty's
// AdaptiveRecvByteBufAllocator: each recorded read that fills the
// current guess moves it one table step up, and a read small enough to
// fit the next step down moves it down only on the second such read,
// so a single small datagram doesn't shrink the buffer size.
type Adaptive struct {
	minIndex, maxIndex, index int
	nextSize                  int
	decreaseNow               bool
	messagesInInvocation      int
}

// NewAdaptive builds a Handle with Netty's default bounds (64 B minimum,
// 1 KiB initial guess, 64 KiB maximum).
func NewAdaptive() *Adaptive {
	return NewAdaptiveBounds(defaultMinimum, defaultInitial, defaultMaximum)
}

// NewAdaptiveBounds builds a Handle with explicit bounds, clamping
// initial into [minimum, maximum].
func NewAdaptiveBounds(minimum, initial, maximum int) *Adaptive {
	if initial < minimum {
		initial = minimum
	}
	if initial > maximum {
		initial = maximum
	}

	minIndex := indexOf(minimum)
	if sizeTable[minIndex] < minimum {
		minIndex++
	}
	maxIndex := indexOf(maximum)
	if sizeTable[maxIndex] > maximum {
		maxIndex--
	}

	a := &Adaptive{minIndex: minIndex, maxIndex: maxIndex}
	a.index = indexOf(initial)
	a.nextSize = sizeTable[a.index]
	return a
}

func (a *Adaptive) Guess() int {
	return a.nextSize
}

func (a *Adaptive) ContinueReading(fullRead bool) bool {
	a.messagesInInvocation++
	if a.messagesInInvocation >= maxMessagesPerRead {
		return false
	}
	return fullRead
}

func (a *Adaptive) RecordBytesRead(n int) {
	a.record(n)
}

func (a *Adaptive) record(actualReadBytes int) {
	if actualReadBytes <= sizeTable[max(a.index-1, a.minIndex)] {
		if a.decreaseNow {
			a.index = max(a.index-1, a.minIndex)
			a.nextSize = sizeTable[a.index]
			a.decreaseNow = false
		} else {
			a.decreaseNow = true
		}
	} else if actualReadBytes >= a.nextSize {
		a.index = min(a.index+1, a.maxIndex)
		a.nextSize = sizeTable[a.index]
		a.decreaseNow = false
	}
}

func (a *Adaptive) Reset() {
	a.messagesInInvocation = 0
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Fixed is a Handle that always guesses the same size and reads exactly
// one datagram per invocation; useful for tests and for sockets carrying
// a known, uniform payload size.
type Fixed struct {
	Size int
}

func (f Fixed) Guess() int { return f.Size }

func (f Fixed) ContinueReading(bool) bool { return false }

func (f Fixed) RecordBytesRead(int) {}

func (f Fixed) Reset() {}
