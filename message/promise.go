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

package message

import "sync"

// Promise is the terminal, set-exactly-once completion signal for one
// outbound message: the WritePath resolves it with nil on success or
// with the send error on failure/removal.
type Promise struct {
	once sync.Once
	done chan error
}

// NewPromise builds an unresolved Promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan error, 1)}
}

// Complete resolves the promise exactly once; later calls are no-ops.
func (p *Promise) Complete(err error) {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.done <- err
		close(p.done)
	})
}

// Wait blocks until the promise is resolved and returns its error (nil
// on success).
func (p *Promise) Wait() error {
	if p == nil {
		return nil
	}
	return <-p.done
}

// Done exposes the resolution channel for select-based waiters.
func (p *Promise) Done() <-chan error {
	if p == nil {
		c := make(chan error)
		close(c)
		return c
	}
	return p.done
}
