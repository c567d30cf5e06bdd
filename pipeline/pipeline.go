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

// Package pipeline is the named contract between the datagram channel
// and whatever user-supplied handler chain consumes its events: one
// FireRead per delivered datagram, always followed eventually by
// FireReadComplete, with FireException (if any) firing after
// FireReadComplete per spec §7's "complete-then-error" ordering.
package pipeline

import "github.com/nabbar/goudp/message"

// Pipeline is the minimal event sink the channel drives. Implementations
// must be safe to call repeatedly from the channel's single event-loop
// thread; they are never called concurrently by this module.
type Pipeline interface {
	// FireRead delivers one inbound datagram. Ownership of in.Payload
	// passes to the pipeline; it must Release it once done.
	FireRead(in *message.Inbound)
	// FireReadComplete signals the end of one read-path invocation,
	// after every FireRead call for that invocation.
	FireReadComplete()
	// FireException reports a channel-wide error (as opposed to a
	// per-message write failure, which completes that message's own
	// Promise instead).
	FireException(err error)
}

// Funcs adapts three plain functions into a Pipeline, the common case for
// tests and small programs that don't need a full handler chain.
type Funcs struct {
	OnRead         func(in *message.Inbound)
	OnReadComplete func()
	OnException    func(err error)
}

func (f Funcs) FireRead(in *message.Inbound) {
	if f.OnRead != nil {
		f.OnRead(in)
	} else {
		in.Payload.Release()
	}
}

func (f Funcs) FireReadComplete() {
	if f.OnReadComplete != nil {
		f.OnReadComplete()
	}
}

func (f Funcs) FireException(err error) {
	if f.OnException != nil {
		f.OnException(err)
	}
}

// Recording is a Pipeline that keeps every event it receives, sized for
// tests that assert on delivery order and count rather than content.
type Recording struct {
	Reads         []*message.Inbound
	ReadCompletes int
	Exceptions    []error
}

func (r *Recording) FireRead(in *message.Inbound) {
	r.Reads = append(r.Reads, in)
}

func (r *Recording) FireReadComplete() {
	r.ReadCompletes++
}

func (r *Recording) FireException(err error) {
	r.Exceptions = append(r.Exceptions, err)
}
