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

// Package errs classifies the failures a datagram channel can surface:
// per-peer write failures, unsupported message shapes, and lifecycle
// errors, each tagged with a CodeError so callers can branch on cause
// without string matching.
package errs

// CodeError is a small numeric classification for channel errors,
// similar in spirit to an HTTP status code.
type CodeError uint8

const (
	// CodeUnknown is the zero value, used when no classification applies.
	CodeUnknown CodeError = iota
	// CodeIO marks a generic native I/O failure (not a recognised special case).
	CodeIO
	// CodePortUnreachable marks an ECONNREFUSED observed on a connected channel.
	CodePortUnreachable
	// CodeUnsupported marks a message shape or offload feature the platform
	// or the channel configuration does not support.
	CodeUnsupported
	// CodeClosed marks an operation attempted against a closed channel.
	CodeClosed
)

func (c CodeError) String() string {
	switch c {
	case CodeIO:
		return "io"
	case CodePortUnreachable:
		return "port_unreachable"
	case CodeUnsupported:
		return "unsupported"
	case CodeClosed:
		return "closed"
	default:
		return "unknown"
	}
}
