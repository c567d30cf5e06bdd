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

package errs

import (
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

// Translate applies the channel's native-error classification rule: on a
// connected channel, ECONNREFUSED becomes CodePortUnreachable (the peer
// actively rejected the datagram); everything else becomes a plain CodeIO
// error. Returns nil for a nil cause.
func Translate(cause error, connected bool) Error {
	if cause == nil {
		return nil
	}
	if connected && errors.Is(cause, unix.ECONNREFUSED) {
		return Wrap(CodePortUnreachable, "port unreachable", cause)
	}
	return Wrap(CodeIO, "datagram io error", cause)
}

// Filter drops the noise generated when a socket is closed out from under
// a blocked syscall: "use of closed network connection" style errors
// collapse to nil so a shutdown path doesn't get reported as a failure.
func Filter(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EBADF) {
		return nil
	}
	if strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return err
}
