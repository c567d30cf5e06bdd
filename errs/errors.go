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
	"fmt"
)

// Error extends the standard error with a CodeError classification and
// access to the wrapped cause, while staying compatible with errors.Is
// and errors.As.
type Error interface {
	error
	Code() CodeError
	IsCode(c CodeError) bool
	Unwrap() error
}

type chanError struct {
	code  CodeError
	msg   string
	cause error
}

// New builds a classified Error with no underlying cause.
func New(code CodeError, msg string) Error {
	return &chanError{code: code, msg: msg}
}

// Wrap builds a classified Error around an existing cause. If cause is
// nil, Wrap returns nil so call sites can write `return errs.Wrap(...)`
// unconditionally after a syscall.
func Wrap(code CodeError, msg string, cause error) Error {
	if cause == nil {
		return nil
	}
	return &chanError{code: code, msg: msg, cause: cause}
}

func (e *chanError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

func (e *chanError) Code() CodeError { return e.code }

func (e *chanError) IsCode(c CodeError) bool { return e.code == c }

func (e *chanError) Unwrap() error { return e.cause }

// IsCode reports whether err (or any error it wraps) carries the given
// CodeError classification.
func IsCode(err error, c CodeError) bool {
	var ce Error
	if errors.As(err, &ce) {
		return ce.IsCode(c)
	}
	return false
}

// Unsupported builds a CodeUnsupported error for a message shape or
// offload feature not available on the current platform or config.
func Unsupported(msg string) Error {
	return New(CodeUnsupported, msg)
}

// Closed builds a CodeClosed error for an operation attempted against a
// channel that is no longer open.
func Closed(msg string) Error {
	return New(CodeClosed, msg)
}
