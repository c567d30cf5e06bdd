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

package xlog

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value pairs alongside a log entry.
type Fields map[string]interface{}

// Logger is the minimal structured-logging contract the channel depends
// on. A nil *Logger is valid and silently drops every call, so callers
// that don't care about logging never need to construct one.
type Logger struct {
	lvl atomic.Uint32
	out *logrus.Logger
}

// New builds a Logger writing to w (io.Discard if w is nil) at the given
// level.
func New(w io.Writer, lvl Level) *Logger {
	l := &logrus.Logger{
		Out:       w,
		Formatter: &logrus.TextFormatter{FullTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     lvl.Logrus(),
	}
	if w == nil {
		l.Out = io.Discard
	}
	lg := &Logger{out: l}
	lg.lvl.Store(uint32(lvl))
	return lg
}

// SetLevel updates the minimal level of message this logger emits.
func (l *Logger) SetLevel(lvl Level) {
	if l == nil {
		return
	}
	l.lvl.Store(uint32(lvl))
	l.out.SetLevel(lvl.Logrus())
}

// GetLevel returns the current minimal level.
func (l *Logger) GetLevel() Level {
	if l == nil {
		return NilLevel
	}
	return Level(l.lvl.Load())
}

func (l *Logger) entry(fields Fields) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(l.out)
	}
	return l.out.WithFields(logrus.Fields(fields))
}

func (l *Logger) Debug(msg string, fields Fields) {
	if l == nil {
		return
	}
	l.entry(fields).Debug(msg)
}

func (l *Logger) Info(msg string, fields Fields) {
	if l == nil {
		return
	}
	l.entry(fields).Info(msg)
}

func (l *Logger) Warn(msg string, fields Fields) {
	if l == nil {
		return
	}
	l.entry(fields).Warn(msg)
}

func (l *Logger) Error(msg string, fields Fields) {
	if l == nil {
		return
	}
	l.entry(fields).Error(msg)
}
