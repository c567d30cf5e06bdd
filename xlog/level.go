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

// Package xlog is the channel's ambient structured logger: a thin,
// level-filtered wrapper over logrus with per-entry fields, kept
// deliberately small so the hot read/write paths can log without
// worrying about an unconfigured logger.
package xlog

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a logging severity, ordered from most to least severe, with
// NilLevel disabling logging entirely.
type Level uint8

const (
	PanicLevel Level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	NilLevel
)

func (l Level) String() string {
	switch l {
	case PanicLevel:
		return "Critical"
	case ErrorLevel:
		return "Error"
	case WarnLevel:
		return "Warning"
	case InfoLevel:
		return "Info"
	case DebugLevel:
		return "Debug"
	case NilLevel:
		return ""
	}
	return "unknown"
}

// Logrus converts Level to its logrus.Level equivalent. NilLevel maps to
// logrus.PanicLevel, the most severe level; Logger has no panic-level
// method, so none of its calls pass that filter.
func (l Level) Logrus() logrus.Level {
	switch l {
	case PanicLevel:
		return logrus.PanicLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.Level(0)
	}
}

// Parse is case-insensitive and defaults to InfoLevel for unknown input.
func Parse(s string) Level {
	switch {
	case strings.EqualFold(s, PanicLevel.String()):
		return PanicLevel
	case strings.EqualFold(s, ErrorLevel.String()):
		return ErrorLevel
	case strings.EqualFold(s, WarnLevel.String()):
		return WarnLevel
	case strings.EqualFold(s, InfoLevel.String()):
		return InfoLevel
	case strings.EqualFold(s, DebugLevel.String()):
		return DebugLevel
	default:
		return InfoLevel
	}
}
