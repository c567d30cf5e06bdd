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

package xlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nabbar/goudp/xlog"
)

func TestLevel_ParseRoundTrip(t *testing.T) {
	for _, lvl := range []xlog.Level{xlog.PanicLevel, xlog.ErrorLevel, xlog.WarnLevel, xlog.InfoLevel, xlog.DebugLevel} {
		assert.Equal(t, lvl, xlog.Parse(lvl.String()))
	}
	assert.Equal(t, xlog.InfoLevel, xlog.Parse("bogus"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := xlog.New(&buf, xlog.WarnLevel)

	l.Debug("should not appear", nil)
	l.Info("should not appear either", nil)
	l.Warn("should appear", xlog.Fields{"peer": "1.2.3.4:53"})

	out := buf.String()
	assert.False(t, strings.Contains(out, "should not appear"))
	assert.True(t, strings.Contains(out, "should appear"))
	assert.True(t, strings.Contains(out, "peer"))
}

func TestLogger_NilIsSafe(t *testing.T) {
	var l *xlog.Logger
	assert.NotPanics(t, func() {
		l.Debug("x", nil)
		l.Info("x", nil)
		l.Warn("x", nil)
		l.Error("x", nil)
		l.SetLevel(xlog.DebugLevel)
		assert.Equal(t, xlog.NilLevel, l.GetLevel())
	})
}

func TestLogger_SetLevel(t *testing.T) {
	l := xlog.New(nil, xlog.InfoLevel)
	l.SetLevel(xlog.DebugLevel)
	assert.Equal(t, xlog.DebugLevel, l.GetLevel())
}
