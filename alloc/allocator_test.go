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

package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nabbar/goudp/alloc"
)

func TestAdaptive_InitialGuessIsClampedToTable(t *testing.T) {
	a := alloc.NewAdaptiveBounds(64, 1024, 65536)
	assert.Equal(t, 1024, a.Guess())
}

func TestAdaptive_GrowsAfterFullReads(t *testing.T) {
	a := alloc.NewAdaptiveBounds(64, 1024, 65536)
	initial := a.Guess()

	for i := 0; i < 4; i++ {
		a.RecordBytesRead(a.Guess())
	}

	assert.Greater(t, a.Guess(), initial)
}

func TestAdaptive_ShrinksAfterSmallReads(t *testing.T) {
	a := alloc.NewAdaptiveBounds(64, 4096, 65536)
	initial := a.Guess()

	// record enough small reads with hysteresis to trigger a shrink.
	for i := 0; i < 4; i++ {
		a.RecordBytesRead(32)
	}

	assert.Less(t, a.Guess(), initial)
}

func TestAdaptive_NeverExceedsMaximum(t *testing.T) {
	a := alloc.NewAdaptiveBounds(64, 1024, 2048)
	for i := 0; i < 50; i++ {
		a.RecordBytesRead(1 << 20)
	}
	assert.LessOrEqual(t, a.Guess(), 2048)
}

func TestAdaptive_NeverBelowMinimum(t *testing.T) {
	a := alloc.NewAdaptiveBounds(128, 1024, 65536)
	for i := 0; i < 50; i++ {
		a.RecordBytesRead(1)
	}
	assert.GreaterOrEqual(t, a.Guess(), 128)
}

func TestAdaptive_ContinueReadingCapsMessagesPerInvocation(t *testing.T) {
	a := alloc.NewAdaptive()
	a.Reset()

	count := 0
	for a.ContinueReading(true) {
		count++
		if count > 100 {
			t.Fatal("ContinueReading never returned false")
		}
	}
	assert.Less(t, count, 100)
}

func TestAdaptive_ContinueReadingStopsOnPartialRead(t *testing.T) {
	a := alloc.NewAdaptive()
	a.Reset()
	assert.False(t, a.ContinueReading(false))
}

func TestFixed_AlwaysSameSizeAndSingleRead(t *testing.T) {
	f := alloc.Fixed{Size: 2048}
	assert.Equal(t, 2048, f.Guess())
	assert.False(t, f.ContinueReading(true))
	f.RecordBytesRead(100)
	f.Reset()
	assert.Equal(t, 2048, f.Guess())
}
