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

package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/message"
	"github.com/nabbar/goudp/pipeline"
)

func TestFuncs_DefaultsReleasePayload(t *testing.T) {
	var released bool
	b := buffer.New([]byte("x"), true)
	b.SetReleaseFunc(func([]byte) { released = true })

	f := pipeline.Funcs{}
	f.FireRead(&message.Inbound{Payload: b})

	assert.True(t, released)
}

func TestFuncs_CallsHooks(t *testing.T) {
	var gotRead, gotComplete, gotErr bool
	f := pipeline.Funcs{
		OnRead:         func(in *message.Inbound) { gotRead = true },
		OnReadComplete: func() { gotComplete = true },
		OnException:    func(err error) { gotErr = true },
	}

	f.FireRead(&message.Inbound{Payload: buffer.New([]byte("x"), true)})
	f.FireReadComplete()
	f.FireException(errors.New("boom"))

	assert.True(t, gotRead)
	assert.True(t, gotComplete)
	assert.True(t, gotErr)
}

func TestRecording_CapturesEvents(t *testing.T) {
	r := &pipeline.Recording{}
	in1 := &message.Inbound{Payload: buffer.New([]byte("a"), true)}
	in2 := &message.Inbound{Payload: buffer.New([]byte("b"), true)}

	r.FireRead(in1)
	r.FireRead(in2)
	r.FireReadComplete()
	r.FireException(errors.New("x"))

	assert.Equal(t, []*message.Inbound{in1, in2}, r.Reads)
	assert.Equal(t, 1, r.ReadCompletes)
	assert.Len(t, r.Exceptions, 1)
}
