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

package udp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/errs"
	"github.com/nabbar/goudp/message"
)

func TestOutboundFilter_SegmentedRejectedWithoutPlatformSupport(t *testing.T) {
	f := NewOutboundFilter(false, buffer.NewPool(1500))
	m := message.NewSegmented(buffer.New([]byte("payload"), false), 512, &net.UDPAddr{})

	err := f.Apply(m)

	assert.True(t, errs.IsCode(err, errs.CodeUnsupported))
	assert.EqualValues(t, 0, m.Payload.RefCnt())
}

func TestOutboundFilter_SegmentedRejectedOnNonPositiveSize(t *testing.T) {
	f := NewOutboundFilter(true, buffer.NewPool(1500))
	m := message.NewSegmented(buffer.New([]byte("payload"), false), 0, &net.UDPAddr{})

	err := f.Apply(m)

	assert.True(t, errs.IsCode(err, errs.CodeUnsupported))
}

func TestOutboundFilter_SegmentedAcceptedAndCopiedDirect(t *testing.T) {
	f := NewOutboundFilter(true, buffer.NewPool(1500))
	original := buffer.New([]byte("payload"), false)
	m := message.NewSegmented(original, 512, &net.UDPAddr{})

	err := f.Apply(m)

	assert.NoError(t, err)
	assert.True(t, m.Payload.Direct())
	assert.Equal(t, []byte("payload"), m.Payload.Bytes())
	assert.EqualValues(t, 0, original.RefCnt())
}

func TestOutboundFilter_NonDirectPayloadIsCopiedIntoPooledDirectBuffer(t *testing.T) {
	f := NewOutboundFilter(true, buffer.NewPool(1500))
	original := buffer.New([]byte("hello"), false)
	m := message.NewBuffer(original)

	err := f.Apply(m)

	assert.NoError(t, err)
	assert.True(t, m.Payload.Direct())
	assert.NotSame(t, original, m.Payload)
	assert.Equal(t, []byte("hello"), m.Payload.Bytes())
}

func TestOutboundFilter_AlreadyDirectPayloadIsUntouched(t *testing.T) {
	f := NewOutboundFilter(true, buffer.NewPool(1500))
	original := buffer.New([]byte("hello"), true)
	m := message.NewBuffer(original)

	err := f.Apply(m)

	assert.NoError(t, err)
	assert.Same(t, original, m.Payload)
}

func TestOutboundFilter_UnrecognisedKindRejectedAndReleased(t *testing.T) {
	f := NewOutboundFilter(true, buffer.NewPool(1500))
	m := &message.Outbound{Kind: message.Kind(99), Payload: buffer.New([]byte("x"), true), Promise: message.NewPromise()}

	err := f.Apply(m)

	assert.True(t, errs.IsCode(err, errs.CodeUnsupported))
	assert.EqualValues(t, 0, m.Payload.RefCnt())
}
