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
	"github.com/nabbar/goudp/message"
)

func TestNativePacketArray_AddWritableRespectsCapacity(t *testing.T) {
	a := NewNativePacketArray(2)

	assert.True(t, a.AddWritable(make([]byte, 16)))
	assert.True(t, a.AddWritable(make([]byte, 16)))
	assert.False(t, a.AddWritable(make([]byte, 16)))
	assert.Equal(t, 2, a.Count())
}

func TestNativePacketArray_ResetEmptiesWithoutReallocating(t *testing.T) {
	a := NewNativePacketArray(4)
	a.AddWritable(make([]byte, 8))
	a.Reset()

	assert.Equal(t, 0, a.Count())
	assert.Equal(t, 4, a.Cap())
}

func TestNativePacketArray_AddOutboundOmitsAddressWhenConnected(t *testing.T) {
	a := NewNativePacketArray(1)
	m := message.NewAddressed(buffer.New([]byte("hi"), true), &net.UDPAddr{IP: net.IPv4(1, 2, 3, 4), Port: 53})

	assert.True(t, a.AddOutbound(m, true))
	raw := a.Raw()
	assert.Equal(t, uint32(0), raw[0].hdr.namelen)
}

func TestNativePacketArray_AddOutboundIncludesAddressWhenUnconnected(t *testing.T) {
	a := NewNativePacketArray(1)
	addr := &net.UDPAddr{IP: net.IPv4(1, 2, 3, 4), Port: 53}
	m := message.NewAddressed(buffer.New([]byte("hi"), true), addr)

	assert.True(t, a.AddOutbound(m, false))
	raw := a.Raw()
	assert.NotEqual(t, uint32(0), raw[0].hdr.namelen)
}

func TestNativePacketArray_DecodeRoundTripsReceivedDatagram(t *testing.T) {
	a := NewNativePacketArray(1)
	buf := make([]byte, 32)
	a.AddWritable(buf)

	sender := &net.UDPAddr{IP: net.IPv4(198, 51, 100, 7), Port: 1234}
	var raw rawSockaddr
	n := packSockaddr(sender, &raw)
	a.addrs[0] = raw
	a.msgs[0].hdr.namelen = n
	a.msgs[0].len = 12

	res, err := a.Decode(0)

	assert.NoError(t, err)
	assert.Equal(t, 12, res.N)
	assert.True(t, res.Sender.IP.Equal(sender.IP))
	assert.Equal(t, sender.Port, res.Sender.Port)
}

func TestNativePacketArray_SentLenReadsBackMsgLen(t *testing.T) {
	a := NewNativePacketArray(1)
	a.AddWritable(make([]byte, 8))
	a.msgs[0].len = 5

	assert.Equal(t, 5, a.SentLen(0))
}
