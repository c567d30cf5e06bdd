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
	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/errs"
	"github.com/nabbar/goudp/message"
)

// OutboundFilter normalises one message handed to Channel.Write into the
// channel's canonical shape: payload always in a direct (kernel
// addressable) buffer, segmentation only when the platform supports it.
type OutboundFilter struct {
	segmentationSupported bool
	pool                  *buffer.Pool
}

// NewOutboundFilter builds a filter; pool supplies replacement direct
// buffers for non-direct payloads.
func NewOutboundFilter(segmentationSupported bool, pool *buffer.Pool) *OutboundFilter {
	return &OutboundFilter{segmentationSupported: segmentationSupported, pool: pool}
}

// Apply enforces the decision table from the component design: Segmented
// messages require platform support; every payload ends up direct,
// copied into a pooled buffer when it wasn't already. The original
// payload is released exactly once, whether or not a copy was made.
func (f *OutboundFilter) Apply(m *message.Outbound) error {
	switch m.Kind {
	case message.KindSegmented:
		if !f.segmentationSupported {
			m.Payload.Release()
			return errs.Unsupported("segmented datagrams are not supported by this platform")
		}
		if m.SegmentSize <= 0 {
			m.Payload.Release()
			return errs.Unsupported("segmented datagram requires a positive segment size")
		}
		f.ensureDirect(m)
		return nil
	case message.KindAddressed, message.KindBuffer:
		f.ensureDirect(m)
		return nil
	default:
		m.Payload.Release()
		return errs.Unsupported("unrecognised outbound message kind")
	}
}

func (f *OutboundFilter) ensureDirect(m *message.Outbound) {
	if m.Payload.Direct() {
		return
	}

	direct := f.pool.Get()
	n := copy(direct.WritableBytes(), m.Payload.Bytes())
	direct.AdvanceWriter(n)
	m.Payload.Release()
	m.Payload = direct
}
