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

import "github.com/nabbar/goudp/message"

// outboundQueue is a FIFO of messages awaiting the WritePath, owned and
// accessed only on the channel's event-loop thread.
type outboundQueue struct {
	items []*message.Outbound
}

func (q *outboundQueue) push(m *message.Outbound) {
	q.items = append(q.items, m)
}

func (q *outboundQueue) empty() bool {
	return len(q.items) == 0
}

func (q *outboundQueue) len() int {
	return len(q.items)
}

func (q *outboundQueue) front() *message.Outbound {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// removeSuccess drops the head message, completing its promise with
// nil and releasing its payload.
func (q *outboundQueue) removeSuccess() {
	m := q.items[0]
	m.Payload.Release()
	m.Promise.Complete(nil)
	q.items = q.items[1:]
}

// removeFailure drops the head message, completing its promise with err
// and releasing its payload. The batch continues: one bad peer must not
// poison the rest of the queue.
func (q *outboundQueue) removeFailure(err error) {
	m := q.items[0]
	m.Payload.Release()
	m.Promise.Complete(err)
	q.items = q.items[1:]
}

// removeBatchSuccess drops n messages from the head as one successful batch
// (used after a sendmmsg call reports sent == n).
func (q *outboundQueue) removeBatchSuccess(n int) {
	for i := 0; i < n; i++ {
		q.removeSuccess()
	}
}
