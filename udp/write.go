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
	"github.com/nabbar/goudp/config"
	"github.com/nabbar/goudp/errs"
	"github.com/nabbar/goudp/message"
	"github.com/nabbar/goudp/metrics"
)

// writePath drains the outbound queue of one channel: batched sendmmsg
// when profitable, a per-message spin otherwise. It never blocks; a
// kernel-not-writable condition simply stops the pass early, leaving
// the queue non-empty so the caller re-arms EPOLLOUT.
type writePath struct {
	fd      int
	cfg     *config.Config
	array   *NativePacketArray
	queue   *outboundQueue
	metrics *metrics.Collector
	label   string
}

// run executes one WritePath invocation and reports whether EPOLLOUT
// must stay armed (true) or can be cleared (false).
func (w *writePath) run(connected bool) bool {
	budget := w.cfg.MaxDatagramsPerWrite

	for budget > 0 && !w.queue.empty() {
		head := w.queue.front()
		useBatch := (w.cfg.EnableSendmmsg && w.queue.len() > 1) || head.Kind == message.KindSegmented

		var progressed bool
		if useBatch {
			progressed = w.runBatch(connected, &budget)
		} else {
			progressed = w.runSpin(connected, &budget)
		}
		if !progressed {
			break
		}
	}

	return !w.queue.empty()
}

func (w *writePath) runBatch(connected bool, budget *int) bool {
	w.array.Reset()

	staged := 0
	limit := *budget
	if limit > w.queue.len() {
		limit = w.queue.len()
	}
	for i := 0; i < limit; i++ {
		if !w.array.AddOutbound(w.queue.items[i], connected) {
			break
		}
		staged++
	}
	if staged == 0 {
		return false
	}

	sent, err := sendmmsg(w.fd, w.array.Raw(), staged, 0)
	if err != nil {
		translated := errs.Translate(err, connected)
		w.metrics.ObserveError(classify(translated).String())
		w.queue.removeFailure(translated)
		*budget--
		return true
	}
	if sent == 0 {
		return false
	}

	bytes := 0
	for i := 0; i < sent; i++ {
		bytes += w.array.SentLen(i)
	}
	w.queue.removeBatchSuccess(sent)
	w.metrics.ObserveWrite(w.label, sent, bytes)
	*budget -= sent
	return true
}

func (w *writePath) runSpin(connected bool, budget *int) bool {
	m := w.queue.front()

	for s := 0; s < w.cfg.WriteSpinRetries; s++ {
		done, err := sendSingle(w.fd, m, connected)
		if err != nil {
			translated := errs.Translate(err, connected)
			w.metrics.ObserveError(classify(translated).String())
			w.queue.removeFailure(translated)
			*budget--
			return true
		}
		if done {
			w.metrics.ObserveWrite(w.label, 1, len(m.Payload.Bytes()))
			w.queue.removeSuccess()
			*budget--
			return true
		}
	}
	// gave up after WriteSpinRetries attempts; leave message queued.
	return false
}

func classify(err error) errs.CodeError {
	if e, ok := err.(errs.Error); ok {
		return e.Code()
	}
	return errs.CodeIO
}
