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

// Package metrics instruments one channel's datagram traffic with
// Prometheus collectors: counters for packets and bytes in each
// direction, a counter for dropped/errored datagrams by error code, and
// a histogram of batch sizes actually achieved by sendmmsg/recvmmsg.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector is the metrics surface the channel drives. A nil *Collector
// is valid and every method on it is a no-op, so instrumentation is
// opt-in.
type Collector struct {
	packetsIn   *prometheus.CounterVec
	packetsOut  *prometheus.CounterVec
	bytesIn     prometheus.Counter
	bytesOut    prometheus.Counter
	errorsTotal *prometheus.CounterVec
	batchSize   *prometheus.HistogramVec
}

// New builds a Collector with the given namespace/subsystem prefix and
// registers its collectors against reg. Passing a nil registerer skips
// registration, useful for tests that just want the increment methods
// to work.
func New(namespace, subsystem string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		packetsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "packets_in_total", Help: "Datagrams read from the socket.",
		}, []string{"channel"}),
		packetsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "packets_out_total", Help: "Datagrams written to the socket.",
		}, []string{"channel"}),
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "bytes_in_total", Help: "Bytes read from the socket.",
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "bytes_out_total", Help: "Bytes written to the socket.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "errors_total", Help: "Datagram errors by classified error code.",
		}, []string{"code"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "batch_size",
			Help:    "Number of datagrams moved per sendmmsg/recvmmsg call.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}, []string{"direction"}),
	}

	if reg != nil {
		reg.MustRegister(c.packetsIn, c.packetsOut, c.bytesIn, c.bytesOut, c.errorsTotal, c.batchSize)
	}
	return c
}

func (c *Collector) ObserveRead(channel string, packets, bytes int) {
	if c == nil {
		return
	}
	c.packetsIn.WithLabelValues(channel).Add(float64(packets))
	c.bytesIn.Add(float64(bytes))
	c.batchSize.WithLabelValues("read").Observe(float64(packets))
}

func (c *Collector) ObserveWrite(channel string, packets, bytes int) {
	if c == nil {
		return
	}
	c.packetsOut.WithLabelValues(channel).Add(float64(packets))
	c.bytesOut.Add(float64(bytes))
	c.batchSize.WithLabelValues("write").Observe(float64(packets))
}

func (c *Collector) ObserveError(code string) {
	if c == nil {
		return
	}
	c.errorsTotal.WithLabelValues(code).Inc()
}
