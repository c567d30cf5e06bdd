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

package udp_test

import (
	"io"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/alloc"
	"github.com/nabbar/goudp/buffer"
	"github.com/nabbar/goudp/config"
	"github.com/nabbar/goudp/eventloop"
	"github.com/nabbar/goudp/message"
	"github.com/nabbar/goudp/pipeline"
	"github.com/nabbar/goudp/udp"
	"github.com/nabbar/goudp/xlog"
)

func boundPort(fd int) int {
	sa, err := unix.Getsockname(fd)
	Expect(err).ToNot(HaveOccurred())
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port
	case *unix.SockaddrInet6:
		return a.Port
	default:
		return 0
	}
}

func newTestChannel(pipe pipeline.Pipeline, cfg *config.Config) *udp.Channel {
	loop, err := eventloop.New(xlog.New(io.Discard, xlog.NilLevel))
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(loop.Close)

	c, err := udp.New(unix.AF_INET, cfg, loop, pipe, xlog.New(io.Discard, xlog.NilLevel), nil, "test", buffer.NewPool(2048), alloc.NewAdaptive())
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(func() { _ = c.Close() })
	Expect(c.Register()).To(Succeed())
	return c
}

var _ = Describe("Channel", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.Default()
	})

	It("delivers an unconnected addressed datagram to the peer's pipeline", func() {
		recv := &pipeline.Recording{}
		listener := newTestChannel(recv, cfg)
		Expect(listener.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		port := boundPort(listener.Fd())

		sender := newTestChannel(&pipeline.Recording{}, cfg)
		Expect(sender.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())

		payload := buffer.New([]byte("hello, reactor"), true)
		m := message.NewAddressed(payload, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
		Expect(sender.Write(m)).To(Succeed())
		sender.HandleWriteReady()
		Expect(m.Promise.Wait()).To(Succeed())

		Eventually(func() int {
			listener.HandleReadReady()
			return len(recv.Reads)
		}, time.Second, time.Millisecond).Should(BeNumerically(">=", 1))

		Expect(recv.Reads[0].Payload.Bytes()).To(Equal([]byte("hello, reactor")))
	})

	It("delivers over a connected pair via the single-read fast path", func() {
		recvA := &pipeline.Recording{}
		recvB := &pipeline.Recording{}
		a := newTestChannel(recvA, cfg)
		b := newTestChannel(recvB, cfg)

		Expect(a.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		Expect(b.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())

		portA := boundPort(a.Fd())
		portB := boundPort(b.Fd())
		Expect(a.Connect(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: portB})).To(Succeed())
		Expect(b.Connect(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: portA})).To(Succeed())

		m := message.NewBuffer(buffer.New([]byte("ping"), true))
		Expect(a.Write(m)).To(Succeed())
		a.HandleWriteReady()
		Expect(m.Promise.Wait()).To(Succeed())

		Eventually(func() int {
			b.HandleReadReady()
			return len(recvB.Reads)
		}, time.Second, time.Millisecond).Should(BeNumerically(">=", 1))
		Expect(recvB.Reads[0].Payload.Bytes()).To(Equal([]byte("ping")))
	})

	It("rejects a segmented write when segmentation is unsupported", func() {
		unsupported := config.Default()
		unsupported.EnableSegmentation = false
		c := newTestChannel(&pipeline.Recording{}, unsupported)

		m := message.NewSegmented(buffer.New([]byte("xx"), true), 512, &net.UDPAddr{})
		err := c.Write(m)

		Expect(err).To(HaveOccurred())
		Expect(m.Promise.Wait()).To(HaveOccurred())
	})

	It("surfaces ECONNREFUSED as a pipeline exception on the connected read path", func() {
		recv := &pipeline.Recording{}
		a := newTestChannel(recv, cfg)
		Expect(a.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())

		// Connect to a closed port: the kernel has nothing listening there
		// on loopback, so the next write/read surfaces ECONNREFUSED.
		closed := newTestChannel(&pipeline.Recording{}, cfg)
		Expect(closed.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		deadPort := boundPort(closed.Fd())
		Expect(closed.Close()).To(Succeed())

		Expect(a.Connect(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: deadPort})).To(Succeed())

		m := message.NewBuffer(buffer.New([]byte("nobody home"), true))
		Expect(a.Write(m)).To(Succeed())
		a.HandleWriteReady()
		Expect(m.Promise.Wait()).To(Succeed())

		Eventually(func() bool {
			a.HandleReadReady()
			return len(recv.Exceptions) > 0
		}, time.Second, time.Millisecond).Should(BeTrue())
	})

	It("flushes several queued datagrams in a single sendmmsg batch", func() {
		recv := &pipeline.Recording{}
		listener := newTestChannel(recv, cfg)
		Expect(listener.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		port := boundPort(listener.Fd())

		sender := newTestChannel(&pipeline.Recording{}, cfg)
		Expect(sender.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		peer := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}

		promises := make([]*message.Promise, 0, 4)
		for i := 0; i < 4; i++ {
			m := message.NewAddressed(buffer.New([]byte{byte('a' + i)}, true), peer)
			Expect(sender.Write(m)).To(Succeed())
			promises = append(promises, m.Promise)
		}

		// one HandleWriteReady call should drain the whole queue via sendmmsg
		// rather than one syscall per message.
		sender.HandleWriteReady()
		for _, p := range promises {
			Expect(p.Wait()).To(Succeed())
		}

		Eventually(func() int {
			listener.HandleReadReady()
			return len(recv.Reads)
		}, time.Second, time.Millisecond).Should(BeNumerically(">=", 4))
	})

	It("drains several pending datagrams in one scattering recvmmsg call", func() {
		scattering := config.Default()
		scattering.MaxDatagramPayloadSize = 64
		scattering.EnableRecvmmsg = true

		recv := &pipeline.Recording{}
		listener := newTestChannel(recv, scattering)
		Expect(listener.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		port := boundPort(listener.Fd())
		peer := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}

		sender := newTestChannel(&pipeline.Recording{}, cfg)
		Expect(sender.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())

		for i := 0; i < 3; i++ {
			m := message.NewAddressed(buffer.New([]byte{byte('x' + i)}, true), peer)
			Expect(sender.Write(m)).To(Succeed())
			sender.HandleWriteReady()
			Expect(m.Promise.Wait()).To(Succeed())
		}

		// give the kernel a moment to queue all three datagrams before the
		// single read call below drains them together.
		Eventually(func() int {
			listener.HandleReadReady()
			return len(recv.Reads)
		}, time.Second, time.Millisecond).Should(BeNumerically(">=", 3))
	})

	It("assigns each channel a stable, distinct identifier", func() {
		a := newTestChannel(&pipeline.Recording{}, cfg)
		b := newTestChannel(&pipeline.Recording{}, cfg)

		Expect(a.ID()).ToNot(BeEmpty())
		Expect(a.ID()).To(Equal(a.ID()))
		Expect(a.ID()).ToNot(Equal(b.ID()))
	})

	It("reports lifecycle flags through Bind/Connect/Disconnect/Close", func() {
		c := newTestChannel(&pipeline.Recording{}, cfg)
		Expect(c.IsBound()).To(BeFalse())

		Expect(c.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		Expect(c.IsBound()).To(BeTrue())
		Expect(c.LocalAddr()).ToNot(BeNil())

		peer := newTestChannel(&pipeline.Recording{}, cfg)
		Expect(peer.Bind(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})).To(Succeed())
		Expect(c.Connect(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: boundPort(peer.Fd())})).To(Succeed())
		Expect(c.IsConnected()).To(BeTrue())
		Expect(c.RemoteAddr()).ToNot(BeNil())

		Expect(c.Disconnect()).To(Succeed())
		Expect(c.IsConnected()).To(BeFalse())
		Expect(c.RemoteAddr()).To(BeNil())

		Expect(c.Close()).To(Succeed())
		Expect(c.IsActive()).To(BeFalse())
	})
})
