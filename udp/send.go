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

	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/message"
)

// toSockaddr adapts a *net.UDPAddr into the unix.Sockaddr the raw
// syscalls expect.
func toSockaddr(addr *net.UDPAddr) unix.Sockaddr {
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To16())
	if addr.Zone != "" {
		if iface, err := net.InterfaceByName(addr.Zone); err == nil {
			sa.ZoneId = uint32(iface.Index)
		}
	}
	return sa
}

// sendSingle issues one non-batched send for m. done reports whether
// the datagram was accepted by the kernel (or was zero-length, which
// needs no syscall); a nil error with done == false means EAGAIN,
// telling the WritePath spin loop to retry.
func sendSingle(fd int, m *message.Outbound, connected bool) (done bool, err error) {
	payload := m.Payload.Bytes()
	if len(payload) == 0 {
		return true, nil
	}

	if !connected && m.Recipient != nil {
		err = unix.Sendto(fd, payload, 0, toSockaddr(m.Recipient))
	} else {
		_, err = unix.Write(fd, payload)
	}

	if err == nil {
		return true, nil
	}
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return false, nil
	}
	return false, err
}
