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
	"os"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/nabbar/goudp/errs"
	"github.com/nabbar/goudp/message"
)

// JoinGroup joins group on iface (when ifaceName is empty, resolved via
// Config.NetworkInterface, then the channel's bound local address; see
// resolveMulticastInterface), completing the returned promise
// synchronously: the syscall runs on the calling goroutine, not the
// event-loop thread, since group membership carries no shared mutable
// state beyond the socket fd.
func (c *Channel) JoinGroup(group net.IP, ifaceName string) *message.Promise {
	p := message.NewPromise()
	ifi, err := c.resolveMulticastInterface(ifaceName)
	if err != nil {
		p.Complete(err)
		return p
	}
	p.Complete(c.withMulticastConn(group, func(pc4 *ipv4.PacketConn, pc6 *ipv6.PacketConn, addr net.Addr) error {
		if pc4 != nil {
			return pc4.JoinGroup(ifi, addr)
		}
		return pc6.JoinGroup(ifi, addr)
	}))
	return p
}

// LeaveGroup dissolves a prior JoinGroup on the same interface.
func (c *Channel) LeaveGroup(group net.IP, ifaceName string) *message.Promise {
	p := message.NewPromise()
	ifi, err := c.resolveMulticastInterface(ifaceName)
	if err != nil {
		p.Complete(err)
		return p
	}
	p.Complete(c.withMulticastConn(group, func(pc4 *ipv4.PacketConn, pc6 *ipv6.PacketConn, addr net.Addr) error {
		if pc4 != nil {
			return pc4.LeaveGroup(ifi, addr)
		}
		return pc6.LeaveGroup(ifi, addr)
	}))
	return p
}

// Block excludes source from group on iface via
// ExcludeSourceSpecificGroup. The interface-only overload (source nil)
// is explicitly unsupported per the source-specific multicast model;
// callers that only have a group and interface must use LeaveGroup
// instead.
func (c *Channel) Block(group net.IP, ifaceName string, source net.IP) *message.Promise {
	p := message.NewPromise()
	if source == nil {
		p.Complete(errs.Unsupported("block: interface-only overload is not supported, a source is required"))
		return p
	}
	ifi, err := c.resolveMulticastInterface(ifaceName)
	if err != nil {
		p.Complete(err)
		return p
	}
	p.Complete(c.withMulticastConn(group, func(pc4 *ipv4.PacketConn, pc6 *ipv6.PacketConn, addr net.Addr) error {
		srcAddr := &net.UDPAddr{IP: source}
		if pc4 != nil {
			return pc4.ExcludeSourceSpecificGroup(ifi, addr, srcAddr)
		}
		return pc6.ExcludeSourceSpecificGroup(ifi, addr, srcAddr)
	}))
	return p
}

// resolveMulticastInterface resolves ifaceName, falling back to
// Config.NetworkInterface and then to the interface owning the
// channel's bound local address. Behaviour when the local address is
// ANY and no interface name is configured is left to the first
// interface returned by net.Interfaces, since no single
// interface can be inferred from an unspecified address.
func (c *Channel) resolveMulticastInterface(ifaceName string) (*net.Interface, error) {
	if ifaceName == "" {
		ifaceName = c.cfg.NetworkInterface
	}
	if ifaceName != "" {
		ifi, err := net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, errs.Wrap(errs.CodeIO, "resolve multicast interface", err)
		}
		return ifi, nil
	}

	if c.localAddr != nil {
		if udpAddr, ok := c.localAddr.(*net.UDPAddr); ok && !udpAddr.IP.IsUnspecified() {
			if ifi, err := interfaceOwning(udpAddr.IP); err == nil {
				return ifi, nil
			}
		}
	}

	ifaces, err := net.Interfaces()
	if err != nil || len(ifaces) == 0 {
		return nil, errs.Wrap(errs.CodeIO, "resolve multicast interface", err)
	}
	return &ifaces[0], nil
}

func interfaceOwning(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, os.ErrNotExist
}

// withMulticastConn wraps a duplicate of the channel's fd as a
// net.PacketConn long enough to drive one ipv4/ipv6 multicast syscall.
// os.NewFile does NOT duplicate its argument; wrapping c.fd directly
// would make f and c.fd the same descriptor; closing f (os.File always
// closes on GC via a finalizer, even if Close is never called
// explicitly) would then close the channel's own socket out from under
// it. unix.Dup gives f its own descriptor to own and close, and
// net.FilePacketConn dups again internally to produce pc, so there are
// two independent descriptors closed here and c.fd is never touched.
func (c *Channel) withMulticastConn(group net.IP, fn func(pc4 *ipv4.PacketConn, pc6 *ipv6.PacketConn, addr net.Addr) error) error {
	dupFd, err := unix.Dup(c.fd)
	if err != nil {
		return errs.Wrap(errs.CodeIO, "dup multicast fd", err)
	}
	f := os.NewFile(uintptr(dupFd), "goudp-multicast")
	defer f.Close()

	pc, err := net.FilePacketConn(f)
	if err != nil {
		return errs.Wrap(errs.CodeIO, "wrap multicast fd", err)
	}
	defer pc.Close()

	addr := &net.UDPAddr{IP: group}
	if c.family == unix.AF_INET6 {
		if err := fn(nil, ipv6.NewPacketConn(pc), addr); err != nil {
			return errs.Wrap(errs.CodeIO, "multicast", err)
		}
		return nil
	}
	if err := fn(ipv4.NewPacketConn(pc), nil, addr); err != nil {
		return errs.Wrap(errs.CodeIO, "multicast", err)
	}
	return nil
}
