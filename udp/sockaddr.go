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
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// rawSockaddr is sized like sockaddr_in6 (28 bytes), the larger of the
// two layouts: large enough to hold either an AF_INET or AF_INET6 address, so one NativePacketArray slot
// serves either family without per-family allocation.
type rawSockaddr [28]byte

// packSockaddr marshals addr into dst (sockaddr_in or sockaddr_in6 wire
// layout) and returns the valid length for Msghdr.Namelen.
func packSockaddr(addr *net.UDPAddr, dst *rawSockaddr) uint32 {
	if ip4 := addr.IP.To4(); ip4 != nil {
		dst[0] = byte(unix.AF_INET)
		dst[1] = 0
		binary.BigEndian.PutUint16(dst[2:4], uint16(addr.Port))
		copy(dst[4:8], ip4)
		for i := 8; i < 16; i++ {
			dst[i] = 0
		}
		return 16
	}

	ip6 := addr.IP.To16()
	dst[0] = byte(unix.AF_INET6)
	dst[1] = 0
	binary.BigEndian.PutUint16(dst[2:4], uint16(addr.Port))
	// flowinfo
	dst[4], dst[5], dst[6], dst[7] = 0, 0, 0, 0
	copy(dst[8:24], ip6)
	binary.LittleEndian.PutUint32(dst[24:28], uint32(zoneToIndex(addr.Zone)))
	return 28
}

// unpackSockaddr is the inverse of packSockaddr, used to recover the
// sender address NativePacketArray received a datagram from.
func unpackSockaddr(buf rawSockaddr, length uint32) (*net.UDPAddr, error) {
	if length == 0 {
		return nil, nil
	}

	family := binary.LittleEndian.Uint16(buf[0:2])
	switch family {
	case unix.AF_INET:
		port := binary.BigEndian.Uint16(buf[2:4])
		ip := make(net.IP, 4)
		copy(ip, buf[4:8])
		return &net.UDPAddr{IP: ip, Port: int(port)}, nil
	case unix.AF_INET6:
		port := binary.BigEndian.Uint16(buf[2:4])
		ip := make(net.IP, 16)
		copy(ip, buf[8:24])
		scope := binary.LittleEndian.Uint32(buf[24:28])
		var zone string
		if scope != 0 {
			if iface, err := net.InterfaceByIndex(int(scope)); err == nil {
				zone = iface.Name
			}
		}
		return &net.UDPAddr{IP: ip, Port: int(port), Zone: zone}, nil
	default:
		return nil, fmt.Errorf("unrecognised sockaddr family %d", family)
	}
}

func zoneToIndex(zone string) int {
	if zone == "" {
		return 0
	}
	if iface, err := net.InterfaceByName(zone); err == nil {
		return iface.Index
	}
	return 0
}

// sockaddrToUDPAddr converts the unix.Sockaddr returned by a portable
// call like unix.Recvmsg (used when recvmmsg is unavailable or disabled)
// into a *net.UDPAddr, mirroring unpackSockaddr's wire-format decode for
// the batched path.
func sockaddrToUDPAddr(sa unix.Sockaddr) *net.UDPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, a.Addr[:])
		return &net.UDPAddr{IP: ip, Port: a.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, a.Addr[:])
		var zone string
		if a.ZoneId != 0 {
			if iface, err := net.InterfaceByIndex(int(a.ZoneId)); err == nil {
				zone = iface.Name
			}
		}
		return &net.UDPAddr{IP: ip, Port: a.Port, Zone: zone}
	default:
		return nil
	}
}
