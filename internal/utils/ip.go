package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"strings"
)

// CIDRSize returns the number of addresses in a CIDR network, saturating at
// math.MaxUint64 for very large IPv6 blocks.
func CIDRSize(cidr *net.IPNet) uint64 {
	ones, bits := cidr.Mask.Size()
	if bits-ones >= 64 {
		return math.MaxUint64
	}
	return 1 << (bits - ones)
}

// ParseAddress validates an IP set member: a single address, a CIDR block or
// an inclusive range "start-end" of one family. It returns how many addresses
// the member covers.
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if start, end, ok := strings.Cut(s, "-"); ok {
		first := net.ParseIP(strings.TrimSpace(start))
		last := net.ParseIP(strings.TrimSpace(end))
		if first == nil || last == nil {
			return 0, fmt.Errorf("invalid address range %q", s)
		}
		if (first.To4() == nil) != (last.To4() == nil) {
			return 0, fmt.Errorf("address range %q mixes IPv4 and IPv6", s)
		}
		if first.To4() != nil {
			first, last = first.To4(), last.To4()
		}
		if bytes.Compare(first, last) > 0 {
			return 0, fmt.Errorf("address range %q ends before it starts", s)
		}
		return rangeSize(first, last), nil
	}
	if strings.Contains(s, "/") {
		_, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return 0, fmt.Errorf("invalid CIDR %q", s)
		}
		return CIDRSize(ipnet), nil
	}
	if net.ParseIP(s) == nil {
		return 0, fmt.Errorf("invalid IP address %q", s)
	}
	return 1, nil
}

func rangeSize(first, last net.IP) uint64 {
	if len(first) == net.IPv4len {
		return uint64(binary.BigEndian.Uint32(last)-binary.BigEndian.Uint32(first)) + 1
	}
	if !bytes.Equal(first[:8], last[:8]) {
		return math.MaxUint64
	}
	diff := binary.BigEndian.Uint64(last[8:]) - binary.BigEndian.Uint64(first[8:])
	if diff == math.MaxUint64 {
		return diff
	}
	return diff + 1
}
