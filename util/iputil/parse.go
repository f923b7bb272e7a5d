package iputil

import (
	"net"
	"strings"
)

// IPVersion is 4 or 6, or IPvUnknown when the text is not an address.
type IPVersion int

const (
	IPvUnknown IPVersion = 0
	IPv4       IPVersion = 4
	IPv6       IPVersion = 6
)

// ParseIP parses v and reports its version. IPv4-mapped IPv6 text such as "::ffff:1.2.3.4" is
// reported as IPv6 since that is how the device sent it.
func ParseIP(v string) (net.IP, IPVersion) {
	ip := net.ParseIP(v)
	switch {
	case ip == nil:
		return nil, IPvUnknown
	case strings.Contains(v, ":"):
		return ip, IPv6
	default:
		return ip, IPv4
	}
}
