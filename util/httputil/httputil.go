package httputil

import (
	"net"
	"net/http"
	"strings"

	"github.com/prebid/auction-core/util/iputil"
)

// IsSecure reports whether the client reached us over https, directly or through a TLS terminating proxy.
func IsSecure(r *http.Request) bool {
	return r.TLS != nil ||
		strings.EqualFold(r.URL.Scheme, "https") ||
		strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// ipSources are consulted in order. Proxies put the original client first in X-Forwarded-For.
var ipSources = []func(r *http.Request) []string{
	func(r *http.Request) []string { return []string{r.Header.Get("True-Client-IP")} },
	func(r *http.Request) []string { return strings.Split(r.Header.Get("X-Forwarded-For"), ",") },
	func(r *http.Request) []string { return []string{r.Header.Get("X-Real-IP")} },
	func(r *http.Request) []string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return nil
		}
		return []string{host}
	},
}

// FindClientIP returns the first public address the request carries, along with its version.
// Private, loopback and link-local addresses belong to the proxy chain and are skipped.
func FindClientIP(r *http.Request) (net.IP, iputil.IPVersion) {
	for _, source := range ipSources {
		for _, candidate := range source(r) {
			ip, ver := iputil.ParseIP(strings.TrimSpace(candidate))
			if ip != nil && isPublic(ip) {
				return ip, ver
			}
		}
	}
	return nil, iputil.IPvUnknown
}

func isPublic(ip net.IP) bool {
	return !(ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified())
}
