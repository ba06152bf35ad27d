package ratelimit

import (
	"net"
	"strings"
)

// UnknownKey is the shared bucket for requests with no derivable network
// address. All such clients rate-limit together, a deliberately coarse
// fallback carried over from the original service.
const UnknownKey = "unknown"

// ClientKey derives the network-address key: the first hop of a forwarded-for
// chain when present, else the direct peer address with any port stripped,
// else the shared unknown bucket.
func ClientKey(forwardedFor, peerAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}
	if peerAddr != "" {
		if host, _, err := net.SplitHostPort(peerAddr); err == nil && host != "" {
			return host
		}
		return peerAddr
	}
	return UnknownKey
}
