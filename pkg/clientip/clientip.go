// Package clientip resolves the originating client address of a request.
// Forwarding headers are honored only when the direct peer is a trusted proxy.
package clientip

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ParseTrustedProxies parses addresses and CIDR ranges such as "10.0.0.0/8"
// or "127.0.0.1". Empty entries are ignored.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// GetIP returns the client's IP address from HTTP request.
// The peer address from RemoteAddr is returned as is unless it falls in one
// of the trusted ranges. From a trusted peer, headers are checked in order:
// CF-Connecting-IP, X-Forwarded-For (rightmost entry that is not itself a
// trusted proxy), X-Real-IP. Invalid values are skipped.
func GetIP(r *http.Request, trusted ...netip.Prefix) string {
	peer := remoteAddr(r.RemoteAddr)
	if !peer.IsValid() {
		return ""
	}
	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	if ip, ok := parse(r.Header.Get("CF-Connecting-IP")); ok {
		return ip.String()
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip, ok := parse(hops[i])
			if !ok {
				continue
			}
			if !isTrusted(ip, trusted) {
				return ip.String()
			}
		}
	}
	if ip, ok := parse(r.Header.Get("X-Real-IP")); ok {
		return ip.String()
	}
	return peer.String()
}

func remoteAddr(s string) netip.Addr {
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		host = s
	}
	ip, _ := parse(host)
	return ip
}

func parse(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func isTrusted(ip netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

type contextKey struct{}

// Middleware stores the resolved client IP in the request context.
func Middleware(trusted ...netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextKey{}, GetIP(r, trusted...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the IP stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Key returns the IP stored by Middleware, falling back to the bare peer
// address when the middleware did not run. It fits ratelimiter.KeyFunc.
func Key(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}
