// Package clientctx derives the attributed client address, user agent and
// referrer of an inbound request.
package clientctx

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// LoopbackIP is used when neither proxy headers nor the peer address yield an IP.
const LoopbackIP = "127.0.0.1"

// proxyHeaders are consulted in priority order.
var proxyHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"X-Client-IP",
}

// Context is the client information attached to a click.
type Context struct {
	IP        string
	UserAgent string
	Referrer  *string
}

// Resolve extracts the client context from r.
func Resolve(r *http.Request) Context {
	ctx := Context{
		IP:        ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
	if values, ok := r.Header["Referer"]; ok && len(values) > 0 {
		ref := values[0]
		ctx.Referrer = &ref
	}
	return ctx
}

// ClientIP returns the first syntactically valid address found in the proxy
// headers, then the peer address, then LoopbackIP. Only the first entry of
// X-Forwarded-For is considered. The headers are client-controlled: use
// TrustedClientIP wherever the address gates access.
func ClientIP(r *http.Request) string {
	if ip, ok := forwardedIP(r); ok {
		return ip
	}
	if ip, ok := peerIP(r); ok {
		return ip
	}
	return LoopbackIP
}

// PeerIP returns the transport peer address of r, or LoopbackIP.
func PeerIP(r *http.Request) string {
	if ip, ok := peerIP(r); ok {
		return ip
	}
	return LoopbackIP
}

// TrustedClientIP returns the forwarded client address only when the peer
// is inside one of the trusted proxy prefixes. Otherwise it returns PeerIP.
func TrustedClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := PeerIP(r)
	if len(trusted) == 0 {
		return peer
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return peer
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			if ip, ok := forwardedIP(r); ok {
				return ip
			}
			return peer
		}
	}
	return peer
}

// ParsePrefixes parses CIDR prefixes. Bare addresses are treated as
// single-host prefixes.
func ParsePrefixes(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("parse trusted proxy %q: %w", raw, err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func forwardedIP(r *http.Request) (string, bool) {
	for _, header := range proxyHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		if header == "X-Forwarded-For" {
			value, _, _ = strings.Cut(value, ",")
		}
		if ip, ok := parseIP(value); ok {
			return ip, true
		}
	}
	return "", false
}

func peerIP(r *http.Request) (string, bool) {
	if r.RemoteAddr == "" {
		return "", false
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	return parseIP(host)
}

func parseIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.String(), true
}
