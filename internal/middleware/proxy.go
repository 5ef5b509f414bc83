package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultTrustedProxies covers loopback, Docker bridges, and private LANs.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fd00::/8",
}

// TrustedProxies configures Echo so c.RealIP() honors X-Real-IP and
// X-Forwarded-For only when the direct peer is inside trustedCIDRs.
// Analytics visitor counts and rate limits key on this address.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	var trusted []netip.Prefix
	for _, cidr := range trustedCIDRs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		trusted = append(trusted, p)
	}
	e.IPExtractor = ipExtractor(trusted)
}

func ipExtractor(trusted []netip.Prefix) echo.IPExtractor {
	return func(req *http.Request) string {
		direct := peerIP(req.RemoteAddr)
		if !inAny(direct, trusted) {
			return direct
		}
		if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			client, _, _ := strings.Cut(xff, ",")
			if client = strings.TrimSpace(client); client != "" {
				return client
			}
		}
		return direct
	}
}

// peerIP strips the port from a RemoteAddr.
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func inAny(ip string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
