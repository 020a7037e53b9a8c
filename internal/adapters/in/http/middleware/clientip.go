package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ParseTrustedProxies converts IP addresses and CIDR ranges to networks.
// A bare IP becomes a /32 or /128. Unparseable entries are returned in
// invalid so callers can reject the configuration.
func ParseTrustedProxies(entries []string) (nets []*net.IPNet, invalid []string) {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			invalid = append(invalid, entry)
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, invalid
}

// ContainsIP reports whether ip falls in any of nets.
func ContainsIP(ip string, nets []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// GetClientIP returns the caller's address. X-Forwarded-For and X-Real-IP
// are honored only when the direct peer is a trusted proxy; the rightmost
// untrusted X-Forwarded-For hop is taken so a client cannot prepend a fake one.
func GetClientIP(r *http.Request, trustedNets []*net.IPNet) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	if !ContainsIP(remoteIP, trustedNets) {
		return remoteIP
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !ContainsIP(hop, trustedNets) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remoteIP
}
