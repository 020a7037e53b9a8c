package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustNets(entries ...string) []*net.IPNet {
	nets, _ := ParseTrustedProxies(entries)
	return nets
}

func TestGetClientIP(t *testing.T) {
	trustedNets := mustNets("127.0.0.1", "10.0.0.0/8")

	tests := []struct {
		name        string
		remoteAddr  string
		xff         string
		xRealIP     string
		trustedNets []*net.IPNet
		wantIP      string
	}{
		{
			name:       "from RemoteAddr with port",
			remoteAddr: "192.168.1.100:12345",
			wantIP:     "192.168.1.100",
		},
		{
			name:       "from RemoteAddr without port",
			remoteAddr: "192.168.1.100",
			wantIP:     "192.168.1.100",
		},
		{
			name:       "XFF ignored when no trusted proxies",
			remoteAddr: "192.168.1.100:12345",
			xff:        "203.0.113.50",
			wantIP:     "192.168.1.100",
		},
		{
			name:        "XFF ignored when remote is not trusted",
			remoteAddr:  "192.168.1.100:12345",
			xff:         "203.0.113.50",
			trustedNets: trustedNets,
			wantIP:      "192.168.1.100",
		},
		{
			name:        "XFF honored from trusted proxy",
			remoteAddr:  "127.0.0.1:12345",
			xff:         "203.0.113.50",
			trustedNets: trustedNets,
			wantIP:      "203.0.113.50",
		},
		{
			name:        "trusted hops are skipped from the right",
			remoteAddr:  "127.0.0.1:12345",
			xff:         "203.0.113.50, 10.0.0.7, 10.0.0.1",
			trustedNets: trustedNets,
			wantIP:      "203.0.113.50",
		},
		{
			name:        "spoofed leftmost hop is not trusted",
			remoteAddr:  "127.0.0.1:12345",
			xff:         "1.1.1.1, 198.51.100.9",
			trustedNets: trustedNets,
			wantIP:      "198.51.100.9",
		},
		{
			name:        "X-Real-IP honored from trusted proxy",
			remoteAddr:  "127.0.0.1:12345",
			xRealIP:     "203.0.113.50",
			trustedNets: trustedNets,
			wantIP:      "203.0.113.50",
		},
		{
			name:        "X-Real-IP ignored when not trusted",
			remoteAddr:  "192.168.1.100:12345",
			xRealIP:     "203.0.113.50",
			trustedNets: trustedNets,
			wantIP:      "192.168.1.100",
		},
		{
			name:        "XFF takes precedence over X-Real-IP",
			remoteAddr:  "127.0.0.1:12345",
			xff:         "203.0.113.50",
			xRealIP:     "203.0.113.60",
			trustedNets: trustedNets,
			wantIP:      "203.0.113.50",
		},
		{
			name:       "IPv6 RemoteAddr",
			remoteAddr: "[::1]:12345",
			wantIP:     "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.wantIP, GetClientIP(req, tt.trustedNets))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	tests := []struct {
		name        string
		proxies     []string
		testIP      string
		want        bool
		wantInvalid []string
	}{
		{name: "empty list", proxies: []string{}, testIP: "192.168.1.1", want: false},
		{name: "single IP match", proxies: []string{"192.168.1.1"}, testIP: "192.168.1.1", want: true},
		{name: "single IP no match", proxies: []string{"192.168.1.1"}, testIP: "192.168.1.2", want: false},
		{name: "CIDR match", proxies: []string{"10.0.0.0/8"}, testIP: "10.1.2.3", want: true},
		{name: "CIDR no match", proxies: []string{"10.0.0.0/8"}, testIP: "192.168.1.1", want: false},
		{name: "mixed IP and CIDR", proxies: []string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12"}, testIP: "172.20.1.1", want: true},
		{name: "invalid entries reported", proxies: []string{"not-an-ip", "10.0.0.0/8"}, testIP: "10.1.2.3", want: true, wantInvalid: []string{"not-an-ip"}},
		{name: "IPv6 single IP", proxies: []string{"::1"}, testIP: "::1", want: true},
		{name: "IPv6 CIDR", proxies: []string{"fd00::/8"}, testIP: "fd12:3456::1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nets, invalid := ParseTrustedProxies(tt.proxies)
			assert.Equal(t, tt.want, ContainsIP(tt.testIP, nets))
			assert.Equal(t, tt.wantInvalid, invalid)
		})
	}
}

func TestContainsIP_Invalid(t *testing.T) {
	nets := mustNets("192.168.1.0/24")

	assert.False(t, ContainsIP("not-an-ip", nets))
	assert.False(t, ContainsIP("", nets))
	assert.False(t, ContainsIP("192.168.1.1", nil))
}
