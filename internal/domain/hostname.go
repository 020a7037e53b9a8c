package domain

import (
	"net"
	"regexp"
	"strings"
)

// HostnameClass is the routing category of a request hostname.
type HostnameClass int

const (
	// Unmatched hostnames belong to neither the platform nor a preview.
	Unmatched HostnameClass = iota
	// MainDomain is the platform itself (base domain or localhost).
	MainDomain
	// Subdomain is a per-app preview hostname.
	Subdomain
	// Rejected hostnames are IPv4 literals.
	Rejected
)

func (c HostnameClass) String() string {
	switch c {
	case MainDomain:
		return "main_domain"
	case Subdomain:
		return "subdomain"
	case Rejected:
		return "rejected_ip_literal"
	default:
		return "unmatched"
	}
}

const localhost = "localhost"

var ipv4Literal = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// IsIPv4Literal reports whether host looks like a dotted-quad address.
// Octet ranges are not checked: "999.1.1.1" is still refused.
func IsIPv4Literal(host string) bool {
	return ipv4Literal.MatchString(host)
}

// StripPort returns the normalized hostname part of a Host header value.
func StripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return NormalizeHost(strings.Trim(host, "[]"))
	}
	return NormalizeHost(strings.Trim(hostport, "[]"))
}

// NormalizeHost lower-cases a DNS name and drops the trailing root dot.
func NormalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}

// ClassifyHostname maps a hostname to its routing category. The checks run in
// a fixed order and the first match wins.
func ClassifyHostname(host string, cfg PlatformConfig) HostnameClass {
	if IsIPv4Literal(host) {
		return Rejected
	}
	if host == cfg.BaseDomain || host == localhost {
		return MainDomain
	}
	if cfg.PreviewDomain != "" && strings.HasSuffix(host, "."+cfg.PreviewDomain) {
		return Subdomain
	}
	if strings.HasSuffix(host, "."+localhost) && host != localhost {
		return Subdomain
	}
	return Unmatched
}

// AppNameFromHost derives the application name: the first label of host.
func AppNameFromHost(host string) string {
	name, _, _ := strings.Cut(host, ".")
	return name
}
