// Package ipchecker restricts reload requests to a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPChecker extracts the client address of a request and matches it against
// an optional trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet in CIDR notation. An empty string yields a checker
// that lets every client through.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{
			trustedSubnet: nil,
		}, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("parsing trusted subnet: %w", err)
	}
	return &IPChecker{
		trustedSubnet: allowedNet,
	}, nil
}

// Allowed reports whether clientIP may pass.
func (checker *IPChecker) Allowed(clientIP net.IP) bool {
	if checker.trustedSubnet == nil {
		return true
	}
	return clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP looks at X-Real-IP, then the first X-Forwarded-For entry, then
// RemoteAddr.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
		return ip, nil
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return net.ParseIP(strings.TrimSpace(first)), nil
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("splitting remote address %q: %w", request.RemoteAddr, err)
	}
	return net.ParseIP(host), nil
}

// Middleware answers 403 to clients outside the trusted subnet.
func (checker *IPChecker) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if checker.trustedSubnet == nil {
			h.ServeHTTP(w, r)
			return
		}
		ip, err := checker.GetClientIP(r)
		if err != nil || !checker.Allowed(ip) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.ServeHTTP(w, r)
	})
}
