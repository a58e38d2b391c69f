package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"caisse/internal/log"
	"caisse/internal/metrics"
)

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
}

// Detector flags requests that look like scans and resolves client IPs
// behind trusted proxies.
type Detector struct {
	trustedProxies []*net.IPNet
	logger         *log.Logger
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector(logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
		},
		logger: logger.WithComponent(log.ComponentSecurity),
	}
}

// parseCIDR is a helper to parse CIDR during initialization
func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// DetectSuspiciousRequest analyzes request patterns for potential threats
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return true
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range suspiciousAgents {
		if strings.Contains(userAgent, agent) {
			return true
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return true
	}

	// Possible overflow attempt
	if len(r.URL.String()) > 2048 {
		return true
	}

	// More than 5 proxy hops
	return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5
}

// Middleware stops suspicious requests before they reach a handler. onReject
// writes the response; nil means a bare 400.
func (d *Detector) Middleware(onReject http.HandlerFunc) func(http.Handler) http.Handler {
	if onReject == nil {
		onReject = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !d.DetectSuspiciousRequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			metrics.IncrementSuspicious()
			d.logger.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
			onReject(w, r)
		})
	}
}

// ExtractClientIP returns the address of the peer or, when the peer is a
// trusted proxy, the nearest untrusted hop it forwarded for. Entries left of
// our own proxies are client-supplied, so X-Forwarded-For is read from the
// right.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	// Forwarded headers are only believed from a trusted proxy.
	if d.isTrustedProxy(parsedDirectIP) {
		if clientIP, ok := d.forwardedFor(r.Header.Get("X-Forwarded-For")); ok {
			return clientIP
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

// forwardedFor walks the hops from the right, skipping trusted proxies. A
// malformed hop ends the walk. When every hop is trusted the leftmost wins.
func (d *Detector) forwardedFor(xff string) (string, bool) {
	if xff == "" {
		return "", false
	}
	hops := strings.Split(xff, ",")
	var last string
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			break
		}
		if !d.isTrustedProxy(ip) {
			return hop, true
		}
		last = hop
	}
	return last, last != ""
}

// isTrustedProxy checks if an IP is from a trusted proxy
func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}

	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}
