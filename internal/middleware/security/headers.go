package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HeadersConfig lists the response headers stamped on every API reply.
// Empty values are not sent.
type HeadersConfig struct {
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeOptions    string
	ReferrerPolicy        string
	ResourcePolicy        string
	CacheControl          string

	// HSTS is sent only on TLS requests, or when TrustForwardedProto is set
	// and the proxy reports https.
	HSTSMaxAge          time.Duration
	HSTSSubdomains      bool
	TrustForwardedProto bool
}

// DefaultHeadersConfig suits a JSON-only API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		ReferrerPolicy:        "no-referrer",
		ResourcePolicy:        "same-site",
		CacheControl:          "no-store",
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSSubdomains:        true,
	}
}

type HeadersMiddleware struct {
	static              http.Header
	hsts                string
	trustForwardedProto bool
}

// NewHeadersMiddleware renders the configured header values once.
func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	static := http.Header{}
	for name, value := range map[string]string{
		"Content-Security-Policy":      cfg.ContentSecurityPolicy,
		"X-Frame-Options":              cfg.FrameOptions,
		"X-Content-Type-Options":       cfg.ContentTypeOptions,
		"Referrer-Policy":              cfg.ReferrerPolicy,
		"Cross-Origin-Resource-Policy": cfg.ResourcePolicy,
		"Cache-Control":                cfg.CacheControl,
	} {
		if value != "" {
			static.Set(name, value)
		}
	}

	var hsts string
	if secs := int64(cfg.HSTSMaxAge / time.Second); secs > 0 {
		hsts = "max-age=" + strconv.FormatInt(secs, 10)
		if cfg.HSTSSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return &HeadersMiddleware{static: static, hsts: hsts, trustForwardedProto: cfg.TrustForwardedProto}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for name, values := range h.static {
			out[name] = append([]string(nil), values...)
		}
		if h.hsts != "" && h.secure(r) {
			out.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.trustForwardedProto && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
