package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"caisse/internal/log"
)

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector(log.Discard())

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.9:5000", nil, "203.0.113.9"},
		{"untrusted proxy is ignored", "203.0.113.9:5000", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{"trusted proxy forwarded for", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"forged leftmost hop is skipped", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.1"}, "198.51.100.1"},
		{"chained trusted proxies", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 192.168.1.4, 10.0.0.3"}, "198.51.100.1"},
		{"only trusted hops", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "192.168.1.4, 10.0.0.3"}, "192.168.1.4"},
		{"garbage forwarded header", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.2"},
		{"no port", "203.0.113.9", nil, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestDetector_DetectSuspiciousRequest(t *testing.T) {
	d := NewDetector(log.Discard())

	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"api call", http.MethodGet, "/api/invoices", "Mozilla/5.0", false},
		{"curl is fine", http.MethodPost, "/api/expenses", "curl/8.4.0", false},
		{"path traversal", http.MethodGet, "/api/../etc/passwd", "", true},
		{"dotenv probe", http.MethodGet, "/.env", "", true},
		{"sql injection in query", http.MethodGet, "/api/expenses?category=x'%20union%20select", "", true},
		{"scanner agent", http.MethodGet, "/api/invoices", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/api/invoices", "", true},
		{"long url", http.MethodGet, "/api/invoices?q=" + strings.Repeat("a", 2100), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			assert.Equal(t, tt.want, d.DetectSuspiciousRequest(r))
		})
	}
}

func TestDetector_Middleware(t *testing.T) {
	d := NewDetector(log.Discard())
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := d.Middleware(nil)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rejected := 0
	custom := d.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		rejected++
		w.WriteHeader(http.StatusTeapot)
	})(ok)
	rec = httptest.NewRecorder()
	custom.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1, rejected)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetector_AddTrustedProxy(t *testing.T) {
	d := NewDetector(log.Discard())
	assert.Error(t, d.AddTrustedProxy("nope"))
	assert.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.5:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddleware_ForwardedProto(t *testing.T) {
	cfg := DefaultHeadersConfig()
	cfg.CacheControl = ""
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	rec := httptest.NewRecorder()
	NewHeadersMiddleware(cfg).Middleware(next).ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	cfg.TrustForwardedProto = true
	rec = httptest.NewRecorder()
	NewHeadersMiddleware(cfg).Middleware(next).ServeHTTP(rec, r)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
