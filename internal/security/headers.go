package security

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultCSP        = "default-src 'none'; frame-ancestors 'none'"
	defaultHSTSMaxAge = 31536000
)

// Headers sets the response headers of a JSON-only API. NoStore marks responses as
// uncacheable since quotes carry negotiated prices. HSTS is only sent over TLS, or when
// TrustForwardedProto is set and the proxy reports https.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	TrustForwardedProto   bool
	NoStore               bool
	CSP                   string
}

func (h Headers) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.TrustForwardedProto && strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func (h Headers) hsts() string {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}

// Middleware attaches the configured headers before the handler writes.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	csp := h.CSP
	if csp == "" {
		csp = defaultCSP
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Cross-Origin-Resource-Policy", "same-origin")
		headers.Set("Content-Security-Policy", csp)
		if h.NoStore {
			headers.Set("Cache-Control", "no-store")
			headers.Set("Pragma", "no-cache")
		}
		if h.EnableHSTS && h.secure(r) {
			headers.Set("Strict-Transport-Security", h.hsts())
		}
		next.ServeHTTP(w, r)
	})
}
