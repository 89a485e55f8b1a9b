package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Config configures the authentication middleware.
type Config struct {
	APIKey string
}

// Middleware checks the shared API key on HTTP requests to the tool endpoints.
type Middleware struct {
	cfg Config
}

// New creates a new Middleware instance.
func New(cfg Config) *Middleware {
	return &Middleware{cfg: cfg}
}

// Enabled reports whether a key is configured.
func (m *Middleware) Enabled() bool {
	return m.cfg.APIKey != ""
}

// Validate accepts the key from the X-API-Key header or an Authorization bearer token.
// Every request passes when no key is configured.
func (m *Middleware) Validate(r *http.Request) bool {
	if !m.Enabled() {
		return true
	}

	key := r.Header.Get("X-API-Key")
	if key == "" {
		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			key = strings.TrimSpace(bearer)
		}
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.cfg.APIKey)) == 1
}

// UnauthorizedResponse returns the HTTP status, headers and JSON-RPC error body for a rejected request.
func (m *Middleware) UnauthorizedResponse() (int, http.Header, []byte) {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("WWW-Authenticate", `Bearer realm="worldtime"`)

	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": map[string]any{
			"code":    401,
			"message": "Unauthorized: Invalid or missing API key",
		},
	})
	return http.StatusUnauthorized, headers, body
}

// Wrap rejects unauthorized requests before they reach next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Validate(r) {
			code, headers, body := m.UnauthorizedResponse()
			for k, vals := range headers {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
			w.WriteHeader(code)
			_, _ = w.Write(body)
			return
		}
		next.ServeHTTP(w, r)
	})
}
