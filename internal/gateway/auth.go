package gateway

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
)

// APIKeyHeader carries the shared secret on protected routes.
const APIKeyHeader = "X-API-Key"

// apiKeyMiddleware rejects requests whose X-API-Key does not match key,
// using constant-time comparison. Failures answer 403 and are audited.
func apiKeyMiddleware(key string, audit *security.AuditLogger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if constantTimeEqual(r.Header.Get(APIKeyHeader), key) {
				next.ServeHTTP(w, r)
				return
			}

			detail := "invalid api key"
			if r.Header.Get(APIKeyHeader) == "" {
				detail = "missing api key"
			}
			logger.Warn("gateway: rejected request", "remote", r.RemoteAddr, "path", r.URL.Path, "reason", detail)
			audit.Log(security.AuditEvent{
				Type:   security.EventAuthFailure,
				Remote: r.RemoteAddr,
				Path:   r.URL.Path,
				Detail: detail,
				Metadata: map[string]string{
					"method": r.Method,
				},
			})
			writeError(w, http.StatusForbidden, "Invalid API Key")
		})
	}
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
