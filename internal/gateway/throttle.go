package gateway

import (
	"net/http"

	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
)

// throttle limits the trigger endpoint globally. Each accepted request
// can send an email, so the limit is shared rather than per client.
func (g *Gateway) throttle(next http.Handler) http.Handler {
	if g.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.limiter.Allow() {
			g.deps.Audit.Log(security.AuditEvent{
				Type:   security.EventRateLimit,
				Remote: r.RemoteAddr,
				Path:   r.URL.Path,
			})
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
