package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const (
	defaultChecksLimit = 50
	maxChecksLimit     = 1000
)

// StatusResponse is the JSON response for GET /api/status.
type StatusResponse struct {
	Uptime        int64            `json:"uptime_seconds"`
	ScheduledJobs int              `json:"scheduled_jobs"`
	Metrics       metrics.Snapshot `json:"metrics"`
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:  int64(time.Since(g.startedAt).Seconds()),
			Metrics: g.deps.Metrics.Snapshot(),
		}
		if g.deps.Schedule != nil {
			resp.ScheduledJobs = len(g.deps.Schedule.Jobs())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ScheduleResponse is the JSON response for GET /api/schedule.
type ScheduleResponse struct {
	Jobs []schedule.JobInfo `json:"jobs"`
}

func (g *Gateway) handleSchedule() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if g.deps.Schedule == nil {
			writeError(w, http.StatusServiceUnavailable, "scheduler not available")
			return
		}
		jobs := g.deps.Schedule.Jobs()
		if jobs == nil {
			jobs = []schedule.JobInfo{}
		}
		writeJSON(w, http.StatusOK, ScheduleResponse{Jobs: jobs})
	}
}

// ChecksResponse is the JSON response for GET /api/checks.
type ChecksResponse struct {
	Checks []potd.CheckRecord `json:"checks"`
}

// handleChecks lists recent checks, optionally for one username.
func (g *Gateway) handleChecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.deps.History == nil {
			writeError(w, http.StatusServiceUnavailable, "check history is disabled")
			return
		}

		limit := defaultChecksLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxChecksLimit {
				writeError(w, http.StatusBadRequest, "limit must be an integer in [1, 1000]")
				return
			}
			limit = n
		}

		records, err := g.deps.History.Recent(r.Context(), r.URL.Query().Get("username"), limit)
		if err != nil {
			g.logger.Error("gateway: reading check history", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read check history")
			return
		}
		if records == nil {
			records = []potd.CheckRecord{}
		}
		writeJSON(w, http.StatusOK, ChecksResponse{Checks: records})
	}
}

// handleReconcile requests a reconcile on the polling loop and returns
// without waiting for it.
func (g *Gateway) handleReconcile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.deps.Reconcile == nil {
			writeError(w, http.StatusServiceUnavailable, "reconciler not available")
			return
		}
		g.deps.Reconcile.ForceReconcile()
		g.deps.Audit.Log(security.AuditEvent{
			Type:   security.EventReconcile,
			Remote: r.RemoteAddr,
			Path:   r.URL.Path,
		})
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}
