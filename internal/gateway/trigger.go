package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const maxRequestBody = 16 << 10

// TriggerRequest is the body of POST /trigger-check.
type TriggerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// TriggerResponse is the success body of POST /trigger-check.
type TriggerResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Data    check.Result `json:"data"`
}

// handleTriggerCheck runs one on-demand check. An error outcome answers
// 500 with the error as detail.
func (g *Gateway) handleTriggerCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := g.decodeTrigger(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		g.logger.Info("gateway: manual trigger received", "username", req.Username)
		res, err := g.deps.Checker.CheckOnDemand(r.Context(), req.Username, req.Email)

		g.deps.Audit.Log(security.AuditEvent{
			Type:     security.EventTriggerCheck,
			Remote:   r.RemoteAddr,
			Path:     r.URL.Path,
			Username: req.Username,
			Outcome:  string(res.Outcome),
			Detail:   res.Error,
		})

		if err != nil {
			g.logger.Error("gateway: manual check failed", "username", req.Username, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, TriggerResponse{
			Status:  "success",
			Message: triggerMessage(res.Outcome),
			Data:    res,
		})
	}
}

func (g *Gateway) decodeTrigger(r *http.Request) (TriggerRequest, error) {
	var req TriggerRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := g.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return req, fmt.Errorf("invalid request: %s", strings.Join(fields, ", "))
		}
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func triggerMessage(o potd.Outcome) string {
	switch o {
	case potd.OutcomeSolved:
		return "User has solved today's problem; congratulation email sent"
	case potd.OutcomeReminded:
		return "User has not solved today's problem; reminder email sent"
	default:
		return "Check complete"
	}
}
