package potd

import "errors"

// Sentinel errors shared by the origin clients and the orchestrator.
var (
	// ErrOriginUnavailable indicates the question, submission, or user
	// source could not be reached or answered with a failure.
	ErrOriginUnavailable = errors.New("origin unavailable")

	// ErrContentGeneration indicates the AI quote or hint call failed or
	// returned malformed data.
	ErrContentGeneration = errors.New("content generation failed")

	// ErrDelivery indicates an email could not be sent.
	ErrDelivery = errors.New("email delivery failed")

	// ErrNoUsers indicates a run was requested with an empty user list.
	ErrNoUsers = errors.New("no users to check")
)
