// Package potd defines the shared domain types of the reminder bot: the
// daily question, accepted submissions, registered users, and the outcome
// of a per-user check.
package potd

import "time"

// Question is a snapshot of the LeetCode problem of the day.
type Question struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Difficulty     string   `json:"difficulty"`
	AcceptanceRate float64  `json:"acceptance_rate"`
	Hints          []string `json:"hints,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Link           string   `json:"link"`
	Date           string   `json:"date,omitempty"` // YYYY-MM-DD as reported by the origin
}

// Submission is a recently accepted submission of a user.
type Submission struct {
	Slug      string    `json:"slug"`
	Timestamp time.Time `json:"timestamp"`
}

// User is a registered user as reported by the user registry.
// ReminderTimes are "HH:MM" strings in UTC. Paused users are neither
// scheduled nor checked.
type User struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	ReminderTimes []string `json:"reminder_times"`
	Paused        bool     `json:"paused,omitempty"`
}

// ActiveUsers returns the users that are not paused, in order.
func ActiveUsers(users []User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if !u.Paused {
			out = append(out, u)
		}
	}
	return out
}

// Outcome is the terminal state of a single user check.
type Outcome string

// Known outcomes.
const (
	OutcomeSolved   Outcome = "solved"
	OutcomeReminded Outcome = "reminded"
	OutcomeError    Outcome = "error"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSolved, OutcomeReminded, OutcomeError:
		return true
	}
	return false
}

// CheckRecord is the persisted result of one user check.
type CheckRecord struct {
	RunID     string    `json:"run_id"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username"`
	Slug      string    `json:"slug"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Trigger   string    `json:"trigger"` // "scheduled", "run" or "manual"
	CheckedAt time.Time `json:"checked_at"`
}
