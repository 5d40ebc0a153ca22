// Package mail renders the daily status report into an email message.
package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// Subjects for the two report variants.
const (
	SubjectSolved   = "Awesome! You solved today’s LeetCode challenge!"
	SubjectReminder = "⏳ Reminder: Solve Today’s LeetCode Problem!"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = map[string]any{"join": strings.Join}

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("report.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/report.html.tmpl"))
	textTmpl = texttemplate.Must(texttemplate.New("report.txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/report.txt.tmpl"))
)

// Message is a rendered email ready for dispatch.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Report is the data rendered into a status email.
type Report struct {
	Username string
	Email    string
	Question potd.Question
	Solved   bool
	Quote    string
	Hints    []string
}

// AcceptanceRate formats the question acceptance rate, or "" when unknown.
func (r Report) AcceptanceRate() string {
	if r.Question.AcceptanceRate <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f%%", r.Question.AcceptanceRate)
}

// Compose renders r into a Message. Hints are only rendered for the
// reminder variant.
func Compose(r Report) (Message, error) {
	if r.Email == "" {
		return Message{}, errors.New("mail: recipient address is required")
	}
	if r.Solved {
		r.Hints = nil
	}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, r); err != nil {
		return Message{}, fmt.Errorf("mail: render html: %w", err)
	}
	if err := textTmpl.Execute(&text, r); err != nil {
		return Message{}, fmt.Errorf("mail: render text: %w", err)
	}

	subject := SubjectReminder
	if r.Solved {
		subject = SubjectSolved
	}

	return Message{
		To:      r.Email,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
