// Package security keeps secrets out of logs and audit output, and records
// security-relevant events on the gateway.
package security

import (
	"regexp"
	"slices"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|key|api_key|credential)`)

// Redactor replaces secret values in strings and maps with a redaction
// placeholder. Known key formats are matched by pattern; secrets loaded from
// configuration are matched literally. Safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// SetLiterals replaces every literal with secrets, dropping empty values.
// Longer secrets are matched first so a secret containing another is not
// partially revealed. Called again after a configuration reload.
func (r *Redactor) SetLiterals(secrets ...string) {
	lits := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" && !slices.Contains(lits, s) {
			lits = append(lits, s)
		}
	}
	slices.SortFunc(lits, func(a, b string) int { return len(b) - len(a) })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = lits
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	return s
}

// RedactMap walks a map and replaces values whose keys match common secret
// key names (secret, token, password, key, api_key, credential).
// Used when printing the effective configuration.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// DefaultPatterns returns compiled regex patterns for the credential
// formats the bot handles.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Google API key (Gemini): AIza followed by 35 URL-safe chars.
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		// Google OAuth access token.
		regexp.MustCompile(`ya29\.[0-9A-Za-z_\-]{20,}`),
		// API key passed as a query parameter.
		regexp.MustCompile(`([?&](?:key|api_key)=)[^&\s"]+`),
		// Authorization: Bearer <token>.
		regexp.MustCompile(`(?i)bearer\s+[a-z0-9._\-]{16,}`),
	}
}
