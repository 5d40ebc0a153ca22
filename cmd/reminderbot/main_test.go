package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/config"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/app"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const validConfig = `version: "1"
smtp:
  username: bot@example.com
  password: app-password-123
users:
  url: http://localhost:8081/api/users
  api_key: users-key-456
gateway:
  enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reminderbot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "reminderbot dev") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "valid", content: validConfig},
		{
			name:    "bad version",
			content: strings.Replace(validConfig, `version: "1"`, `version: "2"`, 1),
			wantErr: "unsupported version",
		},
		{
			name:    "bad empty policy",
			content: validConfig + "schedule:\n  empty_user_list: drop\n",
			wantErr: "empty_user_list",
		},
		{
			name:    "bad timezone",
			content: validConfig + "cache:\n  timezone: Mars/Olympus\n",
			wantErr: "cache.timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := execute(t, "config", "check", writeConfig(t, tt.content))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("config check: %v", err)
				}
				if !strings.Contains(out, "Configuration OK") {
					t.Errorf("output = %q", out)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigCheck_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := execute(t, "config", "check", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "config", "show", "--config", writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, secret := range []string{"app-password-123", "users-key-456"} {
		if strings.Contains(out, secret) {
			t.Errorf("secret %q printed:\n%s", secret, out)
		}
	}
	if !strings.Contains(out, security.RedactPlaceholder) {
		t.Errorf("expected placeholder in:\n%s", out)
	}
	if !strings.Contains(out, "bot@example.com") {
		t.Errorf("non-secret value missing from:\n%s", out)
	}
}

func TestRenderInitConfig_Loads(t *testing.T) {
	t.Parallel()

	raw, err := renderInitConfig(initAnswers{
		SMTPUser:     " bot@example.com ",
		SMTPPassword: "app-password-123",
		UsersURL:     "https://users.example.com/api/users",
		UsersAPIKey:  "users-key-456",
		GeminiAPIKey: "gemini-key",
		Gateway:      false,
	})
	if err != nil {
		t.Fatalf("renderInitConfig: %v", err)
	}

	cfg, err := config.Parse(raw, "init")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.SMTP.Username != "bot@example.com" {
		t.Errorf("smtp.username = %q", cfg.SMTP.Username)
	}
	if cfg.Gemini.APIKey != "gemini-key" {
		t.Errorf("gemini.api_key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Gateway.IsEnabled() {
		t.Error("gateway enabled, want disabled")
	}
}

func TestInitValidators(t *testing.T) {
	t.Parallel()

	if err := validateEmail("bot@example.com"); err != nil {
		t.Errorf("validateEmail(valid) = %v", err)
	}
	if err := validateEmail("not-an-email"); err == nil {
		t.Error("validateEmail(invalid) = nil")
	}
	if err := validateURL("ftp://example.com"); err == nil {
		t.Error("validateURL(ftp) = nil")
	}
	if err := validateURL("http://localhost:8081/api/users"); err != nil {
		t.Errorf("validateURL(valid) = %v", err)
	}
	if err := required("key")("  "); err == nil {
		t.Error("required(blank) = nil")
	}
}

func TestServiceConfig_Arguments(t *testing.T) {
	t.Parallel()

	cfg := serviceConfig(appParams("/etc/reminderbot.yaml", true))
	want := []string{"start", "--config", "/etc/reminderbot.yaml", "--check-on-start"}
	if strings.Join(cfg.Arguments, " ") != strings.Join(want, " ") {
		t.Errorf("Arguments = %v, want %v", cfg.Arguments, want)
	}

	cfg = serviceConfig(appParams("", false))
	if len(cfg.Arguments) != 1 || cfg.Arguments[0] != "start" {
		t.Errorf("Arguments = %v, want [start]", cfg.Arguments)
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := printSummary(&buf, check.RunSummary{
		RunID:    "run-1",
		Question: potd.Question{Slug: "two-sum"},
		Day:      "2026-03-10",
		Results: []check.Result{
			{Username: "alice", Outcome: potd.OutcomeSolved},
			{Username: "bob", Outcome: potd.OutcomeError, Error: "smtp down"},
		},
		Solved: 1,
		Errors: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"two-sum", "solved=1 reminded=0 errors=1", "alice", "smtp down"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func appParams(path string, checkOnStart bool) app.Params {
	return app.Params{ConfigPath: path, CheckOnStart: checkOnStart}
}
