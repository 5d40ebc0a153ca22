package main

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rajat069/leetcode-reminder-bot/internal/config"
)

// initAnswers holds what the init wizard collects.
type initAnswers struct {
	SMTPUser     string
	SMTPPassword string
	UsersURL     string
	UsersAPIKey  string
	GeminiAPIKey string
	Gateway      bool
}

func initCmd() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = config.Candidates()[0]
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}

			answers := initAnswers{
				UsersURL: "http://localhost:8081/api/users",
				Gateway:  true,
			}
			if err := initForm(&answers).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return errors.New("init aborted")
				}
				return err
			}

			raw, err := renderInitConfig(answers)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(output, raw, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where to write the configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Email").
				Description("Reminders are sent through Gmail SMTP with an app password."),
			huh.NewInput().
				Title("Sender address").
				Value(&a.SMTPUser).
				Validate(validateEmail),
			huh.NewInput().
				Title("App password").
				EchoMode(huh.EchoModePassword).
				Value(&a.SMTPPassword).
				Validate(required("app password")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("User service URL").
				Value(&a.UsersURL).
				Validate(validateURL),
			huh.NewInput().
				Title("User service API key").
				EchoMode(huh.EchoModePassword).
				Value(&a.UsersAPIKey).
				Validate(required("api key")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API key").
				Description("Optional. Without it, reminders use built-in quotes and hints.").
				EchoMode(huh.EchoModePassword).
				Value(&a.GeminiAPIKey),
			huh.NewConfirm().
				Title("Enable the HTTP gateway on 127.0.0.1:8000?").
				Value(&a.Gateway),
		),
	)
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

// renderInitConfig builds a minimal configuration file from the wizard
// answers. Everything else keeps its default.
func renderInitConfig(a initAnswers) ([]byte, error) {
	doc := map[string]any{
		"version": "1",
		"smtp": map[string]any{
			"username": strings.TrimSpace(a.SMTPUser),
			"password": a.SMTPPassword,
		},
		"users": map[string]any{
			"url":     strings.TrimSpace(a.UsersURL),
			"api_key": a.UsersAPIKey,
		},
		"gateway": map[string]any{
			"enabled": a.Gateway,
		},
	}
	if a.GeminiAPIKey != "" {
		doc["gemini"] = map[string]any{"api_key": a.GeminiAPIKey}
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return append([]byte("# Generated by reminderbot init\n"), raw...), nil
}
