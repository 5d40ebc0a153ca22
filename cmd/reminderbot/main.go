// Package main is the entry point for the reminderbot CLI.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/config"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reminderbot",
		Short:         "Daily LeetCode problem-of-the-day reminders by email",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), checkCmd(), configCmd(), initCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reminderbot %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	var (
		cfgPath      string
		checkOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler, cache eviction and HTTP gateway",
		RunE: func(_ *cobra.Command, _ []string) error {
			params := app.Params{
				ConfigPath:   cfgPath,
				Version:      version,
				CheckOnStart: checkOnStart,
			}
			if !service.Interactive() {
				return runService(params)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, params)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&checkOnStart, "check-on-start", false, "Check every user once at startup")
	return cmd
}

func checkCmd() *cobra.Command {
	var (
		cfgPath string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every user once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.LoadResolved(cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bot, err := app.Build(ctx, cfg, app.Options{Version: version})
			if err != nil {
				return err
			}
			defer bot.Close()

			summary, err := bot.CheckAll(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s check.RunSummary) error {
	fmt.Fprintf(w, "Run %s: %s on %s\n", s.RunID, s.Question.Slug, s.Day)
	fmt.Fprintf(w, "solved=%d reminded=%d errors=%d\n\n", s.Solved, s.Reminded, s.Errors)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tOUTCOME\tDETAIL")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Username, r.Outcome, r.Error)
	}
	return tw.Flush()
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK (gateway: %t, history: %t)\n",
				cfg.Gateway.IsEnabled(), cfg.History.IsEnabled())
			return nil
		},
	})

	var showPath string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := config.LoadResolved(showPath)
			if err != nil {
				return err
			}
			out, err := redactedYAML(cfg)
			if err != nil {
				return err
			}
			if path == "" {
				path = "(environment and defaults)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", path)
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	show.Flags().StringVarP(&showPath, "config", "c", "", "Path to configuration file")
	cmd.AddCommand(show)
	return cmd
}

// redactedYAML renders cfg as YAML with every credential replaced.
func redactedYAML(cfg *config.Config) ([]byte, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	r := security.NewRedactor()
	r.SetLiterals(cfg.Secrets()...)
	r.RedactMap(tree)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
