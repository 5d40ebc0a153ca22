package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/app"
)

const serviceStopTimeout = 30 * time.Second

// program adapts app.Run to the service manager's start/stop callbacks.
type program struct {
	params app.Params
	cancel context.CancelFunc
	done   chan error
}

var _ service.Interface = (*program)(nil)

// Start must not block.
func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() { p.done <- app.Run(ctx, p.params) }()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case err := <-p.done:
		return err
	case <-time.After(serviceStopTimeout):
		return errors.New("service: timed out waiting for shutdown")
	}
}

func serviceConfig(params app.Params) *service.Config {
	args := []string{"start"}
	if params.ConfigPath != "" {
		args = append(args, "--config", params.ConfigPath)
	}
	if params.CheckOnStart {
		args = append(args, "--check-on-start")
	}
	return &service.Config{
		Name:        "reminderbot",
		DisplayName: "LeetCode Reminder Bot",
		Description: "Sends daily LeetCode problem-of-the-day reminders by email.",
		Arguments:   args,
		Option: service.KeyValue{
			"Restart":       "on-failure",
			"LogOutput":     true,
			"SystemdScript": systemdScript,
		},
	}
}

// runService runs under a service manager, which delivers stop requests
// through program.Stop instead of signals.
func runService(params app.Params) error {
	s, err := service.New(&program{params: params}, serviceConfig(params))
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return s.Run()
}

func serviceCmd() *cobra.Command {
	var (
		cfgPath      string
		checkOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the reminderbot system service",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Configuration file the service starts with")
	cmd.PersistentFlags().BoolVar(&checkOnStart, "check-on-start", false, "Check every user once when the service starts")

	newService := func() (service.Service, error) {
		params := app.Params{Version: version, CheckOnStart: checkOnStart}
		if cfgPath != "" {
			abs, err := filepath.Abs(cfgPath)
			if err != nil {
				return nil, err
			}
			params.ConfigPath = abs
		}
		s, err := service.New(&program{params: params}, serviceConfig(params))
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		return s, nil
	}

	for _, action := range service.ControlAction {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := newService()
				if err != nil {
					return err
				}
				if err := service.Control(s, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			st, err := s.Status()
			if err != nil && !errors.Is(err, service.ErrNotInstalled) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reminderbot: %s\n", statusName(st, err))
			return nil
		},
	})
	return cmd
}

func statusName(st service.Status, err error) string {
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed"
	}
	switch st {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// systemdScript is a notify-type unit so readiness comes from sd_notify.
const systemdScript = `[Unit]
Description={{.Description}}
ConditionFileIsExecutable={{.Path|cmdEscape}}
After=network-online.target
Wants=network-online.target

[Service]
Type=notify
ExecStart={{.Path|cmdEscape}}{{range .Arguments}} {{.|cmd}}{{end}}
{{if .UserName}}User={{.UserName}}{{end}}
{{if .WorkingDirectory}}WorkingDirectory={{.WorkingDirectory|cmdEscape}}{{end}}
ExecReload=/bin/kill -HUP $MAINPID
{{if .Restart}}Restart={{.Restart}}{{end}}
RestartSec=5

[Install]
WantedBy=multi-user.target
`
