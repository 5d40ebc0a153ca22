// Package core manages the start and stop order of long-lived components.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultShutdownTimeout = 30 * time.Second

// App manages the lifecycle of a set of components.
type App struct {
	components      []component
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

type component struct {
	name    string
	value   any
	started bool
}

// NewApp creates an empty App. A non-positive shutdownTimeout defaults
// to 30s.
func NewApp(logger *slog.Logger, shutdownTimeout time.Duration) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &App{
		logger:          logger.With("component", "core"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Register adds a component. Components implementing neither Starter nor
// Stopper are accepted and ignored. Components that only implement
// Stopper are considered started on registration so they are still
// stopped on shutdown.
func (a *App) Register(name string, c any) {
	_, isStarter := c.(Starter)
	a.components = append(a.components, component{
		name:    name,
		value:   c,
		started: !isStarter,
	})
}

// Start starts all registered components that implement Starter, in order.
// If any Start() fails, already-started components are stopped in reverse
// order.
func (a *App) Start() error {
	for i := range a.components {
		c := &a.components[i]
		s, ok := c.value.(Starter)
		if !ok {
			continue
		}
		a.logger.Info("starting component", "name", c.name)
		if err := s.Start(); err != nil {
			a.logger.Error("component start failed", "name", c.name, "error", err)
			a.stopComponents(i - 1)
			return fmt.Errorf("starting %s: %w", c.name, err)
		}
		c.started = true
	}
	a.logger.Info("all components started")
	return nil
}

// Stop stops all started components in reverse order with a timeout.
func (a *App) Stop() {
	a.stopComponents(len(a.components) - 1)
}

func (a *App) stopComponents(fromIndex int) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	for i := fromIndex; i >= 0; i-- {
		c := &a.components[i]
		if !c.started {
			continue
		}
		if s, ok := c.value.(Stopper); ok {
			a.logger.Info("stopping component", "name", c.name)
			if err := s.Stop(ctx); err != nil {
				a.logger.Error("component stop error", "name", c.name, "error", err)
			}
		}
		c.started = false
	}
}
