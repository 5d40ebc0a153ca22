// Package gateway serves the manual trigger endpoint, health and metrics,
// and a small authenticated admin API. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// Checker runs an on-demand check for an arbitrary user.
type Checker interface {
	CheckOnDemand(ctx context.Context, username, email string) (check.Result, error)
}

// ScheduleLister lists the registered reminder jobs.
type ScheduleLister interface {
	Jobs() []schedule.JobInfo
}

// ReconcileRequester asks the polling loop to reconcile on its own goroutine.
type ReconcileRequester interface {
	ForceReconcile()
}

// HistoryReader returns recent check records, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, username string, limit int) ([]potd.CheckRecord, error)
}

// Deps are the components the gateway exposes. Checker is required; the
// admin routes backed by a nil dependency answer 503.
type Deps struct {
	Checker   Checker
	Schedule  ScheduleLister
	Reconcile ReconcileRequester
	History   HistoryReader
	Metrics   *metrics.Metrics
	Audit     *security.AuditLogger
	Logger    *slog.Logger
}

// Gateway is the HTTP server.
type Gateway struct {
	cfg       Config
	deps      Deps
	logger    *slog.Logger
	validate  *validator.Validate
	limiter   *rate.Limiter
	handler   http.Handler
	startedAt time.Time

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New validates the configuration and builds the router.
func New(cfg Config, deps Deps) (*Gateway, error) {
	cfg.defaults()
	var errs []error
	if cfg.APIKey == "" {
		errs = append(errs, errors.New("gateway: api key is required"))
	}
	if deps.Checker == nil {
		errs = append(errs, errors.New("gateway: nil Checker"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	g := &Gateway{
		cfg:       cfg,
		deps:      deps,
		logger:    deps.Logger.With("component", "gateway"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		startedAt: time.Now(),
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	g.handler = g.buildRouter()
	return g, nil
}

// Handler returns the router, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Start listens on the configured address and serves in the background.
// Implements core.Starter.
func (g *Gateway) Start() error {
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.cfg.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen on %s: %w", g.cfg.Bind, err)
	}

	srv := &http.Server{
		Handler:      g.handler,
		ReadTimeout:  g.cfg.ReadTimeout,
		WriteTimeout: g.cfg.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(g.logger.Handler(), slog.LevelWarn),
	}

	g.mu.Lock()
	g.server = srv
	g.addr = ln.Addr()
	g.mu.Unlock()

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addr == nil {
		return ""
	}
	return g.addr.String()
}

// Stop shuts the server down, waiting for in-flight requests up to the
// configured timeout. Implements core.Stopper.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.cfg.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}
