package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Rajat069/leetcode-reminder-bot/internal/config"
	"github.com/Rajat069/leetcode-reminder-bot/internal/reload"
)

// Params configures Run.
type Params struct {
	// ConfigPath is an explicit configuration file. When empty the standard
	// locations are searched, falling back to environment-only settings.
	ConfigPath   string
	Version      string
	CheckOnStart bool
}

// Run loads the configuration, builds the bot and runs it until ctx is
// cancelled. SIGHUP and writes to the configuration file trigger a live
// reload of the reloadable settings.
func Run(ctx context.Context, params Params) error {
	cfg, path, err := config.LoadResolved(params.ConfigPath)
	if err != nil {
		return err
	}
	bot, err := Build(ctx, cfg, Options{
		ConfigPath:   path,
		Version:      params.Version,
		CheckOnStart: params.CheckOnStart,
	})
	if err != nil {
		return err
	}
	defer bot.Close()

	if path == "" {
		bot.Logger.Info("no configuration file found, using environment and defaults")
	} else {
		bot.Logger.Info("configuration loaded", "path", path)
	}
	return bot.Run(ctx)
}

// serve runs the polling loop and the reload watcher until ctx is done.
func (b *Bot) serve(ctx context.Context, handler *reload.Handler) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return b.Loop.Run(gctx) })
	g.Go(func() error { return b.watchReload(gctx, handler) })

	sdNotify(b.Logger, "READY=1")
	b.Logger.Info("reminder bot running",
		"version", b.opts.Version,
		"gateway", b.Gateway != nil,
		"history", b.History != nil,
	)
	return g.Wait()
}

// watchReload applies configuration changes on SIGHUP or when the
// configuration file is written. Without a file, SIGHUP only forces a
// reconcile.
func (b *Bot) watchReload(ctx context.Context, handler *reload.Handler) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	var events <-chan reload.Event
	if b.opts.ConfigPath != "" {
		w := reload.NewWatcher(reload.WatcherConfig{
			ConfigPath: b.opts.ConfigPath,
			Logger:     b.Logger,
		})
		if err := w.Start(ctx); err != nil {
			b.Logger.Warn("config watcher unavailable, reload on SIGHUP only", "error", err)
		} else {
			defer w.Stop()
			events = w.Events()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			b.Logger.Info("SIGHUP received, reloading configuration")
			b.reload(ctx, handler)
		case evt := <-events:
			b.Logger.Info("config file changed, reloading", "path", evt.ConfigPath)
			b.reload(ctx, handler)
		}
	}
}

func (b *Bot) reload(ctx context.Context, handler *reload.Handler) {
	if b.opts.ConfigPath == "" {
		b.Loop.ForceReconcile()
		return
	}
	if err := handler.HandleReload(ctx, b.opts.ConfigPath); err != nil {
		b.Logger.Error("reload failed, keeping current configuration", "error", err)
	}
}
