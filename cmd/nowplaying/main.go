package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/display"
	"github.com/genricoloni/nowplaying/internal/domain"
	"github.com/genricoloni/nowplaying/internal/engine"
	"github.com/genricoloni/nowplaying/internal/fetcher"
	"github.com/genricoloni/nowplaying/internal/monitor"
	"github.com/genricoloni/nowplaying/internal/processor"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions wires every component of the widget.
var AppOptions = fx.Options(
	fx.Provide(
		config.New,
		newLogger,
		fx.Annotate(fetcher.NewTrackClient, fx.As(new(domain.TrackSource))),
		fx.Annotate(fetcher.NewHTTPFetcher, fx.As(new(domain.Fetcher))),
		processor.New,
		display.New,
		monitor.NewMonitor,
		engine.NewEngine,
	),
	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "nowplaying: %v\n", err)
		os.Exit(1)
	}

	// Either a signal or the display host closing ends the run.
	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "nowplaying: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds a production logger, or a development one in debug mode.
// The terminal host owns the screen, so its logs go to the log file.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Debug {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Display == config.DisplayTerminal && cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		zc.OutputPaths = []string{cfg.LogFile}
		zc.ErrorOutputPaths = []string{cfg.LogFile}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

type hookParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Config     config.Config
	Display    domain.Display
	Monitor    domain.Monitor
	Engine     *engine.Engine
}

// registerHooks starts the display before the poller so the initial poll
// has somewhere to render, and stops them in reverse.
func registerHooks(p hookParams) {
	var (
		stopMonitor context.CancelFunc
		stopping    = make(chan struct{})
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("Now playing widget started",
				zap.String("server", p.Config.ServerURL),
				zap.String("user", p.Config.UserID),
				zap.String("variant", p.Config.Variant),
				zap.String("display", p.Config.Display),
				zap.Duration("interval", p.Config.PollInterval),
			)

			if err := p.Display.Start(ctx); err != nil {
				return fmt.Errorf("start display: %w", err)
			}
			if err := p.Engine.Start(ctx); err != nil {
				return multierr.Append(fmt.Errorf("start poller: %w", err), p.Display.Stop(ctx))
			}

			monitorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			stopMonitor = cancel
			go func() {
				err := p.Monitor.Start(monitorCtx)
				if err != nil && !errors.Is(err, context.Canceled) {
					p.Logger.Warn("Media player trigger unavailable", zap.Error(err))
				}
			}()

			go func() {
				select {
				case <-p.Display.Done():
					p.Logger.Info("Display closed, shutting down")
					if err := p.Shutdowner.Shutdown(); err != nil {
						p.Logger.Error("Failed to request shutdown", zap.Error(err))
					}
				case <-stopping:
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Shutting down")
			close(stopping)
			if stopMonitor != nil {
				stopMonitor()
			}
			return multierr.Combine(
				p.Engine.Stop(ctx),
				p.Monitor.Stop(ctx),
				p.Display.Stop(ctx),
			)
		},
	})
}
