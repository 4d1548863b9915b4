package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NewsRelay/internal/api"
	"NewsRelay/internal/config"
	"NewsRelay/internal/infrastructure/newsapi"
	"NewsRelay/internal/infrastructure/scheduler"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/infrastructure/telegram"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	agent  *usecase.Agent
	server *http.Server
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	activity := logging.NewRing(cfg.Agent.LogCapacity, baseLogger.With("component", "activity"))

	var sent ports.SentRepository
	if cfg.Filter.SkipAlreadySent {
		sent = storage.NewMemoryRepository(cfg.Filter.MemorySize)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     newsapi.NewClient(cfg.Source, baseLogger.With("component", "source")),
		Filter:     usecase.NewItemFilter(sent, baseLogger.With("component", "filter")),
		Dispatcher: usecase.NewDispatcher(telegram.NewNotifier(cfg.Notifications.Telegram), cfg.Notifications.Telegram.SendInterval, baseLogger.With("component", "dispatcher")),
		Sent:       sent,
		Activity:   activity,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	agent := usecase.NewAgent(usecase.AgentDeps{
		Runner:   pipeline,
		Driver:   scheduler.NewCronScheduler(baseLogger.With("component", "scheduler")),
		Activity: activity,
		Logger:   baseLogger.With("component", "agent"),
	})

	if baseLogger.Enabled(context.Background(), slog.LevelDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	apiServer := api.NewServer(agent, activity, cfg.AgentDefaults(), cfg.Server, baseLogger.With("component", "api"))
	router := api.NewRouter(apiServer, cfg.Server)

	return &Application{
		cfg:   cfg,
		agent: agent,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: baseLogger,
	}
}

// Run serves the control API until ctx is done, then stops the agent and drains the in-flight run.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Agent.AutoStart {
		if err := a.agent.Start(ctx, a.cfg.AgentDefaults()); err != nil {
			a.logger.Warn("autostart skipped", "error", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("control api listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("serve control api: %w", err)
		}
	}

	return errors.Join(runErr, a.shutdown())
}

func (a *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown control api: %w", err))
	}
	if err := a.agent.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.agent.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for in-flight run: %w", err))
	}

	a.logger.Info("application stopped")
	return errors.Join(errs...)
}
