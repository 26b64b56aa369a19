// Package server initializes and runs the authentication server: it selects
// the storage backend, wires the users service and the REST API, and handles
// graceful shutdown on OS signals.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilepins/userauth/internal/logging"
	"github.com/ilepins/userauth/internal/server/config"
	"github.com/ilepins/userauth/internal/server/db"
	"github.com/ilepins/userauth/internal/server/httpapi"
	"github.com/ilepins/userauth/internal/server/users"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repoManager db.RepositoryManager
	userService *users.Service
	httpServer  *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	rm, err := db.NewRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := users.NewService(rm.Users(), logger, cfg)
	hs := httpapi.NewServer(cfg, logger, us)

	return &App{
		config:      cfg,
		logger:      logger,
		repoManager: rm,
		userService: us,
		httpServer:  hs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr, "dsn", app.config.DatabaseDSN)

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "graceful shutdown error", "error", err.Error())
	}

	return app.repoManager.Close()
}
