// Package server initializes and runs the auth server. It wires storage,
// services and the HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/r-scheele/authgate/internal/logging"
	"github.com/r-scheele/authgate/internal/server/config"
	"github.com/r-scheele/authgate/internal/server/httpapi"
	"github.com/r-scheele/authgate/internal/server/mail"
	"github.com/r-scheele/authgate/internal/server/password"
	"github.com/r-scheele/authgate/internal/server/repositories/repomanager"
	"github.com/r-scheele/authgate/internal/server/services"
	"github.com/r-scheele/authgate/internal/server/tasks"
	"github.com/r-scheele/authgate/internal/server/token"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	dispatcher *tasks.Dispatcher
}

func NewApp(c *config.Config) (*App, error) {
	var handler slog.Handler
	if c.Production {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := logging.NewSlogLogger(slog.New(handler))

	var db *sql.DB
	var repos repomanager.RepositoryManager
	if c.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repos = repomanager.NewPostgresRepositoryManager()
		if err := repos.RunMigrations(context.Background(), db); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	} else {
		logger.Warn(context.Background(), "no database DSN configured, using the in-memory store")
		repos = repomanager.NewMemoryRepositoryManager()
	}

	codec, err := token.NewCodec([]byte(c.SecretKey), c.JWTAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	hasher := password.NewHasher(c.BcryptCost)
	codes := services.NewVerificationCodeService(repos.VerificationCodes(db))
	auth := services.NewAuthService(db, repos, hasher, codec, codes,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, logger)

	var sender mail.Sender
	if c.SMTPHost != "" {
		sender = mail.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom)
	} else {
		sender = mail.NewLogSender(logger)
	}

	dispatcher := tasks.NewDispatcher(4, 256, logger)
	httpServer := httpapi.NewServer(auth, codes, codec, sender, dispatcher, logger, c.Production)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: httpServer,
		dispatcher: dispatcher,
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

// Run serves HTTP until the context is cancelled or a signal arrives, then
// drains in-flight requests and background tasks.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.HTTPAddr,
		Handler: app.httpServer.Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server stopped", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()
	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http shutdown error", "error", err)
	}

	app.dispatcher.Close()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
}
