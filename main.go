package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio/src/api"
	"portfolio/src/config"
	"portfolio/src/utils"
	"portfolio/src/worker"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		logrus.WithError(err).Fatal("Error while loading config")
	}
	if err := config.ResolveSecrets(cfg); err != nil {
		logrus.WithError(err).Fatal("Error while resolving secrets")
	}
	logger := utils.NewLogger(utils.ParseLevel(cfg.Logging.Level), cfg.Logging.ToFile, cfg.Logging.FilePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Error while running")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	var (
		httpServer *http.Server
		closeFn    func()
	)
	switch cfg.Service.Type {
	case config.WORKER:
		server, err := worker.NewServer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		httpServer = worker.NewHTTPServer(server, cfg)
		closeFn = server.Close
	default:
		server, err := api.NewServer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		httpServer = api.NewHTTPServer(server, cfg)
		closeFn = server.Close
	}
	defer closeFn()

	errC := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"type": cfg.Service.Type, "addr": httpServer.Addr}).Info("Starting server")
		// ListenAndServe always returns a non-nil error; ErrServerClosed after Shutdown.
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errC
}
