package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/config"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/logging"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/migrations"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("treble exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Startup.MigrateOnStart {
		if err := migrations.Up(db); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	svc := newServices(store.New(db), logger)

	if cfg.Startup.SeedDemoData {
		if err := bootstrapDemoData(ctx, svc); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newHTTPHandler(cfg, svc, logger),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("API listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
