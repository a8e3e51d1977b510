// @title Pet Appointment Scheduling API
// @version 1.0
// @description Reserva de turnos veterinarios con resolución pet -> clínica -> roster.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-appointment-scheduling/internal/adapters/auth/jwtauth"
	pg "pet-appointment-scheduling/internal/adapters/storage/postgres"
	"pet-appointment-scheduling/internal/audit"
	"pet-appointment-scheduling/internal/config"
	"pet-appointment-scheduling/internal/platform/logger"
	"pet-appointment-scheduling/internal/ports/auth"
	"pet-appointment-scheduling/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.NewFromStrings(cfg.LogLevel, cfg.LogFormat, cfg.AppName)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Fields{"err": err})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier auth.AuthVerifier // nil => modo dev
	if cfg.JWTSecret != "" {
		v, err := jwtauth.NewVerifier(cfg.JWTSecret)
		if err != nil {
			return err
		}
		verifier = v
	} else {
		log.Warn("JWT_SECRET not set, accepting X-Debug-* identity headers", nil)
	}

	var db *sql.DB
	if cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		defer opened.Close()

		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = pg.Migrate(mctx, opened)
		cancel()
		if err != nil {
			return err
		}
		db = opened
		log.Info("using postgres storage", nil)
	}

	auditor := audit.NewDispatcher(log, 256)
	defer auditor.Close()

	rt, err := router.NewRouter(router.Options{
		Config:       cfg,
		Log:          log,
		AuthVerifier: verifier,
		DB:           db,
		Auditor:      auditor,
	})
	if err != nil {
		return err
	}
	defer rt.Sessions.Close()

	go rt.Sessions.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rt.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.Fields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
