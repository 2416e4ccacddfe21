// Package main runs the maternal survey API gateway.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maternal-survey/survey-api/internal/api"
	"github.com/maternal-survey/survey-api/internal/config"
	"github.com/maternal-survey/survey-api/internal/database"
	"github.com/maternal-survey/survey-api/internal/lifecycle"
	"github.com/maternal-survey/survey-api/internal/logging"
)

func main() {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		logging.NewDefault("gateway").WithError(err).Fatal("invalid configuration")
	}

	log := logging.New("gateway", cfg.LogLevel, cfg.Env)
	log.WithField("env", cfg.Env).Info("starting maternal survey API gateway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewClient(ctx, database.Config{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create database client")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := db.Close(closeCtx); err != nil {
			log.WithError(err).Warn("database close failed")
		}
	}()

	router := api.NewRouter(api.Config{
		Logger:         log,
		Responses:      database.NewResponseRepository(db),
		Users:          database.NewUserRepository(db),
		DB:             db,
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	guard := lifecycle.NewGuard(server, log)

	guard.Go(func() error {
		log.WithField("addr", server.Addr).Info("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}

	log.Info("gateway stopped")
}
