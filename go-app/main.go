// go-app/main.go
// App Engine main package for the GoBalda game server
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	balda "github.com/vthorsteinsson/GoBalda"
	"github.com/vthorsteinsson/GoBalda/storage"
)

func main() {
	cfg, err := balda.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()
	log.Info().Str("go", runtime.Version()).Msg("Game service starting")

	lang, err := cfg.DefaultLanguage()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid language")
	}
	rules, err := cfg.Rules()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rules")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start loading the default vocabulary while the rest is set up;
	// requests wait for it if it is not ready yet
	registry := cfg.Registry()
	registry.Load(lang)

	store, err := storage.Open(ctx, cfg.StoreConfig())
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("unable to open save store")
	}
	defer store.Close()

	srv := balda.NewServer(balda.ServerOptions{
		Registry:       registry,
		Store:          store,
		Rules:          rules,
		Language:       lang,
		AccessKey:      cfg.AccessKey,
		AllowedOrigins: cfg.AllowedOrigins,
		Retention:      cfg.GameRetention,
	})
	defer srv.Close()
	if cfg.AllowedOrigins == "*" {
		log.Info().Msg("No ALLOWED_ORIGINS specified, allowing all")
	} else {
		log.Info().Str("origins", cfg.AllowedOrigins).Msg("Allowed CORS origins")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Msg("Listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server exited")
	}
}
