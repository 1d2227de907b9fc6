// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ptgraft/graft/internal/api"
	"github.com/ptgraft/graft/internal/crypto"
	"github.com/ptgraft/graft/internal/database"
	"github.com/ptgraft/graft/internal/metrics"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/services/indexsvc"
	"github.com/ptgraft/graft/internal/services/reseed"
	"github.com/ptgraft/graft/internal/tracker"
)

func newServeCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and start indexing cross-seed opportunities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(*dataDir)
		},
	}
}

func runServe(dataDirFlag string) error {
	cfg, err := loadConfig(dataDirFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := configureLogger(cfg); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	log.Info().Str("dataDir", cfg.DataDir).Str("dbPath", cfg.DBPath).Msg("starting graft")

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	secretBox, err := crypto.NewSecretBox(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("init secret box: %w", err)
	}

	clientStore := models.NewClientStore(db, secretBox)
	siteStore := models.NewSiteStore(db, secretBox)
	historyStore := models.NewHistoryStore(db)
	indexStore := models.NewTorrentIndexStore(db)
	fingerprintStore := models.NewFingerprintStore(db)

	identifier := tracker.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sites, err := siteStore.List(ctx)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}
	for _, site := range sites {
		for _, domain := range site.TrackerDomains {
			identifier.RegisterSite(domain, site.ID)
		}
	}

	indexService := indexsvc.New(indexStore, fingerprintStore, identifier)
	requestInterval := time.Duration(cfg.DefaultRequestIntervalMillis) * time.Millisecond
	reseedService := reseed.New(indexService, identifier, historyStore, requestInterval)

	var metricsManager *metrics.Manager
	if cfg.MetricsEnabled {
		metricsManager = metrics.NewManager()
		indexService.WithMetrics(metricsManager)
		reseedService.WithMetrics(metricsManager)
		metricsServer := metrics.NewServer(metricsManager, cfg.MetricsHost, cfg.MetricsPort)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	router := api.NewRouter(&api.Dependencies{
		Config:         cfg,
		ClientStore:    clientStore,
		SiteStore:      siteStore,
		HistoryStore:   historyStore,
		IndexService:   indexService,
		ReseedService:  reseedService,
		MetricsManager: metricsManager,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("admin API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("admin API: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown admin API: %w", err)
	}

	return nil
}
