// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ptgraft/graft/internal/buildinfo"
	"github.com/ptgraft/graft/internal/domain"
)

func newRootCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "graft",
		Short: "Graft indexes cross-seeding opportunities across private tracker sites",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding config.yaml, graft.db, and logs (default $GRAFT_DATA_DIR or ./data)")

	cmd.AddCommand(newServeCommand(&dataDir))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print(buildinfo.String())
			return nil
		},
	}
}

// loadConfig layers defaults, an optional config.yaml under dataDir, and
// GRAFT_* environment variables, in that precedence order (env wins).
func loadConfig(dataDirFlag string) (*domain.Config, error) {
	cfg := domain.Defaults()
	cfg.Version = buildinfo.Version

	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if v, ok := os.LookupEnv("GRAFT_DATA_DIR"); ok && v != "" && dataDirFlag == "" {
		cfg.DataDir = v
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(cfg.DataDir)

	configPath := filepath.Join(cfg.DataDir, "config.yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnvOverrides(os.LookupEnv)

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "graft.db")
	}

	// A fresh install has no sessionSecret on disk; generate one and
	// persist it so client/site credentials stay decryptable across
	// restarts.
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = uuid.NewString()
		v.Set("sessionSecret", cfg.SessionSecret)
		if err := v.WriteConfigAs(configPath); err != nil {
			return nil, fmt.Errorf("persist generated session secret: %w", err)
		}
	}

	return cfg, nil
}

// configureLogger sets the global zerolog logger's level and, when
// LogPath is set, tees output through lumberjack for rotation.
func configureLogger(cfg *domain.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if cfg.LogPath != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
		})
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}
