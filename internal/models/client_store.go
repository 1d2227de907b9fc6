// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/crypto"
	"github.com/ptgraft/graft/internal/dbinterface"
)

// ClientStore persists btclient.ClientConfig rows, sealing the password
// field with the application SecretBox before it ever reaches disk.
type ClientStore struct {
	db     dbinterface.Querier
	secret *crypto.SecretBox
}

func NewClientStore(db dbinterface.Querier, secret *crypto.SecretBox) *ClientStore {
	return &ClientStore{db: db, secret: secret}
}

func (s *ClientStore) Create(ctx context.Context, cfg btclient.ClientConfig) (btclient.ClientConfig, error) {
	sealed, err := s.secret.Seal(cfg.Password)
	if err != nil {
		return btclient.ClientConfig{}, fmt.Errorf("seal client password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, client_type, host, port, username, password, use_https)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cfg.ID, cfg.Name, string(cfg.ClientType), cfg.Host, cfg.Port, cfg.Username, sealed, cfg.UseHTTPS)
	if err != nil {
		if isUniqueConstraintError(err) {
			return btclient.ClientConfig{}, ErrDuplicateID
		}
		return btclient.ClientConfig{}, err
	}

	return cfg, nil
}

func (s *ClientStore) scan(row interface{ Scan(dest ...any) error }) (btclient.ClientConfig, error) {
	var cfg btclient.ClientConfig
	var clientType string
	var sealedPassword sql.NullString
	var username sql.NullString

	if err := row.Scan(&cfg.ID, &cfg.Name, &clientType, &cfg.Host, &cfg.Port, &username, &sealedPassword, &cfg.UseHTTPS); err != nil {
		return btclient.ClientConfig{}, err
	}

	cfg.ClientType = btclient.ClientType(clientType)
	cfg.Username = username.String

	if sealedPassword.Valid {
		plain, err := s.secret.Open(sealedPassword.String)
		if err != nil {
			return btclient.ClientConfig{}, fmt.Errorf("open client password: %w", err)
		}
		cfg.Password = plain
	}

	return cfg, nil
}

func (s *ClientStore) Get(ctx context.Context, id string) (btclient.ClientConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, client_type, host, port, username, password, use_https
		FROM clients WHERE id = ?
	`, id)

	cfg, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return btclient.ClientConfig{}, ErrClientNotFound
		}
		return btclient.ClientConfig{}, err
	}
	return cfg, nil
}

func (s *ClientStore) List(ctx context.Context) ([]btclient.ClientConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, client_type, host, port, username, password, use_https
		FROM clients ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []btclient.ClientConfig
	for rows.Next() {
		cfg, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (s *ClientStore) Update(ctx context.Context, cfg btclient.ClientConfig) error {
	sealed, err := s.secret.Seal(cfg.Password)
	if err != nil {
		return fmt.Errorf("seal client password: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, client_type = ?, host = ?, port = ?, username = ?, password = ?, use_https = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cfg.Name, string(cfg.ClientType), cfg.Host, cfg.Port, cfg.Username, sealed, cfg.UseHTTPS, cfg.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (s *ClientStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrClientNotFound
	}
	return nil
}
