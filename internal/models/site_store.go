// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ptgraft/graft/internal/crypto"
	"github.com/ptgraft/graft/internal/dbinterface"
	"github.com/ptgraft/graft/internal/sites"
)

// siteStoreDB is the subset of *database.DB this store needs: plain
// querying plus the ability to start a transaction for the sites+domains
// multi-table writes.
type siteStoreDB interface {
	dbinterface.Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbinterface.TxQuerier, error)
}

// SiteStore persists sites.SiteConfig rows, sealing the passkey and
// cookie fields and maintaining the tracker_domains lookup table each
// site's TrackerDomains denormalize into.
type SiteStore struct {
	db     siteStoreDB
	secret *crypto.SecretBox
}

func NewSiteStore(db siteStoreDB, secret *crypto.SecretBox) *SiteStore {
	return &SiteStore{db: db, secret: secret}
}

func (s *SiteStore) Create(ctx context.Context, cfg sites.SiteConfig) (sites.SiteConfig, error) {
	sealedPasskey, err := s.secret.Seal(cfg.Passkey)
	if err != nil {
		return sites.SiteConfig{}, fmt.Errorf("seal site passkey: %w", err)
	}
	sealedCookie, err := s.secret.Seal(cfg.Cookie)
	if err != nil {
		return sites.SiteConfig{}, fmt.Errorf("seal site cookie: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sites.SiteConfig{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sites (id, name, base_url, template_type, download_pattern, passkey, authkey, cookie, enabled, rate_limit_rpm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cfg.ID, cfg.Name, cfg.BaseURL, string(cfg.TemplateType), nullIfEmpty(cfg.DownloadPattern),
		nullIfEmpty(sealedPasskey), nullIfEmpty(cfg.Authkey), nullIfEmpty(sealedCookie), cfg.Enabled, cfg.RateLimitRPM)
	if err != nil {
		if isUniqueConstraintError(err) {
			return sites.SiteConfig{}, ErrDuplicateID
		}
		return sites.SiteConfig{}, err
	}

	for _, domain := range cfg.TrackerDomains {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tracker_domains (domain, site_id) VALUES (?, ?)`, domain, cfg.ID); err != nil {
			return sites.SiteConfig{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return sites.SiteConfig{}, err
	}
	return cfg, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *SiteStore) get(ctx context.Context, id string) (sites.SiteConfig, error) {
	var cfg sites.SiteConfig
	var templateType string
	var downloadPattern, sealedPasskey, authkey, sealedCookie sql.NullString
	var rateLimitRPM sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, base_url, template_type, download_pattern, passkey, authkey, cookie, enabled, rate_limit_rpm
		FROM sites WHERE id = ?
	`, id).Scan(&cfg.ID, &cfg.Name, &cfg.BaseURL, &templateType, &downloadPattern,
		&sealedPasskey, &authkey, &sealedCookie, &cfg.Enabled, &rateLimitRPM)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sites.SiteConfig{}, ErrSiteNotFound
		}
		return sites.SiteConfig{}, err
	}

	cfg.TemplateType = sites.TemplateType(templateType)
	cfg.DownloadPattern = downloadPattern.String
	cfg.Authkey = authkey.String
	if rateLimitRPM.Valid {
		n := int(rateLimitRPM.Int64)
		cfg.RateLimitRPM = &n
	}

	if sealedPasskey.Valid {
		plain, err := s.secret.Open(sealedPasskey.String)
		if err != nil {
			return sites.SiteConfig{}, fmt.Errorf("open site passkey: %w", err)
		}
		cfg.Passkey = plain
	}
	if sealedCookie.Valid {
		plain, err := s.secret.Open(sealedCookie.String)
		if err != nil {
			return sites.SiteConfig{}, fmt.Errorf("open site cookie: %w", err)
		}
		cfg.Cookie = plain
	}

	domains, err := s.trackerDomains(ctx, id)
	if err != nil {
		return sites.SiteConfig{}, err
	}
	cfg.TrackerDomains = domains

	return cfg, nil
}

func (s *SiteStore) trackerDomains(ctx context.Context, siteID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain FROM tracker_domains WHERE site_id = ? ORDER BY domain ASC`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (s *SiteStore) Get(ctx context.Context, id string) (sites.SiteConfig, error) {
	return s.get(ctx, id)
}

func (s *SiteStore) List(ctx context.Context) ([]sites.SiteConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sites ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]sites.SiteConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (s *SiteStore) Update(ctx context.Context, cfg sites.SiteConfig) error {
	sealedPasskey, err := s.secret.Seal(cfg.Passkey)
	if err != nil {
		return fmt.Errorf("seal site passkey: %w", err)
	}
	sealedCookie, err := s.secret.Seal(cfg.Cookie)
	if err != nil {
		return fmt.Errorf("seal site cookie: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE sites
		SET name = ?, base_url = ?, template_type = ?, download_pattern = ?, passkey = ?, authkey = ?, cookie = ?,
		    enabled = ?, rate_limit_rpm = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cfg.Name, cfg.BaseURL, string(cfg.TemplateType), nullIfEmpty(cfg.DownloadPattern),
		nullIfEmpty(sealedPasskey), nullIfEmpty(cfg.Authkey), nullIfEmpty(sealedCookie), cfg.Enabled, cfg.RateLimitRPM, cfg.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSiteNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracker_domains WHERE site_id = ?`, cfg.ID); err != nil {
		return err
	}
	for _, domain := range cfg.TrackerDomains {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tracker_domains (domain, site_id) VALUES (?, ?)`, domain, cfg.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSiteNotFound
	}
	return nil
}
