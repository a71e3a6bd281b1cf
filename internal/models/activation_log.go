// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNoActivations = errors.New("no activation attempts recorded")

// ActivationEntry is one row of the local activation audit trail. It records
// that an attempt happened and how it ended; the license itself lives in the
// split store, not here.
type ActivationEntry struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	HardwareID   string    `json:"hardwareId"`
	ActivationID string    `json:"activationId"`
	Succeeded    bool      `json:"succeeded"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ActivationLogStore struct {
	db *sql.DB
}

func NewActivationLogStore(db *sql.DB) *ActivationLogStore {
	return &ActivationLogStore{db: db}
}

func (s *ActivationLogStore) Record(ctx context.Context, entry ActivationEntry) (*ActivationEntry, error) {
	query := `
		INSERT INTO activation_log (email, hardware_id, activation_id, succeeded)
		VALUES (?, ?, ?, ?)
		RETURNING id, email, hardware_id, activation_id, succeeded, created_at
	`

	row := &ActivationEntry{}
	err := s.db.QueryRowContext(ctx, query,
		entry.Email,
		entry.HardwareID,
		entry.ActivationID,
		entry.Succeeded,
	).Scan(
		&row.ID,
		&row.Email,
		&row.HardwareID,
		&row.ActivationID,
		&row.Succeeded,
		&row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return row, nil
}

// Latest returns the most recent activation attempt.
func (s *ActivationLogStore) Latest(ctx context.Context) (*ActivationEntry, error) {
	query := `
		SELECT id, email, hardware_id, activation_id, succeeded, created_at
		FROM activation_log
		ORDER BY id DESC
		LIMIT 1
	`

	entry := &ActivationEntry{}
	err := s.db.QueryRowContext(ctx, query).Scan(
		&entry.ID,
		&entry.Email,
		&entry.HardwareID,
		&entry.ActivationID,
		&entry.Succeeded,
		&entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNoActivations
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// List returns attempts newest first, up to limit.
func (s *ActivationLogStore) List(ctx context.Context, limit int) ([]*ActivationEntry, error) {
	query := `
		SELECT id, email, hardware_id, activation_id, succeeded, created_at
		FROM activation_log
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ActivationEntry
	for rows.Next() {
		entry := &ActivationEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Email,
			&entry.HardwareID,
			&entry.ActivationID,
			&entry.Succeeded,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Counts returns total and successful attempt counts.
func (s *ActivationLogStore) Counts(ctx context.Context) (total, succeeded int, err error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(succeeded), 0)
		FROM activation_log
	`

	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &succeeded); err != nil {
		return 0, 0, err
	}
	return total, succeeded, nil
}
