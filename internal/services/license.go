// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seedvault/seedvault/internal/license"
	"github.com/seedvault/seedvault/internal/models"
)

// LicenseService fronts the licensing core for the rest of the application:
// it runs activations, answers status queries, and keeps the local audit
// trail. The core's fail-closed boolean boundary is preserved; the audit
// trail and logs are side channels, never inputs to the verdict.
type LicenseService struct {
	validator *license.Validator
	activator *license.Activator
	auditLog  *models.ActivationLogStore
}

func NewLicenseService(validator *license.Validator, activator *license.Activator, auditLog *models.ActivationLogStore) *LicenseService {
	return &LicenseService{
		validator: validator,
		activator: activator,
		auditLog:  auditLog,
	}
}

// Status is what the API and CLI report. Detail fields are only populated
// for a valid license; an invalid one reports just the boolean.
type Status struct {
	Valid     bool       `json:"valid"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Valid reports whether this machine currently holds a valid license.
func (s *LicenseService) Valid() bool {
	return s.validator.Valid()
}

// Status returns the validation verdict plus display details when valid.
func (s *LicenseService) Status() Status {
	if !s.validator.Valid() {
		return Status{Valid: false}
	}

	rec := s.validator.Current()
	expires := rec.ExpiresAt
	return Status{
		Valid:     true,
		Email:     rec.Email,
		ExpiresAt: &expires,
	}
}

// Activate runs the activation flow and records the attempt in the audit
// log. Audit failures are logged but do not affect the activation result.
func (s *LicenseService) Activate(ctx context.Context, email, hardwareID string) bool {
	ok := s.activator.Activate(email)

	if s.auditLog != nil {
		entry := models.ActivationEntry{
			Email:      strings.TrimSpace(email),
			HardwareID: hardwareID,
			Succeeded:  ok,
		}
		if ok {
			entry.ActivationID = s.validator.Current().ActivationID
		}
		if _, err := s.auditLog.Record(ctx, entry); err != nil {
			log.Error().Err(err).Msg("Failed to record activation attempt")
		}
	}

	if ok {
		log.Info().Str("email", maskEmail(email)).Msg("License activated")
	} else {
		log.Warn().Str("email", maskEmail(email)).Msg("License activation failed")
	}

	return ok
}

// History returns recent activation attempts, newest first.
func (s *LicenseService) History(ctx context.Context, limit int) ([]*models.ActivationEntry, error) {
	if s.auditLog == nil {
		return nil, nil
	}
	return s.auditLog.List(ctx, limit)
}

// maskEmail hides most of the local part in logs.
func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
