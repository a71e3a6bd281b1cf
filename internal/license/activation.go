// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Activator issues a fresh license for the current machine and persists it.
type Activator struct {
	store *Store
	fp    Fingerprinter
	now   Clock
	newID func() string
}

func NewActivator(store *Store, fp Fingerprinter, now Clock) *Activator {
	if now == nil {
		now = time.Now
	}
	return &Activator{
		store: store,
		fp:    fp,
		now:   now,
		newID: uuid.NewString,
	}
}

// Activate builds and persists a new 30-day license bound to this machine.
// It overwrites whatever blob and anchor existed before, with no backup.
// False when the machine has no usable hardware id or either write fails.
func (a *Activator) Activate(email string) bool {
	mac := a.fp.HardwareID()
	if mac == "" {
		log.Warn().Msg("activation failed: no hardware id on this machine")
		return false
	}

	id := a.newID()
	if id == "" {
		log.Warn().Msg("activation failed: empty activation id")
		return false
	}

	issued := a.now()
	rec := Record{
		Email:        strings.TrimSpace(email),
		HardwareID:   mac,
		ActivationID: id,
		IssuedAt:     issued,
		ExpiresAt:    issued.Add(LicenseDuration),
	}

	if !a.store.SaveRecord(rec) {
		log.Warn().Msg("activation failed: could not persist license")
		return false
	}

	log.Info().
		Str("activationId", id).
		Time("expires", rec.ExpiresAt).
		Msg("license activated")
	return true
}
