// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Clock supplies the current time. Production uses time.Now; tests
// substitute a fixed instant.
type Clock func() time.Time

// Validator decides whether this machine holds a valid license. The verdict
// collapses every failure mode (absent, malformed, mismatched, expired) into
// a single false: callers never learn why, only that.
type Validator struct {
	store *Store
	fp    Fingerprinter
	now   Clock
}

func NewValidator(store *Store, fp Fingerprinter, now Clock) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{store: store, fp: fp, now: now}
}

// Valid runs the four checks in order, short-circuiting on the first
// failure: record present, hardware match, anchor match, not expired.
//
// The blob decode key comes from the live machine fingerprint rather than
// anything stored on disk, so a blob copied from another machine normally
// fails at step one as unparseable garbage; the explicit hardware check is
// defense in depth. It also means a machine whose primary NIC changed can
// never decode its own previously valid blob. That asymmetry is deliberate
// observed behavior and is kept as-is.
func (v *Validator) Valid() bool {
	rec := v.store.LoadRecord()
	if rec.IsEmpty() {
		log.Debug().Msg("license check: no readable record")
		return false
	}

	if !v.fp.HasHardwareID(rec.HardwareID) {
		log.Debug().Msg("license check: hardware id not present on this machine")
		return false
	}

	anchor := v.store.ReadAnchor()
	if anchor == "" || anchor != rec.ActivationID {
		log.Debug().Msg("license check: anchor token missing or mismatched")
		return false
	}

	if !rec.ExpiresAt.After(v.now()) {
		log.Debug().Time("expires", rec.ExpiresAt).Msg("license check: expired")
		return false
	}

	log.Debug().Time("expires", rec.ExpiresAt).Msg("license check: valid")
	return true
}

// Current returns the decoded record for status display. Empty when there is
// no readable record; holding it does not imply validity.
func (v *Validator) Current() Record {
	return v.store.LoadRecord()
}
