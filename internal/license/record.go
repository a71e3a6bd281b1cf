// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import (
	"encoding/json"
	"time"
)

// LicenseDuration is how long a freshly activated license lasts.
const LicenseDuration = 30 * 24 * time.Hour

// Record is the node-locked license as it exists on disk. HardwareID binds
// the record to one machine, ActivationID ties the encrypted blob to the
// anchor token in the deployment tree.
type Record struct {
	Email        string    `json:"email"`
	HardwareID   string    `json:"mac"`
	ActivationID string    `json:"uuid"`
	IssuedAt     time.Time `json:"issued"`
	ExpiresAt    time.Time `json:"expires"`
}

// IsEmpty reports whether the record should be treated as absent. A record
// missing any of its identity fields never validates, regardless of the
// timestamps it carries.
func (r Record) IsEmpty() bool {
	return r.Email == "" || r.HardwareID == "" || r.ActivationID == ""
}

func (r Record) marshal() string {
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(b)
}

// parseRecord decodes the JSON serialization of a record. Garbage input
// yields an empty record, not an error; the validator treats both the same.
func parseRecord(s string) Record {
	var r Record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Record{}
	}
	return r
}
