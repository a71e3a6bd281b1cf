// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/internal/database"
	"github.com/seedvault/seedvault/internal/license"
	"github.com/seedvault/seedvault/internal/models"
)

type fakeFingerprinter struct {
	macs []string
}

func (f fakeFingerprinter) HardwareID() string {
	if len(f.macs) == 0 {
		return ""
	}
	return f.macs[0]
}

func (f fakeFingerprinter) HasHardwareID(id string) bool {
	for _, m := range f.macs {
		if id != "" && m == id {
			return true
		}
	}
	return false
}

func setupService(t *testing.T, fp license.Fingerprinter) *LicenseService {
	t.Helper()

	dir := t.TempDir()
	store := license.NewStore(
		filepath.Join(dir, license.BlobFileName),
		filepath.Join(dir, "test", "CMakeLists.txt"),
		license.XORCodec{},
		fp,
	)

	db, err := database.New(filepath.Join(dir, "seedvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return NewLicenseService(
		license.NewValidator(store, fp, now),
		license.NewActivator(store, fp, now),
		models.NewActivationLogStore(db.Conn()),
	)
}

func TestLicenseService_ActivateRecordsAudit(t *testing.T) {
	ctx := t.Context()
	fp := fakeFingerprinter{macs: []string{"AA:BB:CC:DD:EE:FF"}}
	svc := setupService(t, fp)

	require.True(t, svc.Activate(ctx, "a@example.com", fp.HardwareID()))
	assert.True(t, svc.Valid())

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Succeeded)
	assert.Equal(t, "a@example.com", history[0].Email)
	assert.Len(t, history[0].ActivationID, 36)
}

func TestLicenseService_FailedActivationIsAudited(t *testing.T) {
	ctx := t.Context()
	fp := fakeFingerprinter{} // no hardware id: activation cannot succeed
	svc := setupService(t, fp)

	assert.False(t, svc.Activate(ctx, "a@example.com", ""))
	assert.False(t, svc.Valid())

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Succeeded)
	assert.Empty(t, history[0].ActivationID)
}

func TestLicenseService_Status(t *testing.T) {
	ctx := t.Context()
	fp := fakeFingerprinter{macs: []string{"AA:BB:CC:DD:EE:FF"}}
	svc := setupService(t, fp)

	// Invalid license reports only the verdict
	status := svc.Status()
	assert.False(t, status.Valid)
	assert.Empty(t, status.Email)
	assert.Nil(t, status.ExpiresAt)

	require.True(t, svc.Activate(ctx, "a@example.com", fp.HardwareID()))

	status = svc.Status()
	assert.True(t, status.Valid)
	assert.Equal(t, "a@example.com", status.Email)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC), status.ExpiresAt.UTC())
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "alice@example.com", want: "a***@example.com"},
		{in: "a@example.com", want: "***"},
		{in: "not-an-email", want: "***"},
		{in: "", want: "***"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, maskEmail(tt.in))
	}
}
