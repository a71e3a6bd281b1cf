// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/internal/database"
	"github.com/seedvault/seedvault/internal/license"
	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/services"
)

type fakeFingerprinter struct {
	mac string
}

func (f fakeFingerprinter) HardwareID() string { return f.mac }
func (f fakeFingerprinter) HasHardwareID(id string) bool {
	return id != "" && id == f.mac
}

func setupTestRouter(t *testing.T, fp license.Fingerprinter) (*services.LicenseService, http.Handler) {
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

	svc := services.NewLicenseService(
		license.NewValidator(store, fp, time.Now),
		license.NewActivator(store, fp, time.Now),
		models.NewActivationLogStore(db.Conn()),
	)

	router := NewRouter(&Dependencies{
		LicenseService: svc,
	})
	return svc, router
}

func TestRouter_Health(t *testing.T) {
	_, router := setupTestRouter(t, fakeFingerprinter{mac: "AA:BB:CC:DD:EE:FF"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_LicenseStatus(t *testing.T) {
	svc, router := setupTestRouter(t, fakeFingerprinter{mac: "AA:BB:CC:DD:EE:FF"})

	// Unlicensed: verdict only, no detail
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/license/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status services.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Valid)
	assert.Empty(t, status.Email)
	assert.Nil(t, status.ExpiresAt)

	require.True(t, svc.Activate(t.Context(), "a@example.com", "AA:BB:CC:DD:EE:FF"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/license/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Valid)
	assert.Equal(t, "a@example.com", status.Email)
	require.NotNil(t, status.ExpiresAt)
}

func TestRouter_LicenseHistory(t *testing.T) {
	svc, router := setupTestRouter(t, fakeFingerprinter{mac: "AA:BB:CC:DD:EE:FF"})

	require.True(t, svc.Activate(t.Context(), "a@example.com", "AA:BB:CC:DD:EE:FF"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/license/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []*models.ActivationEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Succeeded)
}

func TestRouter_LicenseHistoryLimitValidation(t *testing.T) {
	_, router := setupTestRouter(t, fakeFingerprinter{mac: "AA:BB:CC:DD:EE:FF"})

	for _, bad := range []string{"0", "-1", "101", "abc"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/license/history?limit="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", bad)
	}
}
