// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/services"
)

type Manager struct {
	registry         *prometheus.Registry
	licenseCollector *LicenseCollector
}

func NewManager(licenseService *services.LicenseService, auditLog *models.ActivationLogStore) *Manager {
	registry := prometheus.NewRegistry()

	licenseCollector := NewLicenseCollector(licenseService, auditLog)
	registry.MustRegister(licenseCollector)

	log.Info().Msg("Metrics manager initialized with license collector")

	return &Manager{
		registry:         registry,
		licenseCollector: licenseCollector,
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}
