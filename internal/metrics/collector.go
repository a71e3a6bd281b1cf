// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/services"
)

type LicenseCollector struct {
	licenseService *services.LicenseService
	auditLog       *models.ActivationLogStore

	licenseValidDesc         *prometheus.Desc
	licenseExpirySecondsDesc *prometheus.Desc
	activationAttemptsDesc   *prometheus.Desc
	activationSuccessesDesc  *prometheus.Desc
	scrapeErrorsDesc         *prometheus.Desc
}

func NewLicenseCollector(licenseService *services.LicenseService, auditLog *models.ActivationLogStore) *LicenseCollector {
	return &LicenseCollector{
		licenseService: licenseService,
		auditLog:       auditLog,

		licenseValidDesc: prometheus.NewDesc(
			"seedvault_license_valid",
			"Whether this machine currently holds a valid license (1=valid, 0=invalid)",
			nil,
			nil,
		),
		licenseExpirySecondsDesc: prometheus.NewDesc(
			"seedvault_license_expiry_seconds",
			"Seconds until the current license expires",
			nil,
			nil,
		),
		activationAttemptsDesc: prometheus.NewDesc(
			"seedvault_license_activation_attempts_total",
			"Total number of recorded activation attempts",
			nil,
			nil,
		),
		activationSuccessesDesc: prometheus.NewDesc(
			"seedvault_license_activation_successes_total",
			"Total number of successful activations",
			nil,
			nil,
		),
		scrapeErrorsDesc: prometheus.NewDesc(
			"seedvault_license_scrape_errors_total",
			"Total number of scrape errors by type",
			[]string{"type"},
			nil,
		),
	}
}

func (c *LicenseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.licenseValidDesc
	ch <- c.licenseExpirySecondsDesc
	ch <- c.activationAttemptsDesc
	ch <- c.activationSuccessesDesc
	ch <- c.scrapeErrorsDesc
}

func (c *LicenseCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.licenseService == nil {
		log.Debug().Msg("License service is nil, skipping metrics collection")
		return
	}

	status := c.licenseService.Status()

	valid := 0.0
	if status.Valid {
		valid = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.licenseValidDesc, prometheus.GaugeValue, valid)

	if status.Valid && status.ExpiresAt != nil {
		remaining := time.Until(*status.ExpiresAt).Seconds()
		ch <- prometheus.MustNewConstMetric(c.licenseExpirySecondsDesc, prometheus.GaugeValue, remaining)
	}

	if c.auditLog == nil {
		return
	}

	total, succeeded, err := c.auditLog.Counts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read activation counts for metrics")
		ch <- prometheus.MustNewConstMetric(c.scrapeErrorsDesc, prometheus.CounterValue, 1, "activation_counts")
		return
	}

	ch <- prometheus.MustNewConstMetric(c.activationAttemptsDesc, prometheus.CounterValue, float64(total))
	ch <- prometheus.MustNewConstMetric(c.activationSuccessesDesc, prometheus.CounterValue, float64(succeeded))
}
