// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/services/entitlement"
)

// StatsProvider yields the aggregate figures exported on /metrics.
type StatsProvider interface {
	DashboardStats(ctx context.Context, now time.Time) (*entitlement.Stats, error)
}

type EntitlementCollector struct {
	stats StatsProvider

	clientsTotalDesc   *prometheus.Desc
	activeLicensesDesc *prometheus.Desc
	openTicketsDesc    *prometheus.Desc
	monthlyRevenueDesc *prometheus.Desc
}

func NewEntitlementCollector(stats StatsProvider) *EntitlementCollector {
	return &EntitlementCollector{
		stats: stats,

		clientsTotalDesc: prometheus.NewDesc(
			"clientdesk_clients_total",
			"Total number of registered clients",
			nil,
			nil,
		),
		activeLicensesDesc: prometheus.NewDesc(
			"clientdesk_licenses_active",
			"Number of licenses currently in active status",
			nil,
			nil,
		),
		openTicketsDesc: prometheus.NewDesc(
			"clientdesk_tickets_open",
			"Number of open support tickets",
			nil,
			nil,
		),
		monthlyRevenueDesc: prometheus.NewDesc(
			"clientdesk_monthly_revenue",
			"Sum of completed transaction amounts for the current calendar month",
			nil,
			nil,
		),
	}
}

func (c *EntitlementCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.clientsTotalDesc
	ch <- c.activeLicensesDesc
	ch <- c.openTicketsDesc
	ch <- c.monthlyRevenueDesc
}

func (c *EntitlementCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stats == nil {
		log.Debug().Msg("Stats provider is nil, skipping metrics collection")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := c.stats.DashboardStats(ctx, time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to gather stats for metrics")
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.clientsTotalDesc,
		prometheus.GaugeValue,
		float64(stats.TotalClients),
	)
	ch <- prometheus.MustNewConstMetric(
		c.activeLicensesDesc,
		prometheus.GaugeValue,
		float64(stats.ActiveLicenses),
	)
	ch <- prometheus.MustNewConstMetric(
		c.openTicketsDesc,
		prometheus.GaugeValue,
		float64(stats.OpenTickets),
	)
	ch <- prometheus.MustNewConstMetric(
		c.monthlyRevenueDesc,
		prometheus.GaugeValue,
		stats.MonthlyRevenue,
	)
}
