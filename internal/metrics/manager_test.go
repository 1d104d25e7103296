// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/services/entitlement"
)

type staticStats struct {
	stats *entitlement.Stats
	err   error
}

func (s *staticStats) DashboardStats(_ context.Context, _ time.Time) (*entitlement.Stats, error) {
	return s.stats, s.err
}

func TestNewManager_NilProvider(t *testing.T) {
	manager := NewManager(nil)

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.registry)
	assert.NotNil(t, manager.entitlementCollector)
}

func TestManager_GetRegistry(t *testing.T) {
	manager := NewManager(nil)

	registry := manager.GetRegistry()
	require.NotNil(t, registry)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	foundGoMetrics := false
	for _, mf := range metricFamilies {
		if strings.HasPrefix(mf.GetName(), "go_") {
			foundGoMetrics = true
		}
	}
	assert.True(t, foundGoMetrics, "Go runtime metrics should be registered")
}

func TestManager_RegistryIsolation(t *testing.T) {
	manager1 := NewManager(nil)
	manager2 := NewManager(nil)

	assert.NotSame(t, manager1.registry, manager2.registry)
	assert.NotSame(t, manager1.entitlementCollector, manager2.entitlementCollector)
}

func TestEntitlementCollector_ExportsStats(t *testing.T) {
	provider := &staticStats{
		stats: &entitlement.Stats{
			TotalClients:   12,
			ActiveLicenses: 34,
			OpenTickets:    5,
			MonthlyRevenue: 1234.56,
		},
	}

	manager := NewManager(provider)

	expected := strings.NewReader(`# HELP clientdesk_clients_total Total number of registered clients
# TYPE clientdesk_clients_total gauge
clientdesk_clients_total 12
# HELP clientdesk_licenses_active Number of licenses currently in active status
# TYPE clientdesk_licenses_active gauge
clientdesk_licenses_active 34
# HELP clientdesk_monthly_revenue Sum of completed transaction amounts for the current calendar month
# TYPE clientdesk_monthly_revenue gauge
clientdesk_monthly_revenue 1234.56
# HELP clientdesk_tickets_open Number of open support tickets
# TYPE clientdesk_tickets_open gauge
clientdesk_tickets_open 5
`)

	err := testutil.GatherAndCompare(manager.GetRegistry(), expected,
		"clientdesk_clients_total",
		"clientdesk_licenses_active",
		"clientdesk_tickets_open",
		"clientdesk_monthly_revenue",
	)
	require.NoError(t, err)
}

func TestEntitlementCollector_ProviderErrorSkipsMetrics(t *testing.T) {
	provider := &staticStats{err: assert.AnError}

	collector := NewEntitlementCollector(provider)

	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}
