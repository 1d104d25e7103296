// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Manager struct {
	registry             *prometheus.Registry
	entitlementCollector *EntitlementCollector
}

func NewManager(stats StatsProvider) *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	entitlementCollector := NewEntitlementCollector(stats)
	registry.MustRegister(entitlementCollector)

	log.Info().Msg("Metrics manager initialized with entitlement collector")

	return &Manager{
		registry:             registry,
		entitlementCollector: entitlementCollector,
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}
