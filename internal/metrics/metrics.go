// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics registers the counters this project exposes on
// /metrics: import outcomes from IndexService and reseed outcomes from
// ReseedService. It owns its own prometheus.Registry rather than using
// the global default, the same isolation qui's metrics manager uses.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Manager holds the registry and counter vectors this project reports.
type Manager struct {
	registry *prometheus.Registry

	importTotal *prometheus.CounterVec
	reseedTotal *prometheus.CounterVec
}

// NewManager constructs a Manager with a fresh registry carrying the Go
// runtime/process collectors plus this project's own counters.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	importTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graft_index_import_total",
		Help: "Torrents processed by IndexService.ImportFromClient, by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(importTotal)

	reseedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graft_reseed_total",
		Help: "Reseed matches processed by ReseedService.Execute, by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(reseedTotal)

	return &Manager{registry: registry, importTotal: importTotal, reseedTotal: reseedTotal}
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordImport increments the per-outcome import counter. outcome is one
// of "imported", "skipped", "unrecognized".
func (m *Manager) RecordImport(outcome string, count int) {
	if count <= 0 {
		return
	}
	m.importTotal.WithLabelValues(outcome).Add(float64(count))
}

// RecordReseed increments the per-outcome reseed counter. outcome is one
// of "success", "failed", "skipped".
func (m *Manager) RecordReseed(outcome string) {
	m.reseedTotal.WithLabelValues(outcome).Inc()
}
