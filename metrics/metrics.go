/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics holds the Prometheus collectors shared by the cache layer,
// the pagination engine and the mutation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the catalog core.
type Collector struct {
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	Invalidations *prometheus.CounterVec

	PageReads *prometheus.CounterVec
	Mutations *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg when it is
// not nil. Pass a fresh prometheus.NewRegistry() in tests.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"entity"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"entity"},
		),
		Invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidations_total",
				Help:      "Cache invalidations by result (ok, failed, unsupported)",
			},
			[]string{"result"},
		),
		PageReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_reads_total",
				Help:      "Paginated reads by shape and source (cache, store)",
			},
			[]string{"shape", "source"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Mutations by operation and outcome stage",
			},
			[]string{"operation", "outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(c.CacheHits, c.CacheMisses, c.Invalidations, c.PageReads, c.Mutations)
	}
	return c
}

// Nop returns a collector registered nowhere.
func Nop() *Collector {
	return NewCollector("", nil)
}
