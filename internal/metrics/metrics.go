// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics is a thin, read-only Prometheus instrumentation layer
// (github.com/prometheus/client_golang, the teacher's own metrics
// dependency) for the Cache Manager, Sync/Lister, and Request Queue
// Worker. It never gates correctness: every method is safe to call on a
// nil *Metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters/gauges the core updates as it runs.
type Metrics struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	RequestQueueSize prometheus.Gauge
	SyncRounds       prometheus.Counter
}

// New registers and returns a Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "drivefuse", Subsystem: "cache", Name: "hits_total",
			Help: "Number of Cache Manager lookups served without a download.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "drivefuse", Subsystem: "cache", Name: "misses_total",
			Help: "Number of Cache Manager lookups that triggered a download.",
		}),
		RequestQueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "drivefuse", Subsystem: "queue", Name: "depth",
			Help: "Current number of pending request_queue rows.",
		}),
		SyncRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "drivefuse", Subsystem: "sync", Name: "rounds_total",
			Help: "Number of ingestion passes (each a full fixed-point insertion) run by the Sync/Lister.",
		}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.RequestQueueSize, m.SyncRounds)
	return m
}

func (m *Metrics) recordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) recordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// RecordCache increments the hit or miss counter.
func (m *Metrics) RecordCache(hit bool) {
	if hit {
		m.recordCacheHit()
		return
	}
	m.recordCacheMiss()
}

// SetQueueDepth updates the queue-depth gauge.
func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.RequestQueueSize.Set(float64(n))
	}
}

// RecordSyncRound increments the sync-round counter.
func (m *Metrics) RecordSyncRound() {
	if m != nil {
		m.SyncRounds.Inc()
	}
}
