// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors scraped from
// cgraph run's --metrics-addr endpoint: work-queue depth, batch-flush
// latency, LLM call latency, and retry counts broken down by failure class.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	once sync.Once

	queueDepth prometheus.Gauge

	batchFlushDuration *prometheus.HistogramVec
	llmCallDuration    prometheus.Histogram
	retryTotal         *prometheus.CounterVec
}

var m metrics

func (m *metrics) init() {
	m.once.Do(func() {
		m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cgraph_work_queue_depth",
			Help: "WorkItems pending or being processed.",
		})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.batchFlushDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cgraph_batch_flush_seconds",
			Help:    "Duration of committing a buffered batch to the relational store.",
			Buckets: buckets,
		}, []string{"buffer"})
		m.llmCallDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cgraph_llm_call_seconds",
			Help:    "Duration of a single Provider.Chat call.",
			Buckets: buckets,
		})

		m.retryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cgraph_worker_retries_total",
			Help: "LLM call retries, by failure class.",
		}, []string{"class"})

		prometheus.MustRegister(m.queueDepth, m.batchFlushDuration, m.llmCallDuration, m.retryTotal)
	})
}

// SetQueueDepth records the current count of pending and in-progress
// WorkItems.
func SetQueueDepth(n int) {
	m.init()
	m.queueDepth.Set(float64(n))
}

// ObserveBatchFlush records how long a flush of the named buffer
// ("analysis" or "failed") took to commit.
func ObserveBatchFlush(buffer string, seconds float64) {
	m.init()
	m.batchFlushDuration.WithLabelValues(buffer).Observe(seconds)
}

// ObserveLLMCall records how long a Provider.Chat round-trip took.
func ObserveLLMCall(seconds float64) {
	m.init()
	m.llmCallDuration.Observe(seconds)
}

// IncRetry increments the retry counter for the given failure class.
func IncRetry(class string) {
	m.init()
	m.retryTotal.WithLabelValues(class).Inc()
}
