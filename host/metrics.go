// Copyright 2026 Blink Labs Software
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

package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type hostMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	deploysTotal *prometheus.CounterVec
}

func (h *Host) initMetrics() {
	promautoFactory := promauto.With(h.promRegistry)
	h.metrics = &hostMetrics{
		callsTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geode_host_calls_total",
				Help: "host calls by method and result",
			},
			[]string{"method", "result"},
		),
		callDuration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geode_host_call_duration_seconds",
				Help:    "host call latency including commit",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		deploysTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geode_host_deploys_total",
				Help: "deployments by code name",
			},
			[]string{"code"},
		),
	}
}
