// Copyright 2025 Blink Labs Software
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

package gormstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metadataMetricNamePrefix = "database_metadata_"

type metadataMetrics struct {
	writesTotal *prometheus.CounterVec
}

func (s *Store) registerMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	s.metrics = &metadataMetrics{
		writesTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metadataMetricNamePrefix + "writes_total",
				Help: "Total number of metadata record writes by table",
			},
			[]string{"table"},
		),
	}
}

func (s *Store) recordWrite(table string) {
	if s.metrics == nil {
		return
	}
	s.metrics.writesTotal.WithLabelValues(table).Inc()
}
