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
	"log/slog"

	"github.com/blinklabs-io/geode/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

type HostOptionFunc func(*Host)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) HostOptionFunc {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) HostOptionFunc {
	return func(h *Host) {
		h.promRegistry = registry
	}
}

// WithEventBus specifies the event bus committed events are published on
func WithEventBus(eventBus *event.EventBus) HostOptionFunc {
	return func(h *Host) {
		h.eventBus = eventBus
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider for call spans
func WithTracerProvider(provider trace.TracerProvider) HostOptionFunc {
	return func(h *Host) {
		h.tracerProvider = provider
	}
}

// WithCode registers code that can be deployed on the host
func WithCode(codes ...Code) HostOptionFunc {
	return func(h *Host) {
		h.pendingCodes = append(h.pendingCodes, codes...)
	}
}
