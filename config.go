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

package geode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/geode/controller"
	"github.com/blinklabs-io/geode/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// Implementation versions the node can deploy behind the proxy
const (
	ImplementationV1     = "v1"
	ImplementationV2     = "v2"
	ImplementationLatest = ImplementationV2
)

var implementationCodeNames = map[string]string{
	ImplementationV1: controller.CodeNameV1,
	ImplementationV2: controller.CodeNameV2,
}

type Config struct {
	promRegistry       prometheus.Registerer
	logger             *slog.Logger
	dataDir            string
	blobPlugin         string
	metadataPlugin     string
	implementation     string
	registrationPolicy controller.RegistrationPolicy
	apiListenAddress   string
	natsUrl            string
	natsSubjectPrefix  string
	owner              registry.Identity
	proxyAdmin         registry.Identity
	killOnReset        bool
	autoUpgrade        bool
	tracing            bool
	tracingStdout      bool
	shutdownTimeout    time.Duration
}

type ConfigOptionFunc func(*Config)

// NewConfig creates a new geode config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		implementation:     ImplementationLatest,
		registrationPolicy: controller.RegistrationOpen,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

func (c *Config) validate() error {
	if c.owner == registry.ZeroIdentity {
		return errors.New("registry owner must be set")
	}
	if _, ok := implementationCodeNames[c.implementation]; !ok {
		return fmt.Errorf("unknown implementation: %s", c.implementation)
	}
	switch c.registrationPolicy {
	case controller.RegistrationOpen, controller.RegistrationTrusted:
	default:
		return fmt.Errorf(
			"unknown registration policy: %s",
			c.registrationPolicy,
		)
	}
	return nil
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithOwner specifies the identity that initializes and owns the registry
func WithOwner(owner registry.Identity) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithProxyAdmin specifies the identity allowed to upgrade the proxy. It
// defaults to the owner.
func WithProxyAdmin(proxyAdmin registry.Identity) ConfigOptionFunc {
	return func(c *Config) {
		c.proxyAdmin = proxyAdmin
	}
}

// WithImplementation specifies the implementation version deployed when the
// registry is first bootstrapped
func WithImplementation(implementation string) ConfigOptionFunc {
	return func(c *Config) {
		c.implementation = implementation
	}
}

// WithAutoUpgrade makes the node upgrade an existing proxy to the latest
// implementation on startup, acting as the configured proxy admin
func WithAutoUpgrade(autoUpgrade bool) ConfigOptionFunc {
	return func(c *Config) {
		c.autoUpgrade = autoUpgrade
	}
}

func WithRegistrationPolicy(
	policy controller.RegistrationPolicy,
) ConfigOptionFunc {
	return func(c *Config) {
		c.registrationPolicy = policy
	}
}

// WithKillOnReset makes resetApp also fire the kill switch
func WithKillOnReset(killOnReset bool) ConfigOptionFunc {
	return func(c *Config) {
		c.killOnReset = killOnReset
	}
}

// WithApiListenAddress specifies the listen address for the REST API. An empty value disables it
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithNatsUrl enables relaying registry events to the NATS server at url
func WithNatsUrl(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.natsUrl = url
	}
}

func WithNatsSubjectPrefix(prefix string) ConfigOptionFunc {
	return func(c *Config) {
		c.natsSubjectPrefix = prefix
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector at localhost:4318
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
