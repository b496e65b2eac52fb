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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/geode/api"
	"github.com/blinklabs-io/geode/controller"
	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/event"
	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/proxy"
	"github.com/blinklabs-io/geode/registry"
)

// Node hosts a single upgradeable registry: the storage, the execution host,
// the event bus and the optional REST API and NATS relay around it
type Node struct {
	config        Config
	db            *database.Database
	eventBus      *event.EventBus
	host          *host.Host
	apiServer     *api.Server
	deployment    *database.Deployment
	registry      *controller.Client
	proxy         *proxy.Client
	runCancel     context.CancelFunc
	shutdownFuncs []func(context.Context) error
	ready         chan struct{}
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.proxyAdmin == registry.ZeroIdentity {
		cfg.proxyAdmin = cfg.owner
	}
	n := &Node{
		config: cfg,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	return n, nil
}

// Run opens storage, bootstraps the registry if needed and serves until ctx
// is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	n.runCancel = cancel
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(
		&database.Config{
			Logger:         n.config.logger,
			PromRegistry:   n.config.promRegistry,
			BlobPlugin:     n.config.blobPlugin,
			MetadataPlugin: n.config.metadataPlugin,
			DataDir:        n.config.dataDir,
		},
	)
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return err
		}
		if db != nil {
			_ = db.Close()
		}
		n.config.logger.Error(
			"storage is inconsistent, a previous commit was interrupted",
			"component", "node",
			"data_dir", n.config.dataDir,
		)
		return err
	}
	n.db = db
	// Load event bus
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	if n.config.natsUrl != "" {
		if err := n.setupNatsRelay(); err != nil {
			return err
		}
	}
	// Set up execution host with all known code
	n.host, err = host.New(
		n.db,
		host.WithLogger(n.config.logger),
		host.WithPromRegistry(n.config.promRegistry),
		host.WithEventBus(n.eventBus),
		host.WithCode(
			controller.NewV1(
				controller.WithKillOnReset(n.config.killOnReset),
				controller.WithRegistrationPolicy(n.config.registrationPolicy),
			),
			controller.NewV2(
				controller.WithKillOnReset(n.config.killOnReset),
				controller.WithRegistrationPolicy(n.config.registrationPolicy),
			),
			proxy.New(),
		),
	)
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}
	if err := n.bootstrap(runCtx); err != nil {
		return fmt.Errorf("bootstrap registry: %w", err)
	}
	// Configure REST API
	if n.config.apiListenAddress != "" {
		n.apiServer = api.New(
			api.Config{
				ListenAddress:   n.config.apiListenAddress,
				ShutdownTimeout: n.config.shutdownTimeout,
			},
			n.registry,
			n.proxy,
			n.config.logger,
		)
		if err := n.apiServer.Start(runCtx); err != nil {
			return fmt.Errorf("start API server: %w", err)
		}
	}
	n.config.logger.Info(
		"registry ready",
		"component", "node",
		"proxy", n.deployment.Proxy.String(),
		"implementation", n.deployment.Implementation.String(),
	)
	close(n.ready)
	// Wait for shutdown signal
	select {
	case <-runCtx.Done():
	case <-n.done:
	}
	return nil
}

func (n *Node) setupNatsRelay() error {
	conn, err := event.ConnectNats(n.config.natsUrl, n.config.logger)
	if err != nil {
		return err
	}
	relay := event.NewNatsRelay(
		conn,
		n.config.natsSubjectPrefix,
		n.config.logger,
	)
	eventTypes := make([]event.EventType, 0, len(registry.AllEventTypes))
	for _, eventType := range registry.AllEventTypes {
		eventTypes = append(eventTypes, event.EventType(eventType))
	}
	n.eventBus.RegisterNatsRelay(relay, eventTypes...)
	n.shutdownFuncs = append(
		n.shutdownFuncs,
		func(context.Context) error {
			return conn.Drain()
		},
	)
	return nil
}

// Ready is closed once the registry is bootstrapped and the API is listening
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Registry returns a client for the registry behind the proxy
func (n *Node) Registry() *controller.Client {
	return n.registry
}

// Proxy returns a client for the proxy management methods
func (n *Node) Proxy() *proxy.Client {
	return n.proxy
}

func (n *Node) Host() *host.Host {
	return n.host
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Deployment returns the addresses created when the registry was bootstrapped
func (n *Node) Deployment() database.Deployment {
	if n.deployment == nil {
		return database.Deployment{}
	}
	return *n.deployment
}

// APIServer returns the REST API server, or nil when it is disabled
func (n *Node) APIServer() *api.Server {
	return n.apiServer
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new calls
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.apiServer != nil {
		if stopErr := n.apiServer.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.runCancel != nil {
		n.runCancel()
	}

	// Phase 2: Flush relayed events and close storage
	n.config.logger.Debug("shutdown phase 2: flushing state")

	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 3: Cleanup resources
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
