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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/event"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/geode/host"

// Host executes calls against deployed code. Every entry point is
// serialized and runs inside a single database transaction, so a call either
// applies all of its writes or none of them.
type Host struct {
	mu             sync.Mutex
	db             *database.Database
	codes          map[string]Code
	pendingCodes   []Code
	logger         *slog.Logger
	eventBus       *event.EventBus
	promRegistry   prometheus.Registerer
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	metrics        *hostMetrics
}

// New creates a host over an open database
func New(db *database.Database, opts ...HostOptionFunc) (*Host, error) {
	h := &Host{
		db:    db,
		codes: make(map[string]Code),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		h.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if h.tracerProvider == nil {
		h.tracerProvider = otel.GetTracerProvider()
	}
	h.tracer = h.tracerProvider.Tracer(tracerName)
	if h.promRegistry != nil {
		h.initMetrics()
	}
	for _, code := range h.pendingCodes {
		if err := h.Register(code); err != nil {
			return nil, err
		}
	}
	h.pendingCodes = nil
	return h, nil
}

// Register makes code available for deployment
func (h *Host) Register(code Code) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.codes[code.Name()]; ok {
		return fmt.Errorf("code %q already registered", code.Name())
	}
	h.codes[code.Name()] = code
	return nil
}

func (h *Host) codeAt(txn *database.Txn, address registry.Identity) (Code, error) {
	name, err := txn.Code(address)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%s: %w", address, registry.ErrNoCode)
	}
	code, ok := h.codes[name]
	if !ok {
		return nil, fmt.Errorf(
			"%s: code %q is not registered: %w",
			address,
			name,
			registry.ErrNoCode,
		)
	}
	return code, nil
}

// CodeAt returns the name of the code deployed at an address
func (h *Host) CodeAt(ctx context.Context, address registry.Identity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	txn := h.db.Transaction(false)
	defer txn.Release()
	code, err := h.codeAt(txn, address)
	if err != nil {
		return "", err
	}
	return code.Name(), nil
}

// Deploy creates a new address running the named code. The address is
// derived from the deployer and its deployment count.
func (h *Host) Deploy(
	ctx context.Context,
	deployer registry.Identity,
	codeName string,
	args []byte,
) (registry.Identity, error) {
	var address registry.Identity
	err := h.run(ctx, "deploy", false, func(ctx context.Context, txn *database.Txn, events *[]event.Event) error {
		code, ok := h.codes[codeName]
		if !ok {
			return fmt.Errorf("code %q is not registered: %w", codeName, registry.ErrNoCode)
		}
		nonce, err := txn.Nonce(deployer)
		if err != nil {
			return err
		}
		address = crypto.CreateAddress(deployer, nonce)
		if err := txn.SetNonce(deployer, nonce+1); err != nil {
			return err
		}
		if err := txn.SetCode(address, codeName); err != nil {
			return err
		}
		if ctor, ok := code.(Constructor); ok {
			env := &Env{
				Ctx:    ctx,
				Caller: deployer,
				Self:   address,
				host:   h,
				txn:    txn,
				events: events,
			}
			if err := ctor.Construct(env, args); err != nil {
				return fmt.Errorf("construct %s: %w", codeName, err)
			}
		}
		*events = append(*events, event.NewEvent(
			registry.EventTypeDeployed,
			registry.DeployedEvent{
				Address:  address,
				Code:     codeName,
				Deployer: deployer,
			},
		))
		return nil
	})
	if err != nil {
		return registry.ZeroIdentity, err
	}
	if h.metrics != nil {
		h.metrics.deploysTotal.WithLabelValues(codeName).Inc()
	}
	h.logger.Info(
		fmt.Sprintf("deployed %s at %s", codeName, address),
		"component", "host",
		"deployer", deployer,
	)
	return address, nil
}

// Call invokes a method of the code at target with caller as the sender.
// Events emitted by the call are published after it commits.
func (h *Host) Call(
	ctx context.Context,
	caller registry.Identity,
	target registry.Identity,
	method string,
	args []byte,
) ([]byte, error) {
	return h.invoke(ctx, caller, target, method, args, false)
}

// View invokes a method in a read-only transaction. Any write fails.
func (h *Host) View(
	ctx context.Context,
	caller registry.Identity,
	target registry.Identity,
	method string,
	args []byte,
) ([]byte, error) {
	return h.invoke(ctx, caller, target, method, args, true)
}

func (h *Host) invoke(
	ctx context.Context,
	caller registry.Identity,
	target registry.Identity,
	method string,
	args []byte,
	readOnly bool,
) ([]byte, error) {
	var ret []byte
	err := h.run(ctx, method, readOnly, func(ctx context.Context, txn *database.Txn, events *[]event.Event) error {
		code, err := h.codeAt(txn, target)
		if err != nil {
			return err
		}
		env := &Env{
			Ctx:    ctx,
			Caller: caller,
			Self:   target,
			host:   h,
			txn:    txn,
			events: events,
		}
		ret, err = code.Call(env, method, args)
		return err
	})
	if err != nil {
		h.logger.Debug(
			fmt.Sprintf("call %s failed: %s", method, err),
			"component", "host",
			"caller", caller,
			"target", target,
		)
		return nil, err
	}
	return ret, nil
}

// run executes fn in a serialized transaction and publishes the collected
// events once the transaction commits
func (h *Host) run(
	ctx context.Context,
	method string,
	readOnly bool,
	fn func(context.Context, *database.Txn, *[]event.Event) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := h.tracer.Start(
		ctx,
		"host."+method,
		trace.WithAttributes(
			attribute.String("geode.method", method),
			attribute.Bool("geode.read_only", readOnly),
		),
	)
	defer span.End()
	start := time.Now()

	var events []event.Event
	body := func(txn *database.Txn) error {
		return fn(ctx, txn, &events)
	}
	err := func() error {
		h.mu.Lock()
		defer h.mu.Unlock()
		if readOnly {
			return h.db.View(body)
		}
		return h.db.Update(body)
	}()

	if h.metrics != nil {
		h.metrics.callDuration.WithLabelValues(method).
			Observe(time.Since(start).Seconds())
		h.metrics.callsTotal.WithLabelValues(method, callResult(err)).Inc()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !readOnly && h.eventBus != nil {
		for _, evt := range events {
			h.eventBus.Publish(evt.Type, evt)
		}
	}
	return nil
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, registry.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, registry.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
