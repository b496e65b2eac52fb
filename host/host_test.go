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

package host_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/event"
	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDeployer = common.HexToAddress("0x00000000000000000000000000000000000000d1")

const testEventType = "test.bumped"

// counterCode keeps a single counter in the workspace counter slot
type counterCode struct{}

func (counterCode) Name() string          { return "test/counter" }
func (counterCode) SchemaVersion() uint64 { return 1 }

func (counterCode) Construct(env *host.Env, args []byte) error {
	var start uint64
	if err := host.DecodeArgs(args, &start); err != nil {
		return err
	}
	return env.Storage().SetUint(registry.SlotWorkspaceCounter, start)
}

func (c counterCode) Call(env *host.Env, method string, args []byte) ([]byte, error) {
	s := env.Storage()
	switch method {
	case "get":
		v, err := s.Uint(registry.SlotWorkspaceCounter)
		if err != nil {
			return nil, err
		}
		return host.EncodeArgs(v)
	case "bump":
		v, err := s.Uint(registry.SlotWorkspaceCounter)
		if err != nil {
			return nil, err
		}
		if err := s.SetUint(registry.SlotWorkspaceCounter, v+1); err != nil {
			return nil, err
		}
		env.Emit(testEventType, v+1)
		return host.EncodeArgs(v + 1)
	case "bumpThenFail":
		if _, err := c.Call(env, "bump", nil); err != nil {
			return nil, err
		}
		return nil, registry.ErrUnauthorized
	case "forward":
		var target common.Address
		if err := host.DecodeArgs(args, &target); err != nil {
			return nil, err
		}
		return env.Delegate(target, "bump", nil)
	case "bumpThenPanic":
		if _, err := c.Call(env, "bump", nil); err != nil {
			return nil, err
		}
		panic("counter exploded")
	case "loop":
		return env.Delegate(env.Self, "loop", nil)
	}
	return nil, registry.ErrUnknownMethod
}

type testHost struct {
	*host.Host
	bus *event.EventBus
	reg *prometheus.Registry
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	reg := prometheus.NewRegistry()
	h, err := host.New(
		db,
		host.WithEventBus(bus),
		host.WithPromRegistry(reg),
		host.WithCode(counterCode{}),
	)
	require.NoError(t, err)
	return &testHost{Host: h, bus: bus, reg: reg}
}

func mustArgs(t *testing.T, v any) []byte {
	t.Helper()
	data, err := host.EncodeArgs(v)
	require.NoError(t, err)
	return data
}

func (h *testHost) get(t *testing.T, addr common.Address) uint64 {
	t.Helper()
	ret, err := h.View(context.Background(), testDeployer, addr, "get", nil)
	require.NoError(t, err)
	var v uint64
	require.NoError(t, host.DecodeResult(ret, &v))
	return v
}

func TestDeployAddressesAreDeterministic(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	addr1, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(5)))
	require.NoError(t, err)
	addr2, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(9)))
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(testDeployer, 0), addr1)
	assert.Equal(t, crypto.CreateAddress(testDeployer, 1), addr2)
	assert.Equal(t, uint64(5), h.get(t, addr1))
	assert.Equal(t, uint64(9), h.get(t, addr2))

	name, err := h.CodeAt(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, "test/counter", name)

	_, err = h.Deploy(ctx, testDeployer, "missing", nil)
	require.ErrorIs(t, err, registry.ErrNoCode)
}

func TestCallCommitsAndPublishes(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	addr, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(0)))
	require.NoError(t, err)
	_, evtCh := h.bus.Subscribe(testEventType)

	_, err = h.Call(ctx, testDeployer, addr, "bump", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.get(t, addr))
	select {
	case evt := <-evtCh:
		assert.Equal(t, uint64(1), evt.Data)
	case <-time.After(time.Second):
		t.Fatal("no event published after commit")
	}
	count, err := testutil.GatherAndCount(h.reg, "geode_host_calls_total")
	require.NoError(t, err)
	assert.Positive(t, count)
	count, err = testutil.GatherAndCount(h.reg, "geode_host_deploys_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFailedCallRollsBackAndPublishesNothing(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	addr, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(3)))
	require.NoError(t, err)
	_, evtCh := h.bus.Subscribe(testEventType)

	_, err = h.Call(ctx, testDeployer, addr, "bumpThenFail", nil)
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	assert.Equal(t, uint64(3), h.get(t, addr))
	select {
	case <-evtCh:
		t.Fatal("event published for rolled back call")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPanicReleasesHost(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	addr, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(3)))
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = h.Call(ctx, testDeployer, addr, "bumpThenPanic", nil)
	})
	// The write was rolled back and the host still serves calls
	assert.Equal(t, uint64(3), h.get(t, addr))
	_, err = h.Call(ctx, testDeployer, addr, "bump", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), h.get(t, addr))
}

func TestViewRejectsWrites(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	addr, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(0)))
	require.NoError(t, err)
	_, err = h.View(ctx, testDeployer, addr, "bump", nil)
	require.Error(t, err)
	assert.Equal(t, uint64(0), h.get(t, addr))
}

func TestCallErrors(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	addr, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(0)))
	require.NoError(t, err)

	_, err = h.Call(ctx, testDeployer, common.Address{0x42}, "get", nil)
	require.ErrorIs(t, err, registry.ErrNoCode)

	_, err = h.Call(ctx, testDeployer, addr, "nope", nil)
	require.ErrorIs(t, err, registry.ErrUnknownMethod)

	_, err = h.Call(ctx, testDeployer, addr, "loop", nil)
	require.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = h.Call(cancelled, testDeployer, addr, "bump", nil)
	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(0), h.get(t, addr))
}

func TestDelegateRunsAgainstCallerStorage(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	front, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(10)))
	require.NoError(t, err)
	back, err := h.Deploy(ctx, testDeployer, "test/counter", mustArgs(t, uint64(100)))
	require.NoError(t, err)

	_, err = h.Call(ctx, testDeployer, front, "forward", mustArgs(t, back))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), h.get(t, front))
	assert.Equal(t, uint64(100), h.get(t, back))
}

func TestDecodeArgsRejectsGarbage(t *testing.T) {
	var v uint64
	require.ErrorIs(t, host.DecodeArgs(nil, &v), registry.ErrInvalidArgs)
	require.ErrorIs(t, host.DecodeArgs([]byte{0xff, 0x00}, &v), registry.ErrInvalidArgs)
}
