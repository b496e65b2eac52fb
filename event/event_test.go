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

package event_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/geode/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusSingleSubscriber(t *testing.T) {
	testEvtData := 999
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		assert.Equal(t, testEvtData, evt.Data)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	select {
	case _, ok := <-subCh:
		require.False(t, ok, "received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusPublishAsync(t *testing.T) {
	var testEvtType event.EventType = "test.async"
	eb := event.NewEventBus(nil, nil)
	done := make(chan event.Event, 1)
	eb.SubscribeFunc(testEvtType, func(evt event.Event) { done <- evt })
	require.True(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, "x")))
	select {
	case evt := <-done:
		assert.Equal(t, "x", evt.Data)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for async event")
	}
	eb.Stop()
	assert.False(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, "y")))
}

func TestEventBusStopClosesSubscribers(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(testEvtType)
	eb.Stop()
	select {
	case _, ok := <-subCh:
		require.False(t, ok)
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed by Stop")
	}
	// Stop is idempotent
	eb.Stop()
}

type failingSubscriber struct {
	closed bool
}

func (f *failingSubscriber) Deliver(event.Event) error { return errors.New("boom") }
func (f *failingSubscriber) Close()                    { f.closed = true }

func TestEventBusDropsFailingSubscriber(t *testing.T) {
	var testEvtType event.EventType = "test.fail"
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	sub := &failingSubscriber{}
	eb.RegisterSubscriber(testEvtType, sub)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, nil))
	assert.True(t, sub.closed)
	// Second publish does not reach the removed subscriber
	eb.Publish(testEvtType, event.NewEvent(testEvtType, nil))
	count, err := testutil.GatherAndCount(reg, "geode_event_delivery_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestNatsRelay(t *testing.T) {
	pub := &recordingPublisher{}
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	relay := event.NewNatsRelay(pub, "governance.", nil)
	ids := eb.RegisterNatsRelay(relay, "registry.reset", "registry.kill_switch")
	require.Len(t, ids, 2)

	eb.Publish(
		"registry.reset",
		event.NewEvent("registry.reset", map[string]uint64{"workspaceCounter": 1 << 20}),
	)
	eb.Publish("registry.other", event.NewEvent("registry.other", nil))

	require.Equal(t, []string{"governance.registry.reset"}, pub.subjects)
	var msg struct {
		Type string            `json:"type"`
		Data map[string]uint64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "registry.reset", msg.Type)
	assert.Equal(t, uint64(1<<20), msg.Data["workspaceCounter"])
}

func TestNatsRelayDefaultPrefix(t *testing.T) {
	relay := event.NewNatsRelay(&recordingPublisher{}, "", nil)
	assert.Equal(t, "geode.registry.upgraded", relay.Subject("registry.upgraded"))
}
