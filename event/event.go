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

package event

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EventQueueSize      = 20
	AsyncQueueSize      = 1000
	AsyncWorkerPoolSize = 4
)

type (
	EventType         string
	EventSubscriberId int
	EventHandlerFunc  func(Event)
)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

type asyncEvent struct {
	eventType EventType
	event     Event
}

// EventBus fans registry events out to in-process subscribers and relays
type EventBus struct {
	subscribers map[EventType]map[EventSubscriberId]Subscriber
	metrics     *eventMetrics
	logger      *slog.Logger
	asyncQueue  chan asyncEvent
	stopCh      chan struct{}
	asyncWg     sync.WaitGroup
	lastSubId   EventSubscriberId
	mu          sync.RWMutex
	stopOnce    sync.Once
}

func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]Subscriber),
		logger:      logger,
		asyncQueue:  make(chan asyncEvent, AsyncQueueSize),
		stopCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		e.initMetrics(promRegistry)
	}
	e.asyncWg.Add(AsyncWorkerPoolSize)
	for range AsyncWorkerPoolSize {
		go e.asyncWorker()
	}
	return e
}

func (e *EventBus) asyncWorker() {
	defer e.asyncWg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case ae := <-e.asyncQueue:
			e.Publish(ae.eventType, ae.event)
		}
	}
}

func (e *EventBus) addSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	subs, ok := e.subscribers[eventType]
	if !ok {
		subs = make(map[EventSubscriberId]Subscriber)
		e.subscribers[eventType] = subs
	}
	subs[e.lastSubId] = sub
	e.trackSubscriber(eventType, sub, 1)
	return e.lastSubId
}

func (e *EventBus) trackSubscriber(eventType EventType, sub Subscriber, delta float64) {
	if e.metrics == nil {
		return
	}
	e.metrics.subscribers.WithLabelValues(
		string(eventType),
		subscriberKind(sub),
	).Add(delta)
}

// Subscribe returns a buffered channel receiving events of the given type
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	chSub := newChannelSubscriber(EventQueueSize)
	return e.addSubscriber(eventType, chSub), chSub.ch
}

// SubscribeFunc calls handlerFunc from a dedicated goroutine for each event.
// A panicking handler is logged and does not stop later deliveries.
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	go func() {
		for evt := range evtCh {
			if err := callRecover(func() error { handlerFunc(evt); return nil }); err != nil {
				e.logger.Error(
					"event handler failed",
					"component", "event",
					"type", eventType,
					"error", err,
				)
			}
		}
	}()
	return subId
}

// RegisterSubscriber adds a custom Subscriber, such as a relay to an
// external broker
func (e *EventBus) RegisterSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	return e.addSubscriber(eventType, sub)
}

func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	sub, ok := e.subscribers[eventType][subId]
	if ok {
		delete(e.subscribers[eventType], subId)
		if len(e.subscribers[eventType]) == 0 {
			delete(e.subscribers, eventType)
		}
		e.trackSubscriber(eventType, sub, -1)
	}
	e.mu.Unlock()
	if ok {
		sub.Close()
	}
}

// snapshot copies the current subscribers of eventType so delivery runs
// without the bus lock
func (e *EventBus) snapshot(eventType EventType) []subscription {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ret := make([]subscription, 0, len(e.subscribers[eventType]))
	for id, sub := range e.subscribers[eventType] {
		ret = append(ret, subscription{id: id, sub: sub})
	}
	return ret
}

// callRecover runs fn and turns a panic into an error
func callRecover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Publish delivers an event to every subscriber of its type, in the caller's
// goroutine
func (e *EventBus) Publish(eventType EventType, evt Event) {
	for _, s := range e.snapshot(eventType) {
		err := callRecover(func() error { return s.sub.Deliver(evt) })
		if err == nil {
			continue
		}
		e.Unsubscribe(eventType, s.id)
		if e.metrics != nil {
			e.metrics.deliveryErrors.WithLabelValues(
				string(eventType),
				subscriberKind(s.sub),
			).Inc()
		}
		e.logger.Warn(
			"event delivery failed, removing subscriber",
			"component", "event",
			"type", eventType,
			"error", err,
		)
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
	}
}

// PublishAsync queues an event for delivery by the worker pool. It returns
// false if the bus is stopped or the queue is full.
func (e *EventBus) PublishAsync(eventType EventType, evt Event) bool {
	select {
	case <-e.stopCh:
		return false
	default:
	}
	select {
	case e.asyncQueue <- asyncEvent{eventType: eventType, event: evt}:
		return true
	default:
	}
	e.logger.Warn(
		"async event queue full, dropping event",
		"component", "event",
		"type", eventType,
	)
	if e.metrics != nil {
		e.metrics.deliveryErrors.WithLabelValues(
			string(eventType),
			"async-dropped",
		).Inc()
	}
	return false
}

// Stop shuts down the async workers and closes all subscribers. Events still
// queued for async delivery are dropped.
func (e *EventBus) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.asyncWg.Wait()
	})
	e.mu.Lock()
	old := e.subscribers
	e.subscribers = make(map[EventType]map[EventSubscriberId]Subscriber)
	e.mu.Unlock()
	for _, subs := range old {
		for _, sub := range subs {
			sub.Close()
		}
	}
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}
