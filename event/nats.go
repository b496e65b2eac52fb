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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultNatsSubjectPrefix is prepended to the event type to form the subject
const DefaultNatsSubjectPrefix = "geode"

// NatsPublisher is the part of *nats.Conn used by the relay
type NatsPublisher interface {
	Publish(subject string, data []byte) error
}

// natsMessage is the JSON envelope published for each event
type natsMessage struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NatsRelay is a Subscriber that forwards events to NATS subjects named
// <prefix>.<event type>
type NatsRelay struct {
	conn   NatsPublisher
	logger *slog.Logger
	prefix string
}

func NewNatsRelay(
	conn NatsPublisher,
	prefix string,
	logger *slog.Logger,
) *NatsRelay {
	if prefix == "" {
		prefix = DefaultNatsSubjectPrefix
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &NatsRelay{
		conn:   conn,
		logger: logger,
		prefix: strings.TrimSuffix(prefix, "."),
	}
}

func (r *NatsRelay) Subject(eventType EventType) string {
	return r.prefix + "." + string(eventType)
}

func (r *NatsRelay) Deliver(evt Event) error {
	data, err := json.Marshal(natsMessage{
		Type:      evt.Type,
		Timestamp: evt.Timestamp,
		Data:      evt.Data,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := r.Subject(evt.Type)
	if err := r.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	r.logger.Debug(
		"relayed event",
		"component", "event",
		"subject", subject,
	)
	return nil
}

// Close is a no-op. The connection belongs to the caller.
func (r *NatsRelay) Close() {}

// RegisterNatsRelay attaches a single relay to every listed event type
func (e *EventBus) RegisterNatsRelay(
	relay *NatsRelay,
	eventTypes ...EventType,
) []EventSubscriberId {
	ret := make([]EventSubscriberId, 0, len(eventTypes))
	for _, eventType := range eventTypes {
		ret = append(ret, e.RegisterSubscriber(eventType, relay))
	}
	return ret
}

// ConnectNats dials the NATS server used for event relaying
func ConnectNats(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	conn, err := nats.Connect(
		url,
		nats.Name("geode"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn(
					"disconnected from NATS",
					"component", "event",
					"error", err,
				)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info(
				"reconnected to NATS",
				"component", "event",
				"url", c.ConnectedUrl(),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}
