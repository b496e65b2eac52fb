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

package postgres

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type PostgresOptionFunc func(*MetadataStorePostgres)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.promRegistry = registry
	}
}

// WithHost sets the server host name
func WithHost(host string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.Host = host
	}
}

func WithPort(port uint) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.Port = uint64(port)
	}
}

// WithCredentials sets the login user and password
func WithCredentials(user, password string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.User = user
		m.conn.Password = password
	}
}

// WithDatabase sets the database holding the registry tables
func WithDatabase(database string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.Database = database
	}
}

// WithSSLMode sets the libpq sslmode
func WithSSLMode(sslMode string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.SSLMode = sslMode
	}
}

func WithTimeZone(timeZone string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.TimeZone = timeZone
	}
}

// WithDSN sets a full connection string. It takes precedence over the
// individual connection options.
func WithDSN(dsn string) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.DSN = dsn
	}
}

// WithPoolSize sets the maximum number of open and idle connections
func WithPoolSize(maxOpen, maxIdle uint) PostgresOptionFunc {
	return func(m *MetadataStorePostgres) {
		m.conn.MaxOpenConns = uint64(maxOpen)
		m.conn.MaxIdleConns = uint64(maxIdle)
	}
}
