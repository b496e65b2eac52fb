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

package mysql

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type MysqlOptionFunc func(*MetadataStoreMysql)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.promRegistry = registry
	}
}

// WithHost sets the server host name
func WithHost(host string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.Host = host
	}
}

func WithPort(port uint) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.Port = uint64(port)
	}
}

// WithCredentials sets the login user and password
func WithCredentials(user, password string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.User = user
		m.conn.Password = password
	}
}

// WithDatabase sets the schema holding the registry tables. It is created
// on first connect if missing.
func WithDatabase(database string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.Database = database
	}
}

// WithTLS sets the driver's tls parameter: true, false, skip-verify,
// preferred or the name of a registered TLS config
func WithTLS(sslMode string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.SSLMode = sslMode
	}
}

// WithTimeZone sets the location used to parse DATETIME values
func WithTimeZone(timeZone string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.TimeZone = timeZone
	}
}

// WithDSN sets a full connection string. It takes precedence over the
// individual connection options.
func WithDSN(dsn string) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.DSN = dsn
	}
}

// WithPoolSize sets the maximum number of open and idle connections
func WithPoolSize(maxOpen, maxIdle uint) MysqlOptionFunc {
	return func(m *MetadataStoreMysql) {
		m.conn.MaxOpenConns = uint64(maxOpen)
		m.conn.MaxIdleConns = uint64(maxIdle)
	}
}
