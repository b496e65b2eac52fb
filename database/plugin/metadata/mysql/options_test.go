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

package mysql

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnStringFromOptions(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithCredentials("geode", "secret"),
		WithDatabase("registry"),
		WithTLS("skip-verify"),
		WithTimeZone("UTC"),
	)
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(m.connString())
	require.NoError(t, err)
	assert.Equal(t, "geode", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "db.local:3307", cfg.Addr)
	assert.Equal(t, "registry", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
	assert.Equal(t, "UTC", cfg.Loc.String())
}

func TestDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(m.connString())
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "localhost:3306", cfg.Addr)
	assert.Equal(t, "geode", cfg.DBName)
	assert.Empty(t, cfg.TLSConfig)
	require.NoError(t, m.Close())
	assert.Nil(t, m.DB())
}

func TestDSNOverridesOptions(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN(" geode:pw@tcp(db:3306)/registry "),
	)
	require.NoError(t, err)
	assert.Equal(t, "geode:pw@tcp(db:3306)/registry", m.connString())
}

func TestPoolSize(t *testing.T) {
	m, err := NewWithOptions(WithPoolSize(8, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(8), m.conn.MaxOpenConns)
	assert.Equal(t, uint64(2), m.conn.MaxIdleConns)
}
