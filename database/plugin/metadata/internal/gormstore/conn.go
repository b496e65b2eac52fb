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

package gormstore

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/geode/database/plugin"
	"gorm.io/gorm"
)

const (
	DefaultMaxOpenConns    = 100
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = time.Hour
)

// ConnConfig holds the settings of a networked SQL metadata store. A
// non-empty DSN replaces the individual connection fields.
type ConnConfig struct {
	Host         string
	Port         uint64
	User         string
	Password     string
	Database     string
	SSLMode      string
	TimeZone     string
	DSN          string
	MaxOpenConns uint64
	MaxIdleConns uint64
}

// WithDefaults fills every unset field from defaults
func (c ConnConfig) WithDefaults(defaults ConnConfig) ConnConfig {
	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.User == "" {
		c.User = defaults.User
	}
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.SSLMode == "" {
		c.SSLMode = defaults.SSLMode
	}
	if c.TimeZone == "" {
		c.TimeZone = defaults.TimeZone
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	return c
}

// PluginOptions returns the plugin options for a networked store, writing
// into dest. The product name is used in option descriptions.
func PluginOptions(
	product string,
	dest *ConnConfig,
	defaults ConnConfig,
) []plugin.PluginOption {
	return []plugin.PluginOption{
		stringOption("host", product+" host", defaults.Host, &dest.Host),
		{
			Name:         "port",
			Type:         plugin.PluginOptionTypeUint,
			Description:  product + " port",
			DefaultValue: defaults.Port,
			Dest:         &dest.Port,
		},
		stringOption("user", product+" user", defaults.User, &dest.User),
		stringOption("password", product+" password (required)", "", &dest.Password),
		stringOption("database", product+" database name", defaults.Database, &dest.Database),
		stringOption("ssl-mode", product+" TLS mode", defaults.SSLMode, &dest.SSLMode),
		stringOption("timezone", product+" time zone", defaults.TimeZone, &dest.TimeZone),
		stringOption(
			"dsn",
			"Full "+product+" DSN (overrides other connection options when set)",
			"",
			&dest.DSN,
		),
		{
			Name:         "max-open-conns",
			Type:         plugin.PluginOptionTypeUint,
			Description:  "Maximum open connections",
			DefaultValue: uint64(DefaultMaxOpenConns),
			Dest:         &dest.MaxOpenConns,
		},
		{
			Name:         "max-idle-conns",
			Type:         plugin.PluginOptionTypeUint,
			Description:  "Maximum idle connections",
			DefaultValue: uint64(DefaultMaxIdleConns),
			Dest:         &dest.MaxIdleConns,
		},
	}
}

func stringOption(
	name, description, defaultValue string,
	dest *string,
) plugin.PluginOption {
	return plugin.PluginOption{
		Name:         name,
		Type:         plugin.PluginOptionTypeString,
		Description:  description,
		DefaultValue: defaultValue,
		Dest:         dest,
	}
}

// ConfigurePool applies the connection pool limits to an open handle
func (c ConnConfig) ConfigurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(c.MaxOpenConns)) //nolint:gosec
	sqlDB.SetMaxIdleConns(int(c.MaxIdleConns)) //nolint:gosec
	sqlDB.SetConnMaxLifetime(DefaultConnMaxLifetime)
	return nil
}
