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
	"sync"

	"github.com/blinklabs-io/geode/database/plugin"
	"github.com/blinklabs-io/geode/database/plugin/metadata/internal/gormstore"
)

// connDefaults are the settings used when an option is left unset
var connDefaults = gormstore.ConnConfig{
	Host:     "localhost",
	Port:     3306,
	User:     "root",
	Database: "geode",
	TimeZone: "UTC",
}

var (
	cmdlineOptions      gormstore.ConnConfig
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "mysql",
			Description:        "MySQL relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: gormstore.PluginOptions(
				"MySQL",
				&cmdlineOptions,
				connDefaults,
			),
		},
	)
}

func NewFromCmdlineOptions(deps plugin.Deps) plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	conn := cmdlineOptions
	cmdlineOptionsMutex.RUnlock()
	p, err := NewWithOptions(
		func(m *MetadataStoreMysql) { m.conn = conn },
		WithLogger(deps.Logger),
		WithPromRegistry(deps.PromRegistry),
	)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
