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

package sqlite

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/geode/database/plugin/metadata/internal/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const dbFileName = "registry.sqlite"

// MetadataStoreSqlite holds workspace, proposal and vote records in sqlite
type MetadataStoreSqlite struct {
	*gormstore.Store
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	vacuumStop     chan struct{}
	vacuumWg       sync.WaitGroup
	closeOnce      sync.Once
	dataDir        string
	busyTimeout    time.Duration
	vacuumInterval time.Duration
}

// New creates a sqlite metadata store with default tuning
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*MetadataStoreSqlite, error) {
	return NewWithOptions(
		WithDataDir(dataDir),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

func NewWithOptions(opts ...SqliteOptionFunc) (*MetadataStoreSqlite, error) {
	d := &MetadataStoreSqlite{
		busyTimeout:    DefaultBusyTimeout,
		vacuumInterval: DefaultVacuumInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dsn, err := d.dsn()
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), gormstore.Config())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	d.Store, err = gormstore.New(gdb, d.logger, d.promRegistry)
	if err != nil {
		if sqlDb, dbErr := gdb.DB(); dbErr == nil {
			_ = sqlDb.Close()
		}
		return nil, err
	}
	if d.dataDir != "" && d.vacuumInterval > 0 {
		d.vacuumStop = make(chan struct{})
		d.vacuumWg.Add(1)
		go d.vacuumLoop()
	}
	return d, nil
}

// dsn returns the connection string, creating the data dir if needed
func (d *MetadataStoreSqlite) dsn() (string, error) {
	if d.dataDir == "" {
		// A uniquely named shared-cache database is visible to every
		// connection of this store's pool and to nothing else
		return fmt.Sprintf(
			"file:geode-%s?mode=memory&cache=shared",
			uuid.NewString(),
		), nil
	}
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		filepath.Join(d.dataDir, dbFileName),
		d.busyTimeout.Milliseconds(),
	), nil
}

func (d *MetadataStoreSqlite) vacuumLoop() {
	defer d.vacuumWg.Done()
	ticker := time.NewTicker(d.vacuumInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.vacuumStop:
			return
		case <-ticker.C:
		}
		d.logger.Debug(
			"running vacuum on sqlite metadata database",
			"component", "database",
		)
		if err := d.DB().Exec("VACUUM").Error; err != nil {
			d.logger.Error(
				"failed to free unused space in metadata store",
				"component", "database",
				"error", err,
			)
		}
	}
}

// Start implements the plugin.Plugin interface. The database is opened in New()
func (d *MetadataStoreSqlite) Start() error {
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Stop() error {
	return d.Close()
}

// Close waits for a running vacuum and closes the database. Calls after
// the first are no-ops.
func (d *MetadataStoreSqlite) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.vacuumStop != nil {
			close(d.vacuumStop)
			d.vacuumWg.Wait()
		}
		err = d.Store.Close()
	})
	return err
}
