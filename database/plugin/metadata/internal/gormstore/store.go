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

// Package gormstore implements the registry metadata queries shared by the
// gorm-backed metadata plugins
package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/geode/database/models"
	"github.com/blinklabs-io/geode/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Config returns the gorm settings used by every metadata plugin
func Config() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
}

// Store wraps an open gorm handle
type Store struct {
	db      *gorm.DB
	logger  *slog.Logger
	metrics *metadataMetrics
}

// New configures tracing and metrics on db and creates the table schemas
func New(
	db *gorm.DB,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		db:     db,
		logger: logger,
	}
	if promRegistry != nil {
		s.registerMetrics(promRegistry)
	}
	// Configure tracing for GORM
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	// Create table schemas
	s.logger.Debug(fmt.Sprintf("creating table: %#v", &CommitTimestamp{}))
	if err := db.AutoMigrate(&CommitTimestamp{}); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// gormTxn wraps a gorm transaction and implements types.Txn
type gormTxn struct {
	store    *Store
	tx       *gorm.DB
	finished bool
}

// NewTransaction begins a new metadata transaction. A failure to begin is
// reported by the first use of the transaction.
func (s *Store) NewTransaction() types.Txn {
	tx := s.db.Begin()
	if tx.Error != nil {
		s.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", tx.Error,
		)
	}
	return &gormTxn{store: s, tx: tx}
}

func (t *gormTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tx.Error != nil {
		return t.tx.Error
	}
	return t.tx.Commit().Error
}

func (t *gormTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tx.Error != nil {
		return t.tx.Error
	}
	return t.tx.Rollback().Error
}

// resolveDB returns the gorm handle for a transaction, or the base handle
// when txn is nil
func (s *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return s.db, nil
	}
	gTxn, ok := txn.(*gormTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if gTxn.store != s {
		return nil, errors.New("transaction from different store")
	}
	if gTxn.finished {
		return nil, types.ErrTxnFinished
	}
	if gTxn.tx.Error != nil {
		return nil, gTxn.tx.Error
	}
	return gTxn.tx, nil
}
