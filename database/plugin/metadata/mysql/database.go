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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/geode/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mysqlErrUnknownDatabase is the server error for a missing schema
const mysqlErrUnknownDatabase = 1049

// MetadataStoreMysql stores registry records in MySQL
type MetadataStoreMysql struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	conn         gormstore.ConnConfig
}

// NewWithOptions creates a new MySQL metadata store. The connection is
// opened by Start.
func NewWithOptions(opts ...MysqlOptionFunc) (*MetadataStoreMysql, error) {
	db := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(db)
	}
	db.conn = db.conn.WithDefaults(connDefaults)
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return db, nil
}

// connString returns the configured DSN, or one built from the individual
// options with DATETIME parsing enabled
func (d *MetadataStoreMysql) connString() string {
	if dsn := strings.TrimSpace(d.conn.DSN); dsn != "" {
		return dsn
	}
	cfg := mysql.NewConfig()
	cfg.User = d.conn.User
	cfg.Passwd = d.conn.Password
	cfg.Net = "tcp"
	cfg.Addr = d.conn.Host + ":" + strconv.FormatUint(d.conn.Port, 10)
	cfg.DBName = d.conn.Database
	cfg.ParseTime = true
	if loc, err := time.LoadLocation(d.conn.TimeZone); err == nil {
		cfg.Loc = loc
	}
	cfg.TLSConfig = d.conn.SSLMode
	return cfg.FormatDSN()
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Start() error {
	dsn := d.connString()
	metadataDb, err := gorm.Open(gormmysql.Open(dsn), gormstore.Config())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) ||
			mysqlErr.Number != mysqlErrUnknownDatabase {
			return err
		}
		if err := createDatabase(dsn); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		metadataDb, err = gorm.Open(gormmysql.Open(dsn), gormstore.Config())
		if err != nil {
			return err
		}
	}
	if err := d.conn.ConfigurePool(metadataDb); err != nil {
		return err
	}
	store, err := gormstore.New(metadataDb, d.logger, d.promRegistry)
	if err != nil {
		if sqlDB, dbErr := metadataDb.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	d.Store = store
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"host", d.conn.Host,
		"database", d.conn.Database,
	)
	return nil
}

// createDatabase creates the schema named by dsn using a connection without
// a default schema
func createDatabase(dsn string) error {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return err
	}
	if cfg.DBName == "" {
		return errors.New("no database name in DSN")
	}
	dbName := cfg.DBName
	cfg.DBName = ""
	adminDb, err := gorm.Open(gormmysql.Open(cfg.FormatDSN()), gormstore.Config())
	if err != nil {
		return err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return err
	}
	defer sqlAdminDb.Close()
	name := strings.ReplaceAll(dbName, "`", "``")
	return adminDb.Exec("CREATE DATABASE IF NOT EXISTS `" + name + "`").Error
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

func (d *MetadataStoreMysql) Close() error {
	// Start may have failed or never been called
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// DB returns the database handle, or nil before Start
func (d *MetadataStoreMysql) DB() *gorm.DB {
	if d.Store == nil {
		return nil
	}
	return d.Store.DB()
}
