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

package badger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/geode/database/types"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// slotsDirName is the badger directory below the data dir
	slotsDirName = "slots"
	// gcDiscardRatio is the share of stale data a value log file needs
	// before GC rewrites it
	gcDiscardRatio = 0.5
)

// BlobStoreBadger keeps instance storage slots, proxy slots, code names and
// deployment nonces in badger. With no data dir the store is in-memory.
type BlobStoreBadger struct {
	promRegistry   prometheus.Registerer
	metrics        *blobMetrics
	db             *badger.DB
	logger         *slog.Logger
	gcStopCh       chan struct{}
	gcWg           sync.WaitGroup
	dataDir        string
	blockCacheSize uint64
	indexCacheSize uint64
	gcInterval     time.Duration
	gcEnabled      bool
	syncWrites     bool
}

// New opens the store
func New(opts ...BlobStoreBadgerOptionFunc) (*BlobStoreBadger, error) {
	d := &BlobStoreBadger{
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
		gcInterval:     DefaultGcInterval,
		gcEnabled:      true,
		syncWrites:     true,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	badgerOpts, err := d.badgerOptions()
	if err != nil {
		return nil, err
	}
	d.db, err = badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	if d.promRegistry != nil {
		d.registerBlobMetrics()
	}
	// Value log GC does not apply to in-memory stores
	if d.gcEnabled && d.dataDir != "" {
		d.gcStopCh = make(chan struct{})
		d.gcWg.Add(1)
		go d.blobGc(d.gcStopCh)
	}
	return d, nil
}

// badgerOptions builds the badger settings, creating the data dir if needed
func (d *BlobStoreBadger) badgerOptions() (badger.Options, error) {
	if d.dataDir == "" {
		return badger.DefaultOptions("").
			WithLogger(NewBadgerLogger(d.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true), nil
	}
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return badger.Options{}, fmt.Errorf("create data dir: %w", err)
	}
	//nolint:gosec // cache sizes come from configuration
	return badger.DefaultOptions(filepath.Join(d.dataDir, slotsDirName)).
		WithLogger(NewBadgerLogger(d.logger)).
		WithLoggingLevel(badger.WARNING).
		WithSyncWrites(d.syncWrites).
		WithBlockCacheSize(int64(d.blockCacheSize)).
		WithIndexCacheSize(int64(d.indexCacheSize)).
		WithValueLogFileSize(DefaultValueLogFileSize).
		WithMemTableSize(DefaultMemTableSize).
		WithCompression(options.Snappy), nil
}

func (d *BlobStoreBadger) blobGc(stop <-chan struct{}) {
	defer d.gcWg.Done()
	ticker := time.NewTicker(d.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.runGc()
		case <-stop:
			return
		}
	}
}

// runGc keeps collecting while each pass rewrites a value log file
func (d *BlobStoreBadger) runGc() {
	for {
		err := d.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			d.logger.Warn(
				"blob store value log GC failed",
				"component", "database",
				"error", err,
			)
		}
		return
	}
}

// Start implements the plugin.Plugin interface. The database is opened in New()
func (d *BlobStoreBadger) Start() error {
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreBadger) Stop() error {
	return d.Close()
}

// Close stops value log GC and closes the database
func (d *BlobStoreBadger) Close() error {
	if d.gcStopCh != nil {
		close(d.gcStopCh)
		d.gcStopCh = nil
		d.gcWg.Wait()
	}
	return d.db.Close()
}

func (d *BlobStoreBadger) DB() *badger.DB {
	return d.db
}

func (d *BlobStoreBadger) NewTransaction(update bool) types.Txn {
	return &badgerTxn{store: d, tx: d.db.NewTransaction(update)}
}

// Get returns a copy of the value stored under key
func (d *BlobStoreBadger) Get(txn types.Txn, key []byte) ([]byte, error) {
	tx, err := d.txn(txn)
	if err != nil {
		return nil, err
	}
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	d.recordOp("get", len(val))
	return val, nil
}

func (d *BlobStoreBadger) Set(txn types.Txn, key, val []byte) error {
	tx, err := d.txn(txn)
	if err != nil {
		return err
	}
	if err := tx.Set(key, val); err != nil {
		return err
	}
	d.recordOp("set", len(val))
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (d *BlobStoreBadger) Delete(txn types.Txn, key []byte) error {
	tx, err := d.txn(txn)
	if err != nil {
		return err
	}
	if err := tx.Delete(key); err != nil {
		return err
	}
	d.recordOp("delete", 0)
	return nil
}

// NewIterator creates an iterator bound to txn. Items must only be accessed
// while that transaction is still active.
func (d *BlobStoreBadger) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	tx, err := d.txn(txn)
	if err != nil {
		return errorIterator{err: err}
	}
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = opts.Prefix
	iterOpts.Reverse = opts.Reverse
	iterOpts.PrefetchValues = !opts.KeysOnly
	return &badgerIterator{iter: tx.NewIterator(iterOpts)}
}
