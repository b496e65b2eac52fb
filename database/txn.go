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

package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/geode/database/types"
)

// ErrPartialCommit is returned when the blob store committed but the
// metadata store did not. The commit timestamps of the two stores then
// disagree, and the next open reports a CommitTimestampError.
var ErrPartialCommit = errors.New("partial commit")

// Txn spans one blob transaction and one metadata transaction. A registry
// call sees either both sets of writes or neither.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	lock        sync.Mutex
	finished    bool
	readWrite   bool
}

func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); ms != nil {
		t.metadataTxn = ms.NewTransaction()
	}
	return t
}

// View runs fn in a read-only transaction
func (d *Database) View(fn func(*Txn) error) error {
	return d.Transaction(false).Do(fn)
}

// Update runs fn in a read-write transaction and commits it if fn succeeds
func (d *Database) Update(fn func(*Txn) error) error {
	return d.Transaction(true).Do(fn)
}

func (t *Txn) DB() *Database {
	return t.db
}

func (t *Txn) ReadWrite() bool {
	return t.readWrite
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// Do runs fn and then commits. If fn fails, the transaction is rolled back
// and fn's error is returned. A panic in fn rolls back before propagating.
func (t *Txn) Do(fn func(*Txn) error) error {
	defer func() {
		if r := recover(); r != nil {
			_ = t.Rollback()
			panic(r)
		}
	}()
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %w)", err, rbErr)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Commit commits both stores. Read-only transactions are released instead.
func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if !t.readWrite {
		return t.rollback()
	}
	defer func() { t.finished = true }()
	if t.blobTxn == nil && t.metadataTxn == nil {
		return types.ErrNoStoreAvailable
	}
	if err := t.stampCommit(); err != nil {
		t.abort()
		return err
	}
	// The blob store goes first so a failure there leaves nothing committed
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			t.abortMetadata()
			return fmt.Errorf("blob commit: %w", err)
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Commit(); err != nil {
			t.db.logger.Error(
				"metadata commit failed after blob commit",
				"component", "database",
				"error", err,
			)
			t.abortMetadata()
			return fmt.Errorf("%w: metadata: %w", ErrPartialCommit, err)
		}
	}
	return nil
}

// stampCommit writes the same commit timestamp to both stores
func (t *Txn) stampCommit() error {
	if t.blobTxn == nil || t.metadataTxn == nil {
		return nil
	}
	if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("update commit timestamp: %w", err)
	}
	return nil
}

func (t *Txn) abort() {
	if t.blobTxn != nil {
		_ = t.blobTxn.Rollback()
	}
	t.abortMetadata()
}

func (t *Txn) abortMetadata() {
	if t.metadataTxn != nil {
		_ = t.metadataTxn.Rollback()
	}
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	var err error
	if t.blobTxn != nil {
		if rbErr := t.blobTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("blob rollback: %w", rbErr))
		}
	}
	if t.metadataTxn != nil {
		if rbErr := t.metadataTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", rbErr))
		}
	}
	return err
}

// Release rolls back the transaction and only logs failures, for use with
// defer on read paths
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
