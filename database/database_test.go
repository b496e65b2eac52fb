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

package database_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testInstance = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testAlice    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testBob      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func newTestDatabase(t *testing.T, dataDir string) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStorageReadsZeroWhenAbsent(t *testing.T) {
	db := newTestDatabase(t, "")
	txn := db.Transaction(false)
	defer txn.Release()
	s := txn.Storage(testInstance)

	owner, err := s.Owner()
	require.NoError(t, err)
	assert.Equal(t, registry.ZeroIdentity, owner)
	counter, err := s.Uint(registry.SlotWorkspaceCounter)
	require.NoError(t, err)
	assert.Zero(t, counter)
	state, err := s.Lifecycle()
	require.NoError(t, err)
	assert.Equal(t, registry.ResetAllowed, state)
	ok, err := s.HasRole(registry.RoleAdmin, testAlice)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Workspace(registry.BaseWorkspaceID)
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, err = s.Votes(1)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestStorageRolesAndRecords(t *testing.T) {
	db := newTestDatabase(t, "")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		s := txn.Storage(testInstance)
		if err := s.SetRole(registry.RoleAdmin, testAlice, true); err != nil {
			return err
		}
		if err := s.SetRole(registry.RoleAdmin, testBob, true); err != nil {
			return err
		}
		if err := s.SetRole(registry.RoleFinalizer, testBob, true); err != nil {
			return err
		}
		if err := s.SetRole(registry.RoleAdmin, testBob, false); err != nil {
			return err
		}
		if err := s.PutWorkspace(&registry.Workspace{
			ID:    registry.BaseWorkspaceID,
			Token: testAlice,
		}); err != nil {
			return err
		}
		return s.PutVotes(7, []*big.Int{big.NewInt(3), big.NewInt(4)})
	})
	require.NoError(t, err)

	txn := db.Transaction(false)
	defer txn.Release()
	s := txn.Storage(testInstance)
	admins, err := s.RoleMembers(registry.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []registry.Identity{testAlice}, admins)
	finalizers, err := s.RoleMembers(registry.RoleFinalizer)
	require.NoError(t, err)
	assert.Equal(t, []registry.Identity{testBob}, finalizers)

	ws, err := s.Workspace(registry.BaseWorkspaceID)
	require.NoError(t, err)
	assert.Equal(t, testAlice, ws.Token)
	votes, err := s.Votes(7)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Zero(t, votes[1].Cmp(big.NewInt(4)))

	// Another instance sees none of it
	other := txn.Storage(testBob)
	_, err = other.Workspace(registry.BaseWorkspaceID)
	require.ErrorIs(t, err, registry.ErrNotFound)
	otherAdmins, err := other.RoleMembers(registry.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, otherAdmins)
}

func TestTxnDoRollsBackBothStores(t *testing.T) {
	db := newTestDatabase(t, "")
	testErr := errors.New("abort")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		s := txn.Storage(testInstance)
		if err := s.SetOwner(testAlice); err != nil {
			return err
		}
		if err := s.PutWorkspace(&registry.Workspace{
			ID:    registry.BaseWorkspaceID,
			Token: testAlice,
		}); err != nil {
			return err
		}
		return testErr
	})
	require.ErrorIs(t, err, testErr)

	txn := db.Transaction(false)
	defer txn.Release()
	s := txn.Storage(testInstance)
	owner, err := s.Owner()
	require.NoError(t, err)
	assert.Equal(t, registry.ZeroIdentity, owner)
	_, err = s.Workspace(registry.BaseWorkspaceID)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestUpdatePanicRollsBack(t *testing.T) {
	db := newTestDatabase(t, "")
	assert.PanicsWithValue(t, "abort", func() {
		_ = db.Update(func(txn *database.Txn) error {
			if err := txn.Storage(testInstance).PutWorkspace(&registry.Workspace{
				ID:    registry.BaseWorkspaceID,
				Token: testAlice,
			}); err != nil {
				return err
			}
			panic("abort")
		})
	})

	// The metadata connection was released, so a later write goes through
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return txn.Storage(testInstance).SetOwner(testBob)
	}))
	require.NoError(t, db.View(func(txn *database.Txn) error {
		s := txn.Storage(testInstance)
		owner, err := s.Owner()
		require.NoError(t, err)
		assert.Equal(t, testBob, owner)
		_, err = s.Workspace(registry.BaseWorkspaceID)
		require.ErrorIs(t, err, registry.ErrNotFound)
		return nil
	}))
}

func TestProxySlotsAreSeparateNamespace(t *testing.T) {
	db := newTestDatabase(t, "")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		s := txn.Storage(testInstance)
		if err := s.SetProxyIdentity(registry.ProxySlotImplementation, testBob); err != nil {
			return err
		}
		return s.SetOwner(testAlice)
	})
	require.NoError(t, err)
	txn := db.Transaction(false)
	defer txn.Release()
	s := txn.Storage(testInstance)
	impl, err := s.ProxyIdentity(registry.ProxySlotImplementation)
	require.NoError(t, err)
	assert.Equal(t, testBob, impl)
	owner, err := s.Owner()
	require.NoError(t, err)
	assert.Equal(t, testAlice, owner)
}

func TestCodeNonceAndDeploymentPersist(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := txn.SetCode(testInstance, "registry/v1"); err != nil {
			return err
		}
		if err := txn.SetNonce(testAlice, 2); err != nil {
			return err
		}
		return txn.SetDeployment(&database.Deployment{
			Implementation: testInstance,
			Proxy:          testBob,
			Deployer:       testAlice,
		})
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopen and check commit timestamps agree and data survived
	db = newTestDatabase(t, dataDir)
	txn := db.Transaction(false)
	defer txn.Release()
	code, err := txn.Code(testInstance)
	require.NoError(t, err)
	assert.Equal(t, "registry/v1", code)
	code, err = txn.Code(testBob)
	require.NoError(t, err)
	assert.Empty(t, code)
	nonce, err := txn.Nonce(testAlice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)
	dep, err := txn.Deployment()
	require.NoError(t, err)
	require.NotNil(t, dep)
	assert.Equal(t, testBob, dep.Proxy)
}

func TestCommitTimestampError(t *testing.T) {
	err := database.CommitTimestampError{MetadataTimestamp: 2, BlobTimestamp: 1}
	assert.Equal(
		t,
		"commit timestamp mismatch: 2 (metadata) != 1 (blob)",
		err.Error(),
	)
}
