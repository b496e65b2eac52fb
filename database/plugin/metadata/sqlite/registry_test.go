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
	"math/big"
	"testing"

	"github.com/blinklabs-io/geode/database/models"
	"github.com/blinklabs-io/geode/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testInstanceA = []byte("aaaaaaaaaaaaaaaaaaaa")
	testInstanceB = []byte("bbbbbbbbbbbbbbbbbbbb")
)

func newTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	store1 := newTestStore(t)
	store2 := newTestStore(t)
	require.NoError(t, store1.SetWorkspace(&models.Workspace{
		Instance:    testInstanceA,
		WorkspaceID: 1 << 20,
		Token:       make([]byte, 20),
	}, nil))
	ws, err := store2.GetWorkspace(testInstanceA, 1<<20, nil)
	require.NoError(t, err)
	assert.Nil(t, ws)
}

func TestWorkspaceUpsert(t *testing.T) {
	store := newTestStore(t)
	ws := &models.Workspace{
		Instance:    testInstanceA,
		WorkspaceID: 1 << 20,
		Token:       make([]byte, 20),
	}
	require.NoError(t, store.SetWorkspace(ws, nil))
	// Same workspace ID under another instance is a separate record
	require.NoError(t, store.SetWorkspace(&models.Workspace{
		Instance:    testInstanceB,
		WorkspaceID: 1 << 20,
		Token:       make([]byte, 20),
	}, nil))
	require.NoError(t, store.SetWorkspace(&models.Workspace{
		Instance:         testInstanceA,
		WorkspaceID:      1 << 20,
		Token:            make([]byte, 20),
		AdditionalData:   []byte("meta"),
		LatestProposalID: (1 << 20) + 1,
	}, nil))

	got, err := store.GetWorkspace(testInstanceA, 1<<20, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("meta"), got.AdditionalData)
	assert.Equal(t, uint64((1<<20)+1), got.LatestProposalID)

	list, err := store.GetWorkspaces(testInstanceA, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProposalQueries(t *testing.T) {
	store := newTestStore(t)
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, store.SetProposal(&models.Proposal{
			Instance:    testInstanceA,
			ProposalID:  (1 << 20) + i,
			WorkspaceID: 1 << 20,
			Start:       types.BigInt{Int: big.NewInt(1)},
			End:         types.BigInt{Int: big.NewInt(2)},
			Snapshot:    types.BigInt{Int: big.NewInt(0)},
		}, nil))
	}
	count, err := store.CountProposals(testInstanceA, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	count, err = store.CountProposals(testInstanceB, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	list, err := store.GetProposalsByWorkspace(testInstanceA, 1<<20, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, uint64((1<<20)+1), list[0].ProposalID)

	p, err := store.GetProposal(testInstanceA, (1<<20)+2, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Zero(t, p.End.Cmp(big.NewInt(2)))

	p, err = store.GetProposal(testInstanceA, 99, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction()
	rec, err := models.NewVoteRecord(testInstanceA, 5, []*big.Int{big.NewInt(1)})
	require.NoError(t, err)
	require.NoError(t, store.SetVoteRecord(rec, txn))
	require.NoError(t, store.SetCommitTimestamp(123, txn))
	require.NoError(t, txn.Rollback())

	got, err := store.GetVoteRecord(testInstanceA, 5, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)

	// A finished transaction cannot be reused
	_, err = store.GetVoteRecord(testInstanceA, 5, txn)
	require.ErrorIs(t, err, types.ErrTxnFinished)
}

func TestTransactionCommit(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction()
	rec, err := models.NewVoteRecord(testInstanceA, 5, []*big.Int{big.NewInt(9)})
	require.NoError(t, err)
	require.NoError(t, store.SetVoteRecord(rec, txn))
	require.NoError(t, store.SetCommitTimestamp(456, txn))
	require.NoError(t, txn.Commit())

	got, err := store.GetVoteRecord(testInstanceA, 5, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	counters, err := got.Decode()
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.Zero(t, counters[0].Cmp(big.NewInt(9)))
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(456), ts)
}
