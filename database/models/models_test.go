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

package models_test

import (
	"math/big"
	"testing"

	"github.com/blinklabs-io/geode/database/models"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRecordCounters(t *testing.T) {
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	require.True(t, ok)
	counters := []*big.Int{big.NewInt(0), big.NewInt(7), huge}
	rec, err := models.NewVoteRecord(common.Address{1}.Bytes(), 42, counters)
	require.NoError(t, err)
	out, err := rec.Decode()
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range counters {
		assert.Zero(t, counters[i].Cmp(out[i]), "counter %d", i)
	}
}

func TestProposalModelKeepsBigValues(t *testing.T) {
	instance := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	start := new(big.Int).Lsh(big.NewInt(1), 200)
	p := &registry.Proposal{
		ID:          (1 << 20) + 1,
		WorkspaceID: 1 << 20,
		Start:       start,
		End:         big.NewInt(10),
		Snapshot:    big.NewInt(0),
		Data:        []byte("ipfs://x"),
	}
	m := models.ProposalFromRegistry(instance, p)
	assert.Equal(t, instance.Bytes(), m.Instance)
	assert.Equal(t, p, m.Registry())
}
