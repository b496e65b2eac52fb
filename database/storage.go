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
	"math/big"

	"github.com/blinklabs-io/geode/database/models"
	"github.com/blinklabs-io/geode/database/types"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
)

// InstanceStorage implements registry.Storage and registry.ProxyStorage for
// one instance address inside a transaction. Scalars, roles and proxy slots
// live in the blob store. Workspace, proposal and vote records live in the
// metadata store.
type InstanceStorage struct {
	txn      *Txn
	instance registry.Identity
}

var (
	_ registry.Storage      = (*InstanceStorage)(nil)
	_ registry.ProxyStorage = (*InstanceStorage)(nil)
)

// Storage returns the storage of an instance bound to this transaction
func (t *Txn) Storage(instance registry.Identity) *InstanceStorage {
	return &InstanceStorage{txn: t, instance: instance}
}

func (s *InstanceStorage) Instance() registry.Identity {
	return s.instance
}

func (s *InstanceStorage) get(key []byte) ([]byte, error) {
	val, err := s.txn.DB().Blob().Get(s.txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (s *InstanceStorage) set(key []byte, val []byte) error {
	return s.txn.DB().Blob().Set(s.txn.Blob(), key, val)
}

func (s *InstanceStorage) slotKey(slot registry.Slot, suffix []byte) []byte {
	return types.SlotBlobKey(s.instance.Bytes(), uint8(slot), suffix)
}

func (s *InstanceStorage) Owner() (registry.Identity, error) {
	val, err := s.get(s.slotKey(registry.SlotOwner, nil))
	if err != nil {
		return registry.ZeroIdentity, err
	}
	return common.BytesToAddress(val), nil
}

func (s *InstanceStorage) SetOwner(owner registry.Identity) error {
	return s.set(s.slotKey(registry.SlotOwner, nil), owner.Bytes())
}

func (s *InstanceStorage) Uint(slot registry.Slot) (uint64, error) {
	val, err := s.get(s.slotKey(slot, nil))
	if err != nil {
		return 0, err
	}
	return types.BytesToUint64(val), nil
}

func (s *InstanceStorage) SetUint(slot registry.Slot, val uint64) error {
	return s.set(s.slotKey(slot, nil), types.Uint64ToBytes(val))
}

func (s *InstanceStorage) Lifecycle() (registry.LifecycleState, error) {
	val, err := s.Uint(registry.SlotResetDisabled)
	if err != nil {
		return registry.ResetAllowed, err
	}
	return registry.LifecycleState(val), nil
}

func (s *InstanceStorage) SetLifecycle(state registry.LifecycleState) error {
	return s.SetUint(registry.SlotResetDisabled, uint64(state))
}

func (s *InstanceStorage) HasRole(
	role registry.Role,
	id registry.Identity,
) (bool, error) {
	val, err := s.get(s.slotKey(registry.RoleSlot(role), id.Bytes()))
	if err != nil {
		return false, err
	}
	return len(val) == 1 && val[0] == 1, nil
}

func (s *InstanceStorage) SetRole(
	role registry.Role,
	id registry.Identity,
	member bool,
) error {
	key := s.slotKey(registry.RoleSlot(role), id.Bytes())
	if !member {
		// Revoking an absent member is a no-op
		return s.txn.DB().Blob().Delete(s.txn.Blob(), key)
	}
	return s.set(key, []byte{1})
}

func (s *InstanceStorage) RoleMembers(
	role registry.Role,
) ([]registry.Identity, error) {
	prefix := types.SlotBlobKeyMapPrefix(
		s.instance.Bytes(),
		uint8(registry.RoleSlot(role)),
	)
	iter := s.txn.DB().Blob().NewIterator(
		s.txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix, KeysOnly: true},
	)
	defer iter.Close()
	var ret []registry.Identity
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		ret = append(
			ret,
			common.BytesToAddress(types.SlotBlobKeyMapEntry(iter.Item().Key())),
		)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *InstanceStorage) Workspace(id uint64) (*registry.Workspace, error) {
	ws, err := s.txn.DB().Metadata().GetWorkspace(
		s.instance.Bytes(),
		id,
		s.txn.Metadata(),
	)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %d: %w", id, registry.ErrNotFound)
	}
	return ws.Registry(), nil
}

func (s *InstanceStorage) PutWorkspace(ws *registry.Workspace) error {
	return s.txn.DB().Metadata().SetWorkspace(
		models.WorkspaceFromRegistry(s.instance, ws),
		s.txn.Metadata(),
	)
}

// Workspaces returns every workspace record of the instance ordered by ID
func (s *InstanceStorage) Workspaces() ([]*registry.Workspace, error) {
	list, err := s.txn.DB().Metadata().GetWorkspaces(
		s.instance.Bytes(),
		s.txn.Metadata(),
	)
	if err != nil {
		return nil, err
	}
	ret := make([]*registry.Workspace, 0, len(list))
	for i := range list {
		ret = append(ret, list[i].Registry())
	}
	return ret, nil
}

func (s *InstanceStorage) Proposal(id uint64) (*registry.Proposal, error) {
	p, err := s.txn.DB().Metadata().GetProposal(
		s.instance.Bytes(),
		id,
		s.txn.Metadata(),
	)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("proposal %d: %w", id, registry.ErrNotFound)
	}
	return p.Registry(), nil
}

func (s *InstanceStorage) PutProposal(p *registry.Proposal) error {
	return s.txn.DB().Metadata().SetProposal(
		models.ProposalFromRegistry(s.instance, p),
		s.txn.Metadata(),
	)
}

func (s *InstanceStorage) CountProposals() (uint64, error) {
	return s.txn.DB().Metadata().CountProposals(
		s.instance.Bytes(),
		s.txn.Metadata(),
	)
}

func (s *InstanceStorage) Votes(proposalID uint64) ([]*big.Int, error) {
	rec, err := s.txn.DB().Metadata().GetVoteRecord(
		s.instance.Bytes(),
		proposalID,
		s.txn.Metadata(),
	)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf(
			"votes for proposal %d: %w",
			proposalID,
			registry.ErrNotFound,
		)
	}
	return rec.Decode()
}

func (s *InstanceStorage) PutVotes(proposalID uint64, counters []*big.Int) error {
	rec, err := models.NewVoteRecord(s.instance.Bytes(), proposalID, counters)
	if err != nil {
		return err
	}
	return s.txn.DB().Metadata().SetVoteRecord(rec, s.txn.Metadata())
}

func (s *InstanceStorage) ProxyIdentity(
	slot registry.ProxySlot,
) (registry.Identity, error) {
	val, err := s.get(types.ProxySlotBlobKey(s.instance.Bytes(), uint8(slot)))
	if err != nil {
		return registry.ZeroIdentity, err
	}
	return common.BytesToAddress(val), nil
}

func (s *InstanceStorage) SetProxyIdentity(
	slot registry.ProxySlot,
	id registry.Identity,
) error {
	return s.set(
		types.ProxySlotBlobKey(s.instance.Bytes(), uint8(slot)),
		id.Bytes(),
	)
}
