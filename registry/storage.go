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

package registry

import "math/big"

// Slot identifies a persistent field of an instance's storage layout.
// Slots are append-only: new schema versions add slots at the end and never
// renumber or drop existing ones.
type Slot uint8

const (
	SlotOwner Slot = iota
	SlotWorkspaceCounter
	SlotResetDisabled
	SlotAdmins
	SlotFinalizers
	SlotTrustedCallers
	SlotWorkspaces
	SlotProposals
	SlotVoteLedger
	SlotSchemaVersion
	// SlotProposalTotal was appended by schema version 2
	SlotProposalTotal
)

// ProxySlot identifies a field in the proxy-only storage namespace
type ProxySlot uint8

const (
	ProxySlotImplementation ProxySlot = iota
	ProxySlotAdmin
)

// RoleSlot returns the storage slot holding the given role map
func RoleSlot(role Role) Slot {
	switch role {
	case RoleAdmin:
		return SlotAdmins
	case RoleFinalizer:
		return SlotFinalizers
	case RoleTrustedCaller:
		return SlotTrustedCallers
	}
	panic("unknown role")
}

// Storage is the persistent state of one deployed instance. Every method
// operates inside the transaction the host opened for the current call.
// Absent scalar slots read as their zero value; absent role entries read as
// false.
type Storage interface {
	Owner() (Identity, error)
	SetOwner(Identity) error
	Uint(Slot) (uint64, error)
	SetUint(Slot, uint64) error
	Lifecycle() (LifecycleState, error)
	SetLifecycle(LifecycleState) error
	HasRole(Role, Identity) (bool, error)
	SetRole(Role, Identity, bool) error
	RoleMembers(Role) ([]Identity, error)

	// Workspace returns ErrNotFound when no record exists for id
	Workspace(id uint64) (*Workspace, error)
	PutWorkspace(*Workspace) error
	// Workspaces returns every stored workspace record ordered by ID,
	// including records orphaned by a reset
	Workspaces() ([]*Workspace, error)
	// Proposal returns ErrNotFound when no record exists for id
	Proposal(id uint64) (*Proposal, error)
	PutProposal(*Proposal) error
	CountProposals() (uint64, error)
	// Votes returns ErrNotFound when nothing was submitted for proposalID
	Votes(proposalID uint64) ([]*big.Int, error)
	PutVotes(proposalID uint64, counters []*big.Int) error
}

// ProxyStorage is the proxy-only namespace of an instance's storage
type ProxyStorage interface {
	ProxyIdentity(ProxySlot) (Identity, error)
	SetProxyIdentity(ProxySlot, Identity) error
}
