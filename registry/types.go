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

// Package registry holds the types, errors and storage layout shared by the
// governance registry implementation, the upgrade proxy and the storage
// backends.
package registry

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/ethereum/go-ethereum/common"
)

// BaseWorkspaceID is the first workspace ID issued by a freshly initialized
// (or reset) registry. It keeps workspace IDs distinguishable from 0, which
// means "no workspace".
const BaseWorkspaceID uint64 = 1 << 20

// Identity is an opaque caller handle. It is only ever compared for equality.
type Identity = common.Address

// ZeroIdentity is the empty identity
var ZeroIdentity = Identity{}

// Role selects one of the independent role maps
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleFinalizer
	RoleTrustedCaller
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleFinalizer:
		return "finalizer"
	case RoleTrustedCaller:
		return "trusted-caller"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Valid returns true if the role is known
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFinalizer, RoleTrustedCaller:
		return true
	default:
		return false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: invalid role %d", ErrInvalidArgs, uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(data []byte) error {
	tmp, err := ParseRole(string(data))
	if err != nil {
		return err
	}
	*r = tmp
	return nil
}

// ParseRole converts the string form of a role back into a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "finalizer":
		return RoleFinalizer, nil
	case "trusted-caller", "validator":
		return RoleTrustedCaller, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidArgs, s)
	}
}

// LifecycleState is the state of the reset kill switch. The only transition
// is ResetAllowed -> ResetPermanentlyDisabled.
type LifecycleState uint8

const (
	ResetAllowed LifecycleState = iota
	ResetPermanentlyDisabled
)

func (s LifecycleState) String() string {
	switch s {
	case ResetAllowed:
		return "reset-allowed"
	case ResetPermanentlyDisabled:
		return "reset-permanently-disabled"
	default:
		return fmt.Sprintf("lifecycle(%d)", uint8(s))
	}
}

// Workspace is the root of a proposal chain
type Workspace struct {
	cbor.StructAsArray
	ID               uint64
	Token            Identity
	AdditionalData   []byte
	LatestProposalID uint64
}

// ProposalCount returns the number of proposals attached to the workspace
func (w *Workspace) ProposalCount() uint64 {
	if w.LatestProposalID == 0 {
		return 0
	}
	return w.LatestProposalID - w.ID
}

// NextProposalID returns the ID the next proposal in this workspace will get
func (w *Workspace) NextProposalID() uint64 {
	return w.ID + w.ProposalCount() + 1
}

// Proposal is a single vote-able item belonging to exactly one workspace
type Proposal struct {
	cbor.StructAsArray
	ID          uint64
	WorkspaceID uint64
	Start       *big.Int
	End         *big.Int
	Snapshot    *big.Int
	Data        []byte
}
