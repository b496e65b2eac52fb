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

package api

import (
	"context"
	"math/big"

	"github.com/blinklabs-io/geode/registry"
)

// Registry is the interface the API server uses to reach the governance
// registry. *controller.Client implements it.
type Registry interface {
	AddWorkspace(ctx context.Context, caller, token registry.Identity, data []byte) (uint64, error)
	GetWorkspace(ctx context.Context, id uint64) (*registry.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]*registry.Workspace, error)
	AddProposal(ctx context.Context, caller registry.Identity, workspaceID uint64, start, end, snapshot *big.Int, data []byte) (uint64, error)
	GetProposal(ctx context.Context, id uint64) (*registry.Proposal, error)

	AddAdmin(ctx context.Context, caller, member registry.Identity) error
	RevokeAdmin(ctx context.Context, caller, member registry.Identity) error
	AddFinalizer(ctx context.Context, caller, member registry.Identity) error
	RemoveFinalizer(ctx context.Context, caller, member registry.Identity) error
	SetTrustedCaller(ctx context.Context, caller, member registry.Identity, enabled bool) error
	HasRole(ctx context.Context, role registry.Role, member registry.Identity) (bool, error)
	RoleMembers(ctx context.Context, role registry.Role) ([]registry.Identity, error)

	Owner(ctx context.Context) (registry.Identity, error)
	WorkspaceCounter(ctx context.Context) (uint64, error)
	Lifecycle(ctx context.Context) (registry.LifecycleState, error)

	SubmitVotes(ctx context.Context, caller registry.Identity, proposalID uint64, counters []*big.Int) error
	GetProposalOptions(ctx context.Context, proposalID uint64) ([]*big.Int, error)
	ResetApp(ctx context.Context, caller registry.Identity) error
	KillSwitch(ctx context.Context, caller registry.Identity) error
}

// ProxyAdmin manages the upgrade proxy in front of the registry.
// *proxy.Client implements it.
type ProxyAdmin interface {
	UpgradeTo(ctx context.Context, caller, impl registry.Identity) error
	TransferProxyOwnership(ctx context.Context, caller, newAdmin registry.Identity) error
	Implementation(ctx context.Context) (registry.Identity, error)
	ProxyOwner(ctx context.Context) (registry.Identity, error)
}
