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

package controller

import (
	"context"
	"math/big"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
)

// Invoker runs calls against deployed code. *host.Host satisfies it.
type Invoker interface {
	Call(ctx context.Context, caller, target registry.Identity, method string, args []byte) ([]byte, error)
	View(ctx context.Context, caller, target registry.Identity, method string, args []byte) ([]byte, error)
}

// Client is a typed wrapper around the registry methods of one instance,
// usually the proxy address
type Client struct {
	invoker Invoker
	target  registry.Identity
}

func NewClient(invoker Invoker, target registry.Identity) *Client {
	return &Client{
		invoker: invoker,
		target:  target,
	}
}

func (c *Client) Target() registry.Identity {
	return c.target
}

func (c *Client) call(
	ctx context.Context,
	caller registry.Identity,
	method string,
	args any,
	result any,
) error {
	var argData []byte
	if args != nil {
		var err error
		argData, err = host.EncodeArgs(args)
		if err != nil {
			return err
		}
	}
	ret, err := c.invoker.Call(ctx, caller, c.target, method, argData)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return host.DecodeResult(ret, result)
}

func (c *Client) view(
	ctx context.Context,
	method string,
	args any,
	result any,
) error {
	var argData []byte
	if args != nil {
		var err error
		argData, err = host.EncodeArgs(args)
		if err != nil {
			return err
		}
	}
	ret, err := c.invoker.View(ctx, registry.ZeroIdentity, c.target, method, argData)
	if err != nil {
		return err
	}
	return host.DecodeResult(ret, result)
}

func (c *Client) Initialize(ctx context.Context, owner registry.Identity) error {
	return c.call(ctx, owner, MethodInitialize, nil, nil)
}

func (c *Client) AddWorkspace(
	ctx context.Context,
	caller registry.Identity,
	token registry.Identity,
	data []byte,
) (uint64, error) {
	var id uint64
	err := c.call(
		ctx,
		caller,
		MethodAddWorkspace,
		&WorkspaceArgs{Token: token, Data: data},
		&id,
	)
	return id, err
}

func (c *Client) GetWorkspace(ctx context.Context, id uint64) (*registry.Workspace, error) {
	var ws registry.Workspace
	if err := c.view(ctx, MethodGetWorkspace, id, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (c *Client) ListWorkspaces(ctx context.Context) ([]*registry.Workspace, error) {
	var ret []*registry.Workspace
	if err := c.view(ctx, MethodListWorkspaces, nil, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) AddProposal(
	ctx context.Context,
	caller registry.Identity,
	workspaceID uint64,
	start *big.Int,
	end *big.Int,
	snapshot *big.Int,
	data []byte,
) (uint64, error) {
	var id uint64
	err := c.call(
		ctx,
		caller,
		MethodAddProposal,
		&ProposalArgs{
			WorkspaceID: workspaceID,
			Start:       start,
			End:         end,
			Snapshot:    snapshot,
			Data:        data,
		},
		&id,
	)
	return id, err
}

func (c *Client) GetProposal(ctx context.Context, id uint64) (*registry.Proposal, error) {
	var p registry.Proposal
	if err := c.view(ctx, MethodGetProposal, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AddAdmin(ctx context.Context, caller, member registry.Identity) error {
	return c.call(ctx, caller, MethodAddAdmin, member, nil)
}

func (c *Client) RevokeAdmin(ctx context.Context, caller, member registry.Identity) error {
	return c.call(ctx, caller, MethodRevokeAdmin, member, nil)
}

func (c *Client) AddFinalizer(ctx context.Context, caller, member registry.Identity) error {
	return c.call(ctx, caller, MethodAddFinalizer, member, nil)
}

func (c *Client) RemoveFinalizer(ctx context.Context, caller, member registry.Identity) error {
	return c.call(ctx, caller, MethodRemoveFinalizer, member, nil)
}

func (c *Client) SetTrustedCaller(
	ctx context.Context,
	caller registry.Identity,
	member registry.Identity,
	enabled bool,
) error {
	return c.call(
		ctx,
		caller,
		MethodSetTrustedCaller,
		&TrustedCallerArgs{Member: member, Enabled: enabled},
		nil,
	)
}

// HasRole reports whether member is present in the given role map
func (c *Client) HasRole(
	ctx context.Context,
	role registry.Role,
	member registry.Identity,
) (bool, error) {
	var method string
	switch role {
	case registry.RoleAdmin:
		method = MethodIsAdmin
	case registry.RoleFinalizer:
		method = MethodIsFinalizer
	case registry.RoleTrustedCaller:
		method = MethodIsTrustedCaller
	default:
		return false, registry.ErrInvalidArgs
	}
	var ok bool
	err := c.view(ctx, method, member, &ok)
	return ok, err
}

func (c *Client) RoleMembers(ctx context.Context, role registry.Role) ([]registry.Identity, error) {
	var ret []registry.Identity
	if err := c.view(ctx, MethodRoleMembers, role, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) Owner(ctx context.Context) (registry.Identity, error) {
	var owner registry.Identity
	err := c.view(ctx, MethodOwner, nil, &owner)
	return owner, err
}

func (c *Client) WorkspaceCounter(ctx context.Context) (uint64, error) {
	var counter uint64
	err := c.view(ctx, MethodWorkspaceCounter, nil, &counter)
	return counter, err
}

func (c *Client) Lifecycle(ctx context.Context) (registry.LifecycleState, error) {
	var state uint8
	if err := c.view(ctx, MethodLifecycle, nil, &state); err != nil {
		return registry.ResetAllowed, err
	}
	return registry.LifecycleState(state), nil
}

func (c *Client) SubmitVotes(
	ctx context.Context,
	caller registry.Identity,
	proposalID uint64,
	counters []*big.Int,
) error {
	return c.call(
		ctx,
		caller,
		MethodSubmitVotes,
		&VotesArgs{ProposalID: proposalID, Counters: counters},
		nil,
	)
}

func (c *Client) GetProposalOptions(ctx context.Context, proposalID uint64) ([]*big.Int, error) {
	var ret []*big.Int
	if err := c.view(ctx, MethodGetProposalOptions, proposalID, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) ResetApp(ctx context.Context, caller registry.Identity) error {
	return c.call(ctx, caller, MethodResetApp, nil, nil)
}

func (c *Client) KillSwitch(ctx context.Context, caller registry.Identity) error {
	return c.call(ctx, caller, MethodKillSwitch, nil, nil)
}

// Version returns the stored schema version. Only schema 2 and later code
// exports it.
func (c *Client) Version(ctx context.Context) (uint64, error) {
	var version uint64
	err := c.view(ctx, MethodVersion, nil, &version)
	return version, err
}

func (c *Client) ProposalTotal(ctx context.Context) (uint64, error) {
	var total uint64
	err := c.view(ctx, MethodProposalTotal, nil, &total)
	return total, err
}
