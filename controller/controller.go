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

// Package controller implements the governance registry code that runs
// inside the host: role-gated workspace, proposal and vote storage with a
// one-way kill switch. Instances are normally reached through an upgrade
// proxy, so every handler reads and writes the storage of env.Self.
package controller

import (
	"fmt"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
)

const (
	CodeNameV1 = "geode/controller/v1"
	CodeNameV2 = "geode/controller/v2"

	SchemaVersionV1 uint64 = 1
	SchemaVersionV2 uint64 = 2
)

const (
	MethodInitialize         = "initialize"
	MethodAddWorkspace       = "addWorkspace"
	MethodGetWorkspace       = "getWorkspace"
	MethodListWorkspaces     = "listWorkspaces"
	MethodAddProposal        = "addProposal"
	MethodGetProposal        = "getProposal"
	MethodAddAdmin           = "addAdmin"
	MethodRevokeAdmin        = "revokeAdmin"
	MethodAddFinalizer       = "addFinalizer"
	MethodRemoveFinalizer    = "removeFinalizer"
	MethodSetTrustedCaller   = "setTrustedCaller"
	MethodIsAdmin            = "isAdmin"
	MethodIsFinalizer        = "isFinalizer"
	MethodIsTrustedCaller    = "isTrustedCaller"
	MethodRoleMembers        = "roleMembers"
	MethodOwner              = "owner"
	MethodWorkspaceCounter   = "workspaceCounter"
	MethodLifecycle          = "lifecycle"
	MethodSubmitVotes        = "submitVotes"
	MethodGetProposalOptions = "getProposalOptions"
	MethodResetApp           = "resetApp"
	MethodKillSwitch         = "killSwitch"
	// Schema version 2
	MethodVersion       = "version"
	MethodProposalTotal = "proposalTotal"
)

type methodFunc func(env *host.Env, args []byte) ([]byte, error)

type Controller struct {
	name               string
	schemaVersion      uint64
	killOnReset        bool
	registrationPolicy RegistrationPolicy
	methods            map[string]methodFunc
}

var (
	_ host.Code     = (*Controller)(nil)
	_ host.Migrator = (*Controller)(nil)
)

// NewV1 returns the first release of the registry code
func NewV1(opts ...ControllerOptionFunc) *Controller {
	return newController(CodeNameV1, SchemaVersionV1, opts...)
}

// NewV2 returns the registry code with the proposal total slot appended to
// the storage layout
func NewV2(opts ...ControllerOptionFunc) *Controller {
	return newController(CodeNameV2, SchemaVersionV2, opts...)
}

func newController(
	name string,
	schemaVersion uint64,
	opts ...ControllerOptionFunc,
) *Controller {
	c := &Controller{
		name:               name,
		schemaVersion:      schemaVersion,
		registrationPolicy: RegistrationOpen,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.methods = map[string]methodFunc{
		MethodInitialize:         c.initialize,
		MethodAddWorkspace:       c.addWorkspace,
		MethodGetWorkspace:       c.getWorkspace,
		MethodListWorkspaces:     c.listWorkspaces,
		MethodAddProposal:        c.addProposal,
		MethodGetProposal:        c.getProposal,
		MethodAddAdmin:           c.grantRole(registry.RoleAdmin),
		MethodRevokeAdmin:        c.revokeRole(registry.RoleAdmin),
		MethodAddFinalizer:       c.grantRole(registry.RoleFinalizer),
		MethodRemoveFinalizer:    c.revokeRole(registry.RoleFinalizer),
		MethodSetTrustedCaller:   c.setTrustedCaller,
		MethodIsAdmin:            c.hasRole(registry.RoleAdmin),
		MethodIsFinalizer:        c.hasRole(registry.RoleFinalizer),
		MethodIsTrustedCaller:    c.hasRole(registry.RoleTrustedCaller),
		MethodRoleMembers:        c.roleMembers,
		MethodOwner:              c.owner,
		MethodWorkspaceCounter:   c.workspaceCounter,
		MethodLifecycle:          c.lifecycle,
		MethodSubmitVotes:        c.submitVotes,
		MethodGetProposalOptions: c.getProposalOptions,
		MethodResetApp:           c.resetApp,
		MethodKillSwitch:         c.killSwitch,
	}
	if schemaVersion >= SchemaVersionV2 {
		c.methods[MethodVersion] = c.version
		c.methods[MethodProposalTotal] = c.proposalTotal
	}
	return c
}

func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) SchemaVersion() uint64 {
	return c.schemaVersion
}

func (c *Controller) Call(
	env *host.Env,
	method string,
	args []byte,
) ([]byte, error) {
	fn, ok := c.methods[method]
	if !ok {
		return nil, fmt.Errorf("%s: %w", method, registry.ErrUnknownMethod)
	}
	return fn(env, args)
}

// Methods returns the names of the methods the code exports
func (c *Controller) Methods() []string {
	ret := make([]string, 0, len(c.methods))
	for name := range c.methods {
		ret = append(ret, name)
	}
	return ret
}

func (c *Controller) initialize(env *host.Env, _ []byte) ([]byte, error) {
	s := env.Storage()
	version, err := s.Uint(registry.SlotSchemaVersion)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, registry.ErrAlreadyInitialized
	}
	if env.Caller == registry.ZeroIdentity {
		return nil, fmt.Errorf("%w: zero owner", registry.ErrInvalidArgs)
	}
	if err := s.SetOwner(env.Caller); err != nil {
		return nil, err
	}
	if err := s.SetUint(registry.SlotWorkspaceCounter, registry.BaseWorkspaceID); err != nil {
		return nil, err
	}
	if err := s.SetLifecycle(registry.ResetAllowed); err != nil {
		return nil, err
	}
	if err := s.SetUint(registry.SlotSchemaVersion, c.schemaVersion); err != nil {
		return nil, err
	}
	env.Emit(
		registry.EventTypeInitialized,
		registry.InitializedEvent{
			Instance:      env.Self,
			Owner:         env.Caller,
			SchemaVersion: c.schemaVersion,
		},
	)
	env.Logger().Info(
		fmt.Sprintf("initialized registry %s", env.Self),
		"component", "controller",
		"owner", env.Caller,
	)
	return nil, nil
}

func (c *Controller) owner(env *host.Env, _ []byte) ([]byte, error) {
	owner, err := env.Storage().Owner()
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(owner)
}

func (c *Controller) workspaceCounter(env *host.Env, _ []byte) ([]byte, error) {
	counter, err := env.Storage().Uint(registry.SlotWorkspaceCounter)
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(counter)
}

func (c *Controller) lifecycle(env *host.Env, _ []byte) ([]byte, error) {
	state, err := env.Storage().Lifecycle()
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(uint8(state))
}

func requireInitialized(s registry.Storage) error {
	version, err := s.Uint(registry.SlotSchemaVersion)
	if err != nil {
		return err
	}
	if version == 0 {
		return registry.ErrNotInitialized
	}
	return nil
}
