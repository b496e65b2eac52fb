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
	"fmt"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
)

// requireAdmin is the guard shared by every admin-gated operation. The owner
// always passes for revocations. For grants and resets the owner passes only
// until the kill switch fires, after which only members of the admin map do.
func requireAdmin(
	s registry.Storage,
	caller registry.Identity,
	granting bool,
) error {
	if err := requireInitialized(s); err != nil {
		return err
	}
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	if caller == owner {
		if !granting {
			return nil
		}
		state, err := s.Lifecycle()
		if err != nil {
			return err
		}
		if state == registry.ResetAllowed {
			return nil
		}
	}
	return requireRole(s, registry.RoleAdmin, caller)
}

// requireRole checks role map membership only. The owner gets no bypass.
func requireRole(
	s registry.Storage,
	role registry.Role,
	caller registry.Identity,
) error {
	ok, err := s.HasRole(role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf(
			"%s is not %s: %w",
			caller,
			role,
			registry.ErrUnauthorized,
		)
	}
	return nil
}

// requireRegistrant applies the registration policy to workspace and
// proposal creation
func (c *Controller) requireRegistrant(
	s registry.Storage,
	caller registry.Identity,
) error {
	if err := requireInitialized(s); err != nil {
		return err
	}
	if c.registrationPolicy != RegistrationTrusted {
		return nil
	}
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	if caller == owner {
		return nil
	}
	for _, role := range []registry.Role{registry.RoleTrustedCaller, registry.RoleAdmin} {
		ok, err := s.HasRole(role, caller)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf(
		"%s may not register: %w",
		caller,
		registry.ErrUnauthorized,
	)
}

func (c *Controller) setRole(
	env *host.Env,
	role registry.Role,
	member registry.Identity,
	granted bool,
) error {
	s := env.Storage()
	if err := requireAdmin(s, env.Caller, granted); err != nil {
		return err
	}
	if err := s.SetRole(role, member, granted); err != nil {
		return err
	}
	env.Emit(
		registry.EventTypeRoleChanged,
		registry.RoleChangedEvent{
			Instance: env.Self,
			Role:     role,
			Member:   member,
			Granted:  granted,
			Sender:   env.Caller,
		},
	)
	return nil
}

func (c *Controller) grantRole(role registry.Role) methodFunc {
	return func(env *host.Env, args []byte) ([]byte, error) {
		var member registry.Identity
		if err := host.DecodeArgs(args, &member); err != nil {
			return nil, err
		}
		return nil, c.setRole(env, role, member, true)
	}
}

func (c *Controller) revokeRole(role registry.Role) methodFunc {
	return func(env *host.Env, args []byte) ([]byte, error) {
		var member registry.Identity
		if err := host.DecodeArgs(args, &member); err != nil {
			return nil, err
		}
		return nil, c.setRole(env, role, member, false)
	}
}

func (c *Controller) setTrustedCaller(env *host.Env, args []byte) ([]byte, error) {
	var tmpArgs TrustedCallerArgs
	if err := host.DecodeArgs(args, &tmpArgs); err != nil {
		return nil, err
	}
	return nil, c.setRole(
		env,
		registry.RoleTrustedCaller,
		tmpArgs.Member,
		tmpArgs.Enabled,
	)
}

func (c *Controller) hasRole(role registry.Role) methodFunc {
	return func(env *host.Env, args []byte) ([]byte, error) {
		var member registry.Identity
		if err := host.DecodeArgs(args, &member); err != nil {
			return nil, err
		}
		ok, err := env.Storage().HasRole(role, member)
		if err != nil {
			return nil, err
		}
		return host.EncodeArgs(ok)
	}
}

func (c *Controller) roleMembers(env *host.Env, args []byte) ([]byte, error) {
	var role registry.Role
	if err := host.DecodeArgs(args, &role); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %d", registry.ErrInvalidArgs, uint8(role))
	}
	members, err := env.Storage().RoleMembers(role)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []registry.Identity{}
	}
	return host.EncodeArgs(members)
}
