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

// requireResetAllowed comes before the admin guard so every caller sees
// ErrAlreadyDisabled once the kill switch has fired
func requireResetAllowed(s registry.Storage) error {
	if err := requireInitialized(s); err != nil {
		return err
	}
	state, err := s.Lifecycle()
	if err != nil {
		return err
	}
	if state != registry.ResetAllowed {
		return registry.ErrAlreadyDisabled
	}
	return nil
}

func (c *Controller) resetApp(env *host.Env, _ []byte) ([]byte, error) {
	s := env.Storage()
	if err := requireResetAllowed(s); err != nil {
		return nil, err
	}
	if err := requireAdmin(s, env.Caller, true); err != nil {
		return nil, err
	}
	if err := s.SetUint(registry.SlotWorkspaceCounter, registry.BaseWorkspaceID); err != nil {
		return nil, err
	}
	env.Emit(
		registry.EventTypeReset,
		registry.ResetEvent{
			Instance:         env.Self,
			WorkspaceCounter: registry.BaseWorkspaceID,
			Sender:           env.Caller,
		},
	)
	env.Logger().Warn(
		fmt.Sprintf("registry %s reset", env.Self),
		"component", "controller",
		"sender", env.Caller,
	)
	if c.killOnReset {
		return nil, disableReset(env, s)
	}
	return nil, nil
}

func (c *Controller) killSwitch(env *host.Env, _ []byte) ([]byte, error) {
	s := env.Storage()
	if err := requireResetAllowed(s); err != nil {
		return nil, err
	}
	if err := requireAdmin(s, env.Caller, true); err != nil {
		return nil, err
	}
	return nil, disableReset(env, s)
}

func disableReset(env *host.Env, s registry.Storage) error {
	if err := s.SetLifecycle(registry.ResetPermanentlyDisabled); err != nil {
		return err
	}
	env.Emit(
		registry.EventTypeKillSwitch,
		registry.KillSwitchEvent{
			Instance: env.Self,
			Sender:   env.Caller,
		},
	)
	env.Logger().Warn(
		fmt.Sprintf("registry %s reset permanently disabled", env.Self),
		"component", "controller",
		"sender", env.Caller,
	)
	return nil
}
