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

func (c *Controller) addWorkspace(env *host.Env, args []byte) ([]byte, error) {
	var tmpArgs WorkspaceArgs
	if err := host.DecodeArgs(args, &tmpArgs); err != nil {
		return nil, err
	}
	s := env.Storage()
	if err := c.requireRegistrant(s, env.Caller); err != nil {
		return nil, err
	}
	id, err := s.Uint(registry.SlotWorkspaceCounter)
	if err != nil {
		return nil, err
	}
	ws := &registry.Workspace{
		ID:             id,
		Token:          tmpArgs.Token,
		AdditionalData: tmpArgs.Data,
	}
	// A record left over from before a reset is overwritten
	if err := s.PutWorkspace(ws); err != nil {
		return nil, err
	}
	if err := s.SetUint(registry.SlotWorkspaceCounter, id+1); err != nil {
		return nil, err
	}
	env.Emit(
		registry.EventTypeWorkspaceAdded,
		registry.WorkspaceAddedEvent{
			Instance:    env.Self,
			WorkspaceID: id,
			Token:       tmpArgs.Token,
			Sender:      env.Caller,
		},
	)
	return host.EncodeArgs(id)
}

// loadWorkspace returns a workspace reachable through the current counter
func loadWorkspace(s registry.Storage, id uint64) (*registry.Workspace, error) {
	counter, err := s.Uint(registry.SlotWorkspaceCounter)
	if err != nil {
		return nil, err
	}
	if id < registry.BaseWorkspaceID || id >= counter {
		return nil, fmt.Errorf("workspace %d: %w", id, registry.ErrNotFound)
	}
	return s.Workspace(id)
}

func (c *Controller) getWorkspace(env *host.Env, args []byte) ([]byte, error) {
	var id uint64
	if err := host.DecodeArgs(args, &id); err != nil {
		return nil, err
	}
	ws, err := loadWorkspace(env.Storage(), id)
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(ws)
}

// listWorkspaces returns the workspaces reachable through the current counter
func (c *Controller) listWorkspaces(env *host.Env, _ []byte) ([]byte, error) {
	s := env.Storage()
	counter, err := s.Uint(registry.SlotWorkspaceCounter)
	if err != nil {
		return nil, err
	}
	all, err := s.Workspaces()
	if err != nil {
		return nil, err
	}
	ret := make([]*registry.Workspace, 0, len(all))
	for _, ws := range all {
		if ws.ID >= registry.BaseWorkspaceID && ws.ID < counter {
			ret = append(ret, ws)
		}
	}
	return host.EncodeArgs(ret)
}
