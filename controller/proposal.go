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
	"errors"
	"fmt"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
)

func (c *Controller) addProposal(env *host.Env, args []byte) ([]byte, error) {
	var tmpArgs ProposalArgs
	if err := host.DecodeArgs(args, &tmpArgs); err != nil {
		return nil, err
	}
	s := env.Storage()
	if err := c.requireRegistrant(s, env.Caller); err != nil {
		return nil, err
	}
	ws, err := loadWorkspace(s, tmpArgs.WorkspaceID)
	if err != nil {
		return nil, err
	}
	id := ws.NextProposalID()
	existing, err := s.Proposal(id)
	switch {
	case err == nil:
		if existing.WorkspaceID != ws.ID {
			return nil, fmt.Errorf(
				"proposal %d belongs to workspace %d: %w",
				id,
				existing.WorkspaceID,
				registry.ErrProposalConflict,
			)
		}
	case !errors.Is(err, registry.ErrNotFound):
		return nil, err
	}
	p := &registry.Proposal{
		ID:          id,
		WorkspaceID: ws.ID,
		Start:       tmpArgs.Start,
		End:         tmpArgs.End,
		Snapshot:    tmpArgs.Snapshot,
		Data:        tmpArgs.Data,
	}
	if err := s.PutProposal(p); err != nil {
		return nil, err
	}
	ws.LatestProposalID = id
	if err := s.PutWorkspace(ws); err != nil {
		return nil, err
	}
	if c.schemaVersion >= SchemaVersionV2 {
		total, err := s.Uint(registry.SlotProposalTotal)
		if err != nil {
			return nil, err
		}
		if err := s.SetUint(registry.SlotProposalTotal, total+1); err != nil {
			return nil, err
		}
	}
	env.Emit(
		registry.EventTypeProposalAdded,
		registry.ProposalAddedEvent{
			Instance:    env.Self,
			ProposalID:  id,
			WorkspaceID: ws.ID,
			Sender:      env.Caller,
		},
	)
	return host.EncodeArgs(id)
}

func (c *Controller) getProposal(env *host.Env, args []byte) ([]byte, error) {
	var id uint64
	if err := host.DecodeArgs(args, &id); err != nil {
		return nil, err
	}
	p, err := env.Storage().Proposal(id)
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(p)
}
