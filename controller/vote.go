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
	"math/big"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
)

func (c *Controller) submitVotes(env *host.Env, args []byte) ([]byte, error) {
	var tmpArgs VotesArgs
	if err := host.DecodeArgs(args, &tmpArgs); err != nil {
		return nil, err
	}
	s := env.Storage()
	if err := requireInitialized(s); err != nil {
		return nil, err
	}
	if err := requireRole(s, registry.RoleFinalizer, env.Caller); err != nil {
		return nil, err
	}
	if len(tmpArgs.Counters) == 0 {
		return nil, fmt.Errorf("empty vote vector: %w", registry.ErrLengthMismatch)
	}
	for i, counter := range tmpArgs.Counters {
		if counter == nil || counter.Sign() < 0 {
			return nil, fmt.Errorf(
				"%w: counter %d must be a non-negative integer",
				registry.ErrInvalidArgs,
				i,
			)
		}
	}
	if _, err := s.Proposal(tmpArgs.ProposalID); err != nil {
		return nil, err
	}
	prev, err := s.Votes(tmpArgs.ProposalID)
	switch {
	case err == nil:
		if len(prev) != len(tmpArgs.Counters) {
			return nil, fmt.Errorf(
				"proposal %d has %d options, got %d: %w",
				tmpArgs.ProposalID,
				len(prev),
				len(tmpArgs.Counters),
				registry.ErrLengthMismatch,
			)
		}
	case !errors.Is(err, registry.ErrNotFound):
		return nil, err
	}
	if err := s.PutVotes(tmpArgs.ProposalID, tmpArgs.Counters); err != nil {
		return nil, err
	}
	env.Emit(
		registry.EventTypeVotesSubmitted,
		registry.VotesSubmittedEvent{
			Instance:   env.Self,
			ProposalID: tmpArgs.ProposalID,
			Counters:   tmpArgs.Counters,
			Sender:     env.Caller,
		},
	)
	return nil, nil
}

func (c *Controller) getProposalOptions(env *host.Env, args []byte) ([]byte, error) {
	var id uint64
	if err := host.DecodeArgs(args, &id); err != nil {
		return nil, err
	}
	counters, err := env.Storage().Votes(id)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		counters = []*big.Int{}
	}
	return host.EncodeArgs(counters)
}
