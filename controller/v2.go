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

// migrations maps a schema version to the step that brings storage written
// by the previous version up to it
var migrations = map[uint64]func(registry.Storage) error{
	SchemaVersionV2: func(s registry.Storage) error {
		// Backfill the appended proposal total slot
		count, err := s.CountProposals()
		if err != nil {
			return err
		}
		return s.SetUint(registry.SlotProposalTotal, count)
	},
}

// Migrate runs every migration step after from, up to the code's schema
// version, against the storage of env.Self
func (c *Controller) Migrate(env *host.Env, from uint64) error {
	if from > c.schemaVersion {
		return fmt.Errorf(
			"storage schema %d is newer than %d: %w",
			from,
			c.schemaVersion,
			registry.ErrIncompatibleSchema,
		)
	}
	s := env.Storage()
	for v := from + 1; v <= c.schemaVersion; v++ {
		if step, ok := migrations[v]; ok {
			if err := step(s); err != nil {
				return fmt.Errorf("migrate to schema %d: %w", v, err)
			}
		}
	}
	return s.SetUint(registry.SlotSchemaVersion, c.schemaVersion)
}

func (c *Controller) version(env *host.Env, _ []byte) ([]byte, error) {
	version, err := env.Storage().Uint(registry.SlotSchemaVersion)
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(version)
}

func (c *Controller) proposalTotal(env *host.Env, _ []byte) ([]byte, error) {
	total, err := env.Storage().Uint(registry.SlotProposalTotal)
	if err != nil {
		return nil, err
	}
	return host.EncodeArgs(total)
}
