// Copyright 2025 Blink Labs Software
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

package models

import (
	"github.com/blinklabs-io/geode/database/types"
	"github.com/blinklabs-io/geode/registry"
)

type Proposal struct {
	ID          uint         `gorm:"primarykey"`
	Instance    []byte       `gorm:"uniqueIndex:idx_proposal_instance_id,priority:1;index:idx_proposal_workspace,priority:1;size:20;not null"`
	ProposalID  uint64       `gorm:"uniqueIndex:idx_proposal_instance_id,priority:2;not null"`
	WorkspaceID uint64       `gorm:"index:idx_proposal_workspace,priority:2;not null"`
	Start       types.BigInt `gorm:"not null"`
	End         types.BigInt `gorm:"not null"`
	Snapshot    types.BigInt `gorm:"not null"`
	Data        []byte
}

func (Proposal) TableName() string {
	return "proposal"
}

func ProposalFromRegistry(
	instance registry.Identity,
	p *registry.Proposal,
) *Proposal {
	return &Proposal{
		Instance:    instance.Bytes(),
		ProposalID:  p.ID,
		WorkspaceID: p.WorkspaceID,
		Start:       types.BigInt{Int: p.Start},
		End:         types.BigInt{Int: p.End},
		Snapshot:    types.BigInt{Int: p.Snapshot},
		Data:        p.Data,
	}
}

func (p *Proposal) Registry() *registry.Proposal {
	return &registry.Proposal{
		ID:          p.ProposalID,
		WorkspaceID: p.WorkspaceID,
		Start:       p.Start.Int,
		End:         p.End.Int,
		Snapshot:    p.Snapshot.Int,
		Data:        p.Data,
	}
}
