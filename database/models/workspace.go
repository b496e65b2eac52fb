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
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
)

// Workspace is a registered workspace of one registry instance. Instance is
// the address whose storage owns the record, which is the proxy when calls
// are delegated.
type Workspace struct {
	ID               uint   `gorm:"primarykey"`
	Instance         []byte `gorm:"uniqueIndex:idx_workspace_instance_id,priority:1;size:20;not null"`
	WorkspaceID      uint64 `gorm:"uniqueIndex:idx_workspace_instance_id,priority:2;not null"`
	Token            []byte `gorm:"size:20;not null"`
	AdditionalData   []byte
	LatestProposalID uint64 `gorm:"not null"`
}

func (Workspace) TableName() string {
	return "workspace"
}

func WorkspaceFromRegistry(
	instance registry.Identity,
	w *registry.Workspace,
) *Workspace {
	return &Workspace{
		Instance:         instance.Bytes(),
		WorkspaceID:      w.ID,
		Token:            w.Token.Bytes(),
		AdditionalData:   w.AdditionalData,
		LatestProposalID: w.LatestProposalID,
	}
}

func (w *Workspace) Registry() *registry.Workspace {
	return &registry.Workspace{
		ID:               w.WorkspaceID,
		Token:            common.BytesToAddress(w.Token),
		AdditionalData:   w.AdditionalData,
		LatestProposalID: w.LatestProposalID,
	}
}
