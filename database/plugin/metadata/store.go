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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/geode/database/models"
	"github.com/blinklabs-io/geode/database/plugin"
	"github.com/blinklabs-io/geode/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	NewTransaction() types.Txn
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error

	// Registry records. Getters return nil when no record exists.
	GetWorkspace(
		[]byte, // instance
		uint64, // workspaceID
		types.Txn,
	) (*models.Workspace, error)
	GetWorkspaces(
		[]byte, // instance
		types.Txn,
	) ([]models.Workspace, error)
	SetWorkspace(*models.Workspace, types.Txn) error
	GetProposal(
		[]byte, // instance
		uint64, // proposalID
		types.Txn,
	) (*models.Proposal, error)
	GetProposalsByWorkspace(
		[]byte, // instance
		uint64, // workspaceID
		types.Txn,
	) ([]models.Proposal, error)
	CountProposals(
		[]byte, // instance
		types.Txn,
	) (uint64, error)
	SetProposal(*models.Proposal, types.Txn) error
	GetVoteRecord(
		[]byte, // instance
		uint64, // proposalID
		types.Txn,
	) (*models.VoteRecord, error)
	SetVoteRecord(*models.VoteRecord, types.Txn) error
}

// New returns the started metadata plugin selected by name
func New(pluginName string, deps plugin.Deps) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, deps)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
