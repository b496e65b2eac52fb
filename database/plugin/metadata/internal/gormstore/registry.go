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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/geode/database/models"
	"github.com/blinklabs-io/geode/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetWorkspace(
	instance []byte,
	workspaceID uint64,
	txn types.Txn,
) (*models.Workspace, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Workspace
	result := db.Where(
		"instance = ? AND workspace_id = ?",
		instance,
		workspaceID,
	).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

func (s *Store) GetWorkspaces(
	instance []byte,
	txn types.Txn,
) ([]models.Workspace, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Workspace
	result := db.Where("instance = ?", instance).
		Order("workspace_id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) SetWorkspace(
	workspace *models.Workspace,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "instance"},
			{Name: "workspace_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"token",
			"additional_data",
			"latest_proposal_id",
		}),
	}).Create(workspace)
	if result.Error != nil {
		return result.Error
	}
	s.recordWrite(models.Workspace{}.TableName())
	return nil
}

func (s *Store) GetProposal(
	instance []byte,
	proposalID uint64,
	txn types.Txn,
) (*models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Proposal
	result := db.Where(
		"instance = ? AND proposal_id = ?",
		instance,
		proposalID,
	).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

func (s *Store) GetProposalsByWorkspace(
	instance []byte,
	workspaceID uint64,
	txn types.Txn,
) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	result := db.Where(
		"instance = ? AND workspace_id = ?",
		instance,
		workspaceID,
	).Order("proposal_id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) CountProposals(
	instance []byte,
	txn types.Txn,
) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.Proposal{}).
		Where("instance = ?", instance).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}

func (s *Store) SetProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "instance"},
			{Name: "proposal_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"workspace_id",
			"start",
			"end",
			"snapshot",
			"data",
		}),
	}).Create(proposal)
	if result.Error != nil {
		return result.Error
	}
	s.recordWrite(models.Proposal{}.TableName())
	return nil
}

func (s *Store) GetVoteRecord(
	instance []byte,
	proposalID uint64,
	txn types.Txn,
) (*models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.VoteRecord
	result := db.Where(
		"instance = ? AND proposal_id = ?",
		instance,
		proposalID,
	).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

func (s *Store) SetVoteRecord(
	record *models.VoteRecord,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "instance"},
			{Name: "proposal_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"counters"}),
	}).Create(record)
	if result.Error != nil {
		return result.Error
	}
	s.recordWrite(models.VoteRecord{}.TableName())
	return nil
}
