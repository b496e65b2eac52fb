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
	"fmt"
	"math/big"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// VoteRecord holds the tallied counters submitted for a proposal. Counters
// are CBOR encoded since the vector length varies per proposal.
type VoteRecord struct {
	ID         uint   `gorm:"primarykey"`
	Instance   []byte `gorm:"uniqueIndex:idx_vote_record_instance_id,priority:1;size:20;not null"`
	ProposalID uint64 `gorm:"uniqueIndex:idx_vote_record_instance_id,priority:2;not null"`
	Counters   []byte `gorm:"not null"`
}

func (VoteRecord) TableName() string {
	return "vote_record"
}

func NewVoteRecord(
	instance []byte,
	proposalID uint64,
	counters []*big.Int,
) (*VoteRecord, error) {
	countersCbor, err := cbor.Encode(counters)
	if err != nil {
		return nil, fmt.Errorf("encode vote counters: %w", err)
	}
	return &VoteRecord{
		Instance:   instance,
		ProposalID: proposalID,
		Counters:   countersCbor,
	}, nil
}

func (v *VoteRecord) Decode() ([]*big.Int, error) {
	var ret []*big.Int
	if _, err := cbor.Decode(v.Counters, &ret); err != nil {
		return nil, fmt.Errorf("decode vote counters: %w", err)
	}
	return ret, nil
}
