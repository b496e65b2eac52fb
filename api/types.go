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

package api

import (
	"math/big"

	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"isHealthy"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type StatusResponse struct {
	Owner            registry.Identity `json:"owner"`
	WorkspaceCounter uint64            `json:"workspaceCounter"`
	Lifecycle        string            `json:"lifecycle"`
}

type IDResponse struct {
	ID uint64 `json:"id"`
}

type WorkspaceRequest struct {
	Token registry.Identity `json:"token"`
	Data  hexutil.Bytes     `json:"data"`
}

type WorkspaceResponse struct {
	ID               uint64            `json:"id"`
	Token            registry.Identity `json:"token"`
	AdditionalData   hexutil.Bytes     `json:"additionalData"`
	LatestProposalID uint64            `json:"latestProposalId"`
}

func newWorkspaceResponse(ws *registry.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:               ws.ID,
		Token:            ws.Token,
		AdditionalData:   ws.AdditionalData,
		LatestProposalID: ws.LatestProposalID,
	}
}

// ProposalRequest carries arbitrary precision bounds as JSON numbers
type ProposalRequest struct {
	Start    *big.Int      `json:"start"`
	End      *big.Int      `json:"end"`
	Snapshot *big.Int      `json:"snapshot"`
	Data     hexutil.Bytes `json:"data"`
}

type ProposalResponse struct {
	ID          uint64        `json:"id"`
	WorkspaceID uint64        `json:"workspaceId"`
	Start       *big.Int      `json:"start"`
	End         *big.Int      `json:"end"`
	Snapshot    *big.Int      `json:"snapshot"`
	Data        hexutil.Bytes `json:"data"`
}

func newProposalResponse(p *registry.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Start:       p.Start,
		End:         p.End,
		Snapshot:    p.Snapshot,
		Data:        p.Data,
	}
}

type VotesRequest struct {
	Counters []*big.Int `json:"counters"`
}

type VotesResponse struct {
	ProposalID uint64     `json:"proposalId"`
	Counters   []*big.Int `json:"counters"`
}

type RoleMembersResponse struct {
	Role    registry.Role       `json:"role"`
	Members []registry.Identity `json:"members"`
}

type HasRoleResponse struct {
	Role   registry.Role     `json:"role"`
	Member registry.Identity `json:"member"`
	Active bool              `json:"active"`
}

type ProxyResponse struct {
	Implementation registry.Identity `json:"implementation"`
	ProxyAdmin     registry.Identity `json:"proxyAdmin"`
}

type UpgradeRequest struct {
	Implementation registry.Identity `json:"implementation"`
}

type ProxyOwnerRequest struct {
	Admin registry.Identity `json:"admin"`
}
