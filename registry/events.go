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

package registry

import "math/big"

// Event types emitted by registry code. The host publishes them on the
// event bus after the call that produced them commits.
const (
	EventTypeInitialized       = "registry.initialized"
	EventTypeRoleChanged       = "registry.role_changed"
	EventTypeWorkspaceAdded    = "registry.workspace_added"
	EventTypeProposalAdded     = "registry.proposal_added"
	EventTypeVotesSubmitted    = "registry.votes_submitted"
	EventTypeReset             = "registry.reset"
	EventTypeKillSwitch        = "registry.kill_switch"
	EventTypeUpgraded          = "registry.upgraded"
	EventTypeProxyAdminChanged = "registry.proxy_admin_changed"
	EventTypeDeployed          = "registry.deployed"
	EventTypeSchemaMigrated    = "registry.schema_migrated"
)

// AllEventTypes lists every event type emitted by registry code
var AllEventTypes = []string{
	EventTypeInitialized,
	EventTypeRoleChanged,
	EventTypeWorkspaceAdded,
	EventTypeProposalAdded,
	EventTypeVotesSubmitted,
	EventTypeReset,
	EventTypeKillSwitch,
	EventTypeUpgraded,
	EventTypeProxyAdminChanged,
	EventTypeDeployed,
	EventTypeSchemaMigrated,
}

type InitializedEvent struct {
	Instance      Identity `json:"instance"`
	Owner         Identity `json:"owner"`
	SchemaVersion uint64   `json:"schemaVersion"`
}

type RoleChangedEvent struct {
	Instance Identity `json:"instance"`
	Role     Role     `json:"role"`
	Member   Identity `json:"member"`
	Granted  bool     `json:"granted"`
	Sender   Identity `json:"sender"`
}

type WorkspaceAddedEvent struct {
	Instance    Identity `json:"instance"`
	WorkspaceID uint64   `json:"workspaceId"`
	Token       Identity `json:"token"`
	Sender      Identity `json:"sender"`
}

type ProposalAddedEvent struct {
	Instance    Identity `json:"instance"`
	ProposalID  uint64   `json:"proposalId"`
	WorkspaceID uint64   `json:"workspaceId"`
	Sender      Identity `json:"sender"`
}

type VotesSubmittedEvent struct {
	Instance   Identity   `json:"instance"`
	ProposalID uint64     `json:"proposalId"`
	Counters   []*big.Int `json:"counters"`
	Sender     Identity   `json:"sender"`
}

type ResetEvent struct {
	Instance         Identity `json:"instance"`
	WorkspaceCounter uint64   `json:"workspaceCounter"`
	Sender           Identity `json:"sender"`
}

type KillSwitchEvent struct {
	Instance Identity `json:"instance"`
	Sender   Identity `json:"sender"`
}

type UpgradedEvent struct {
	Proxy          Identity `json:"proxy"`
	Implementation Identity `json:"implementation"`
	Code           string   `json:"code"`
}

type ProxyAdminChangedEvent struct {
	Proxy    Identity `json:"proxy"`
	Previous Identity `json:"previous"`
	Current  Identity `json:"current"`
}

type DeployedEvent struct {
	Address  Identity `json:"address"`
	Code     string   `json:"code"`
	Deployer Identity `json:"deployer"`
}

type SchemaMigratedEvent struct {
	Instance Identity `json:"instance"`
	From     uint64   `json:"from"`
	To       uint64   `json:"to"`
}
