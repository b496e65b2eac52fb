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
	"math/big"

	"github.com/blinklabs-io/geode/registry"
	"github.com/blinklabs-io/gouroboros/cbor"
)

type WorkspaceArgs struct {
	cbor.StructAsArray
	Token registry.Identity
	Data  []byte
}

type ProposalArgs struct {
	cbor.StructAsArray
	WorkspaceID uint64
	Start       *big.Int
	End         *big.Int
	Snapshot    *big.Int
	Data        []byte
}

type TrustedCallerArgs struct {
	cbor.StructAsArray
	Member  registry.Identity
	Enabled bool
}

type VotesArgs struct {
	cbor.StructAsArray
	ProposalID uint64
	Counters   []*big.Int
}
