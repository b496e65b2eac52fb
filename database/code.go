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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/geode/database/types"
	"github.com/blinklabs-io/geode/registry"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// Code returns the name of the code deployed at an address, or an empty
// string if there is none
func (t *Txn) Code(address registry.Identity) (string, error) {
	val, err := t.DB().Blob().Get(t.Blob(), types.CodeBlobKey(address.Bytes()))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(val), nil
}

func (t *Txn) SetCode(address registry.Identity, name string) error {
	return t.DB().Blob().Set(
		t.Blob(),
		types.CodeBlobKey(address.Bytes()),
		[]byte(name),
	)
}

// Nonce returns the number of deployments made by a deployer
func (t *Txn) Nonce(deployer registry.Identity) (uint64, error) {
	val, err := t.DB().Blob().Get(t.Blob(), types.NonceBlobKey(deployer.Bytes()))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return types.BytesToUint64(val), nil
}

func (t *Txn) SetNonce(deployer registry.Identity, nonce uint64) error {
	return t.DB().Blob().Set(
		t.Blob(),
		types.NonceBlobKey(deployer.Bytes()),
		types.Uint64ToBytes(nonce),
	)
}

// Deployment records the addresses created when the node first bootstrapped
// the registry
type Deployment struct {
	cbor.StructAsArray
	Implementation registry.Identity
	Proxy          registry.Identity
	Deployer       registry.Identity
}

// Deployment returns the bootstrap record, or nil if the registry was never
// bootstrapped
func (t *Txn) Deployment() (*Deployment, error) {
	val, err := t.DB().Blob().Get(t.Blob(), []byte(types.DeploymentBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ret Deployment
	if _, err := cbor.Decode(val, &ret); err != nil {
		return nil, fmt.Errorf("decode deployment record: %w", err)
	}
	return &ret, nil
}

func (t *Txn) SetDeployment(d *Deployment) error {
	val, err := cbor.Encode(d)
	if err != nil {
		return fmt.Errorf("encode deployment record: %w", err)
	}
	return t.DB().Blob().Set(t.Blob(), []byte(types.DeploymentBlobKey), val)
}
