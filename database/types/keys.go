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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	SlotBlobKeyPrefix       = "s"
	ProxySlotBlobKeyPrefix  = "p"
	CodeBlobKeyPrefix       = "c"
	NonceBlobKeyPrefix      = "n"
	DeploymentBlobKey       = "deployment"
	CommitTimestampBlobKey  = "metadata_commit_timestamp"
	instanceAddressByteSize = 20
)

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func BytesToUint64(input []byte) uint64 {
	if len(input) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(input)
}

// SlotBlobKey returns the key for a storage slot of an instance. The
// optional suffix addresses a single entry of a mapping slot.
func SlotBlobKey(instance []byte, slot uint8, suffix []byte) []byte {
	return slices.Concat(
		[]byte(SlotBlobKeyPrefix),
		instance,
		[]byte{slot},
		suffix,
	)
}

// SlotBlobKeyMapPrefix returns the key prefix shared by all entries of a mapping slot
func SlotBlobKeyMapPrefix(instance []byte, slot uint8) []byte {
	return SlotBlobKey(instance, slot, nil)
}

// SlotBlobKeyMapEntry extracts the mapping key from a full slot key
func SlotBlobKeyMapEntry(key []byte) []byte {
	// prefix + instance + slot
	offset := len(SlotBlobKeyPrefix) + instanceAddressByteSize + 1
	if len(key) < offset {
		return nil
	}
	return key[offset:]
}

// ProxySlotBlobKey returns the key for a proxy-only slot of an instance
func ProxySlotBlobKey(instance []byte, slot uint8) []byte {
	return slices.Concat(
		[]byte(ProxySlotBlobKeyPrefix),
		instance,
		[]byte{slot},
	)
}

// CodeBlobKey returns the key holding the code name deployed at an address
func CodeBlobKey(address []byte) []byte {
	return slices.Concat([]byte(CodeBlobKeyPrefix), address)
}

// NonceBlobKey returns the key holding the deployment nonce of a deployer
func NonceBlobKey(deployer []byte) []byte {
	return slices.Concat([]byte(NonceBlobKeyPrefix), deployer)
}
