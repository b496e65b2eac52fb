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

package host

import (
	"fmt"

	"github.com/blinklabs-io/geode/registry"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// Code is deployable logic. A deployed address refers to its code by name.
// Code keeps no state of its own; everything persistent goes through the
// Env storage of the address it runs against.
type Code interface {
	Name() string
	// SchemaVersion is the storage layout version the code reads and writes
	SchemaVersion() uint64
	Call(env *Env, method string, args []byte) ([]byte, error)
}

// Constructor is implemented by code that runs setup logic when deployed
type Constructor interface {
	Construct(env *Env, args []byte) error
}

// Migrator is implemented by code that can bring storage written by an
// older schema version up to its own
type Migrator interface {
	Migrate(env *Env, from uint64) error
}

// EncodeArgs encodes call arguments or results
func EncodeArgs(v any) ([]byte, error) {
	data, err := cbor.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// DecodeArgs decodes call arguments into dest. Malformed input is reported
// as registry.ErrInvalidArgs.
func DecodeArgs(data []byte, dest any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing arguments", registry.ErrInvalidArgs)
	}
	if _, err := cbor.Decode(data, dest); err != nil {
		return fmt.Errorf("%w: %w", registry.ErrInvalidArgs, err)
	}
	return nil
}

// DecodeResult decodes a call result into dest
func DecodeResult(data []byte, dest any) error {
	if _, err := cbor.Decode(data, dest); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
