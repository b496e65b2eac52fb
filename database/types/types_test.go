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

package types_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/blinklabs-io/geode/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigIntScanValue(t *testing.T) {
	orig := types.BigInt{Int: new(big.Int).Lsh(big.NewInt(1), 100)}
	val, err := orig.Value()
	require.NoError(t, err)
	assert.Equal(t, "1267650600228229401496703205376", val)

	var out types.BigInt
	require.NoError(t, out.Scan(val))
	assert.Equal(t, 0, orig.Cmp(out.Int))

	// Drivers that hand back text as bytes
	require.NoError(t, out.Scan([]byte("42")))
	assert.Equal(t, int64(42), out.Int64())

	require.Error(t, out.Scan(42))
	require.Error(t, out.Scan("not a number"))
}

func TestBigIntNilRoundTrip(t *testing.T) {
	var b types.BigInt
	val, err := b.Value()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var out types.BigInt
	if err := out.Scan(val); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out.Int != nil {
		t.Fatalf("expected nil big.Int, got %s", out.String())
	}
}

func TestSlotBlobKeyMapEntry(t *testing.T) {
	instance := bytes.Repeat([]byte{0xab}, 20)
	entry := bytes.Repeat([]byte{0x01}, 20)
	key := types.SlotBlobKey(instance, 3, entry)
	if !bytes.HasPrefix(key, types.SlotBlobKeyMapPrefix(instance, 3)) {
		t.Fatalf("key %x does not start with map prefix", key)
	}
	if got := types.SlotBlobKeyMapEntry(key); !bytes.Equal(got, entry) {
		t.Fatalf("did not get expected map entry: got %x, expected %x", got, entry)
	}
	if types.BytesToUint64(types.Uint64ToBytes(1<<20)) != 1<<20 {
		t.Fatalf("uint64 key encoding did not round trip")
	}
}
