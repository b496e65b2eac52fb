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

import "errors"

var (
	ErrBlobKeyNotFound = errors.New("blob key not found")
	ErrTxnWrongType    = errors.New("invalid transaction type")
	ErrNilTxn          = errors.New("nil transaction")
	// ErrNoStoreAvailable is returned when neither store is configured
	ErrNoStoreAvailable     = errors.New("no store available")
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	// ErrTxnFinished is returned when a transaction is used after commit or rollback
	ErrTxnFinished = errors.New("transaction already finished")
)
