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

import "errors"

// ErrUnauthorized is returned when the caller lacks the required role or identity
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound is returned when a referenced workspace, proposal or vote record does not exist
var ErrNotFound = errors.New("not found")

// ErrLengthMismatch is returned when a vote vector length disagrees with the proposal's option count
var ErrLengthMismatch = errors.New("vote vector length mismatch")

// ErrAlreadyDisabled is returned when reset is attempted after the kill switch fired
var ErrAlreadyDisabled = errors.New("reset permanently disabled")

// ErrNotInitialized is returned when mutating an instance that was never initialized
var ErrNotInitialized = errors.New("not initialized")

// ErrAlreadyInitialized is returned by a second initialize call
var ErrAlreadyInitialized = errors.New("already initialized")

// ErrUnknownMethod is returned when a call names a method the code does not export
var ErrUnknownMethod = errors.New("unknown method")

// ErrInvalidArgs is returned when call arguments cannot be decoded or are out of range
var ErrInvalidArgs = errors.New("invalid arguments")

// ErrNoCode is returned when an address has no deployed code
var ErrNoCode = errors.New("no code at address")

// ErrIncompatibleSchema is returned when an upgrade would move storage to an older schema
var ErrIncompatibleSchema = errors.New("incompatible storage schema")

// ErrProposalConflict is returned when a derived proposal ID is held by
// another workspace. A proposal ID is the workspace ID plus the workspace's
// proposal count plus one, so the second proposal of workspace W needs the ID
// already taken by the first proposal of workspace W+1. The call then
// fails rather than overwriting the stored proposal, and the API answers 409.
var ErrProposalConflict = errors.New("proposal id held by another workspace")
