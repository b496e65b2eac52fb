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
	"context"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/event"
	"github.com/blinklabs-io/geode/registry"
)

// MaxCallDepth bounds nested delegation
const MaxCallDepth = 8

// Env is the execution context of one code invocation. Self is the address
// whose storage the code operates on. When a proxy delegates, Self stays the
// proxy while the implementation's code runs.
type Env struct {
	Ctx    context.Context
	Caller registry.Identity
	Self   registry.Identity
	host   *Host
	txn    *database.Txn
	events *[]event.Event
	depth  int
}

// Storage returns the registry storage of Self
func (e *Env) Storage() registry.Storage {
	return e.txn.Storage(e.Self)
}

// ProxyStorage returns the proxy-only namespace of Self
func (e *Env) ProxyStorage() registry.ProxyStorage {
	return e.txn.Storage(e.Self)
}

func (e *Env) Logger() *slog.Logger {
	return e.host.logger
}

// Emit queues an event. It is published only if the whole call commits.
func (e *Env) Emit(eventType string, data any) {
	evtType := event.EventType(eventType)
	*e.events = append(*e.events, event.NewEvent(evtType, data))
}

// CodeAt returns the code deployed at an address
func (e *Env) CodeAt(address registry.Identity) (Code, error) {
	return e.host.codeAt(e.txn, address)
}

// Delegate runs the code deployed at impl against Self's storage with the
// same caller
func (e *Env) Delegate(
	impl registry.Identity,
	method string,
	args []byte,
) ([]byte, error) {
	code, err := e.CodeAt(impl)
	if err != nil {
		return nil, err
	}
	child, err := e.child(e.Self)
	if err != nil {
		return nil, err
	}
	return code.Call(child, method, args)
}

// child returns an env one delegation level deeper
func (e *Env) child(self registry.Identity) (*Env, error) {
	if e.depth+1 > MaxCallDepth {
		return nil, fmt.Errorf("call depth exceeds %d", MaxCallDepth)
	}
	return &Env{
		Ctx:    e.Ctx,
		Caller: e.Caller,
		Self:   self,
		host:   e.host,
		txn:    e.txn,
		events: e.events,
		depth:  e.depth + 1,
	}, nil
}
