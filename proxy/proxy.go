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

// Package proxy implements the upgrade proxy: code that owns a storage
// namespace and forwards every call it does not handle itself to the
// currently installed implementation, which executes against the proxy's
// storage.
package proxy

import (
	"fmt"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const CodeName = "geode/proxy"

const (
	MethodUpgradeTo              = "upgradeTo"
	MethodUpgradeToAndCall       = "upgradeToAndCall"
	MethodImplementation         = "implementation"
	MethodProxyOwner             = "proxyOwner"
	MethodTransferProxyOwnership = "transferProxyOwnership"
)

// ConstructorArgs configures a new proxy. A zero Admin makes the deployer the
// proxy admin.
type ConstructorArgs struct {
	cbor.StructAsArray
	Implementation registry.Identity
	Admin          registry.Identity
}

type UpgradeToAndCallArgs struct {
	cbor.StructAsArray
	Implementation registry.Identity
	Method         string
	Args           []byte
}

type Proxy struct{}

var (
	_ host.Code        = Proxy{}
	_ host.Constructor = Proxy{}
)

func New() Proxy {
	return Proxy{}
}

func (Proxy) Name() string {
	return CodeName
}

// SchemaVersion is zero because the proxy keeps its own fields in the
// separate proxy namespace
func (Proxy) SchemaVersion() uint64 {
	return 0
}

func (p Proxy) Construct(env *host.Env, args []byte) error {
	var tmpArgs ConstructorArgs
	if err := host.DecodeArgs(args, &tmpArgs); err != nil {
		return err
	}
	if _, err := env.CodeAt(tmpArgs.Implementation); err != nil {
		return err
	}
	admin := tmpArgs.Admin
	if admin == registry.ZeroIdentity {
		admin = env.Caller
	}
	ps := env.ProxyStorage()
	if err := ps.SetProxyIdentity(registry.ProxySlotAdmin, admin); err != nil {
		return err
	}
	return ps.SetProxyIdentity(
		registry.ProxySlotImplementation,
		tmpArgs.Implementation,
	)
}

func (p Proxy) Call(env *host.Env, method string, args []byte) ([]byte, error) {
	switch method {
	case MethodUpgradeTo:
		var impl registry.Identity
		if err := host.DecodeArgs(args, &impl); err != nil {
			return nil, err
		}
		return nil, upgrade(env, impl)
	case MethodUpgradeToAndCall:
		var tmpArgs UpgradeToAndCallArgs
		if err := host.DecodeArgs(args, &tmpArgs); err != nil {
			return nil, err
		}
		if err := upgrade(env, tmpArgs.Implementation); err != nil {
			return nil, err
		}
		return env.Delegate(tmpArgs.Implementation, tmpArgs.Method, tmpArgs.Args)
	case MethodImplementation:
		impl, err := env.ProxyStorage().ProxyIdentity(registry.ProxySlotImplementation)
		if err != nil {
			return nil, err
		}
		return host.EncodeArgs(impl)
	case MethodProxyOwner:
		admin, err := env.ProxyStorage().ProxyIdentity(registry.ProxySlotAdmin)
		if err != nil {
			return nil, err
		}
		return host.EncodeArgs(admin)
	case MethodTransferProxyOwnership:
		var newAdmin registry.Identity
		if err := host.DecodeArgs(args, &newAdmin); err != nil {
			return nil, err
		}
		return nil, transferOwnership(env, newAdmin)
	}
	impl, err := env.ProxyStorage().ProxyIdentity(registry.ProxySlotImplementation)
	if err != nil {
		return nil, err
	}
	return env.Delegate(impl, method, args)
}

func requireProxyAdmin(env *host.Env) (registry.Identity, error) {
	admin, err := env.ProxyStorage().ProxyIdentity(registry.ProxySlotAdmin)
	if err != nil {
		return registry.ZeroIdentity, err
	}
	if env.Caller != admin {
		return registry.ZeroIdentity, fmt.Errorf(
			"%s is not the proxy admin: %w",
			env.Caller,
			registry.ErrUnauthorized,
		)
	}
	return admin, nil
}

// upgrade migrates the proxy storage to the schema of the new implementation
// and installs it. Both happen in the caller's transaction.
func upgrade(env *host.Env, impl registry.Identity) error {
	if _, err := requireProxyAdmin(env); err != nil {
		return err
	}
	code, err := env.CodeAt(impl)
	if err != nil {
		return err
	}
	stored, err := env.Storage().Uint(registry.SlotSchemaVersion)
	if err != nil {
		return err
	}
	target := code.SchemaVersion()
	if stored > target {
		return fmt.Errorf(
			"%s implements schema %d, storage is at %d: %w",
			code.Name(),
			target,
			stored,
			registry.ErrIncompatibleSchema,
		)
	}
	// Uninitialized storage is written at the new schema by initialize
	if stored > 0 && stored < target {
		migrator, ok := code.(host.Migrator)
		if !ok {
			return fmt.Errorf(
				"%s cannot migrate schema %d: %w",
				code.Name(),
				stored,
				registry.ErrIncompatibleSchema,
			)
		}
		if err := migrator.Migrate(env, stored); err != nil {
			return err
		}
		env.Emit(
			registry.EventTypeSchemaMigrated,
			registry.SchemaMigratedEvent{
				Instance: env.Self,
				From:     stored,
				To:       target,
			},
		)
	}
	if err := env.ProxyStorage().SetProxyIdentity(registry.ProxySlotImplementation, impl); err != nil {
		return err
	}
	env.Emit(
		registry.EventTypeUpgraded,
		registry.UpgradedEvent{
			Proxy:          env.Self,
			Implementation: impl,
			Code:           code.Name(),
		},
	)
	env.Logger().Info(
		fmt.Sprintf("proxy %s upgraded to %s (%s)", env.Self, impl, code.Name()),
		"component", "proxy",
	)
	return nil
}

func transferOwnership(env *host.Env, newAdmin registry.Identity) error {
	prev, err := requireProxyAdmin(env)
	if err != nil {
		return err
	}
	if newAdmin == registry.ZeroIdentity {
		return fmt.Errorf("%w: zero proxy admin", registry.ErrInvalidArgs)
	}
	if err := env.ProxyStorage().SetProxyIdentity(registry.ProxySlotAdmin, newAdmin); err != nil {
		return err
	}
	env.Emit(
		registry.EventTypeProxyAdminChanged,
		registry.ProxyAdminChangedEvent{
			Proxy:    env.Self,
			Previous: prev,
			Current:  newAdmin,
		},
	)
	return nil
}
