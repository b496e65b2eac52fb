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

package proxy

import (
	"context"

	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/registry"
)

type Invoker interface {
	Call(ctx context.Context, caller, target registry.Identity, method string, args []byte) ([]byte, error)
	View(ctx context.Context, caller, target registry.Identity, method string, args []byte) ([]byte, error)
}

// Deployer creates new code instances. *host.Host satisfies it.
type Deployer interface {
	Deploy(ctx context.Context, deployer registry.Identity, codeName string, args []byte) (registry.Identity, error)
}

// Deploy creates a proxy in front of impl administered by admin
func Deploy(
	ctx context.Context,
	d Deployer,
	deployer registry.Identity,
	impl registry.Identity,
	admin registry.Identity,
) (registry.Identity, error) {
	args, err := host.EncodeArgs(
		&ConstructorArgs{
			Implementation: impl,
			Admin:          admin,
		},
	)
	if err != nil {
		return registry.ZeroIdentity, err
	}
	return d.Deploy(ctx, deployer, CodeName, args)
}

// Client calls the proxy management methods of one proxy
type Client struct {
	invoker Invoker
	proxy   registry.Identity
}

func NewClient(invoker Invoker, proxy registry.Identity) *Client {
	return &Client{
		invoker: invoker,
		proxy:   proxy,
	}
}

func (c *Client) UpgradeTo(
	ctx context.Context,
	caller registry.Identity,
	impl registry.Identity,
) error {
	args, err := host.EncodeArgs(impl)
	if err != nil {
		return err
	}
	_, err = c.invoker.Call(ctx, caller, c.proxy, MethodUpgradeTo, args)
	return err
}

// UpgradeToAndCall upgrades and then runs method on the new implementation
// in the same transaction. It returns the raw result of the call.
func (c *Client) UpgradeToAndCall(
	ctx context.Context,
	caller registry.Identity,
	impl registry.Identity,
	method string,
	methodArgs []byte,
) ([]byte, error) {
	args, err := host.EncodeArgs(
		&UpgradeToAndCallArgs{
			Implementation: impl,
			Method:         method,
			Args:           methodArgs,
		},
	)
	if err != nil {
		return nil, err
	}
	return c.invoker.Call(ctx, caller, c.proxy, MethodUpgradeToAndCall, args)
}

func (c *Client) TransferProxyOwnership(
	ctx context.Context,
	caller registry.Identity,
	newAdmin registry.Identity,
) error {
	args, err := host.EncodeArgs(newAdmin)
	if err != nil {
		return err
	}
	_, err = c.invoker.Call(ctx, caller, c.proxy, MethodTransferProxyOwnership, args)
	return err
}

func (c *Client) Implementation(ctx context.Context) (registry.Identity, error) {
	return c.identity(ctx, MethodImplementation)
}

func (c *Client) ProxyOwner(ctx context.Context) (registry.Identity, error) {
	return c.identity(ctx, MethodProxyOwner)
}

func (c *Client) identity(ctx context.Context, method string) (registry.Identity, error) {
	ret, err := c.invoker.View(ctx, registry.ZeroIdentity, c.proxy, method, nil)
	if err != nil {
		return registry.ZeroIdentity, err
	}
	var id registry.Identity
	if err := host.DecodeResult(ret, &id); err != nil {
		return registry.ZeroIdentity, err
	}
	return id, nil
}
