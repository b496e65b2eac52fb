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

package geode

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/geode/controller"
	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/proxy"
)

// bootstrap deploys and initializes the registry on first start. On later
// starts it reuses the recorded deployment and optionally upgrades it.
func (n *Node) bootstrap(ctx context.Context) error {
	deployment, err := n.loadDeployment()
	if err != nil {
		return err
	}
	if deployment != nil {
		n.setDeployment(deployment)
		n.config.logger.Debug(
			"using existing registry deployment",
			"component", "node",
			"proxy", deployment.Proxy.String(),
		)
		if n.config.autoUpgrade {
			return n.upgradeToLatest(ctx)
		}
		return nil
	}
	codeName := implementationCodeNames[n.config.implementation]
	impl, err := n.host.Deploy(ctx, n.config.owner, codeName, nil)
	if err != nil {
		return fmt.Errorf("deploy %s: %w", codeName, err)
	}
	proxyAddr, err := proxy.Deploy(
		ctx,
		n.host,
		n.config.owner,
		impl,
		n.config.proxyAdmin,
	)
	if err != nil {
		return fmt.Errorf("deploy proxy: %w", err)
	}
	deployment = &database.Deployment{
		Implementation: impl,
		Proxy:          proxyAddr,
		Deployer:       n.config.owner,
	}
	n.setDeployment(deployment)
	if err := n.registry.Initialize(ctx, n.config.owner); err != nil {
		return fmt.Errorf("initialize registry: %w", err)
	}
	if err := n.storeDeployment(deployment); err != nil {
		return err
	}
	n.config.logger.Info(
		"bootstrapped new registry",
		"component", "node",
		"code", codeName,
		"owner", n.config.owner.String(),
		"proxy_admin", n.config.proxyAdmin.String(),
	)
	return nil
}

// upgradeToLatest points the proxy at a fresh deployment of the latest
// implementation when it runs anything older
func (n *Node) upgradeToLatest(ctx context.Context) error {
	current, err := n.proxy.Implementation(ctx)
	if err != nil {
		return err
	}
	currentName, err := n.host.CodeAt(ctx, current)
	if err != nil {
		return err
	}
	latestName := implementationCodeNames[ImplementationLatest]
	if currentName == latestName {
		return nil
	}
	impl, err := n.host.Deploy(ctx, n.config.proxyAdmin, latestName, nil)
	if err != nil {
		return fmt.Errorf("deploy %s: %w", latestName, err)
	}
	if err := n.proxy.UpgradeTo(ctx, n.config.proxyAdmin, impl); err != nil {
		return fmt.Errorf("upgrade proxy: %w", err)
	}
	deployment := n.Deployment()
	deployment.Implementation = impl
	if err := n.storeDeployment(&deployment); err != nil {
		return err
	}
	n.setDeployment(&deployment)
	n.config.logger.Info(
		"upgraded registry implementation",
		"component", "node",
		"from", currentName,
		"to", latestName,
	)
	return nil
}

func (n *Node) setDeployment(deployment *database.Deployment) {
	n.deployment = deployment
	n.registry = controller.NewClient(n.host, deployment.Proxy)
	n.proxy = proxy.NewClient(n.host, deployment.Proxy)
}

func (n *Node) loadDeployment() (*database.Deployment, error) {
	var ret *database.Deployment
	err := n.db.View(func(txn *database.Txn) error {
		var err error
		ret, err = txn.Deployment()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load deployment record: %w", err)
	}
	return ret, nil
}

func (n *Node) storeDeployment(deployment *database.Deployment) error {
	err := n.db.Update(func(txn *database.Txn) error {
		return txn.SetDeployment(deployment)
	})
	if err != nil {
		return fmt.Errorf("store deployment record: %w", err)
	}
	return nil
}
