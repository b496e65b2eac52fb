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

package proxy_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/blinklabs-io/geode/controller"
	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/proxy"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDeployer   = common.HexToAddress("0x000000000000000000000000000000000000d001")
	testProxyAdmin = common.HexToAddress("0x000000000000000000000000000000000000d002")
	testOwner      = common.HexToAddress("0x000000000000000000000000000000000000d003")
	testAdmin      = common.HexToAddress("0x000000000000000000000000000000000000d004")
	testToken      = common.HexToAddress("0x000000000000000000000000000000000000d005")
)

type testSetup struct {
	host   *host.Host
	implV1 registry.Identity
	implV2 registry.Identity
	proxy  registry.Identity
	// registry calls through the proxy
	registry *controller.Client
	admin    *proxy.Client
}

func newTestSetup(t *testing.T) *testSetup {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h, err := host.New(
		db,
		host.WithCode(controller.NewV1()),
		host.WithCode(controller.NewV2()),
		host.WithCode(proxy.New()),
	)
	require.NoError(t, err)
	implV1, err := h.Deploy(ctx, testDeployer, controller.CodeNameV1, nil)
	require.NoError(t, err)
	implV2, err := h.Deploy(ctx, testDeployer, controller.CodeNameV2, nil)
	require.NoError(t, err)
	proxyAddr, err := proxy.Deploy(ctx, h, testDeployer, implV1, testProxyAdmin)
	require.NoError(t, err)
	s := &testSetup{
		host:     h,
		implV1:   implV1,
		implV2:   implV2,
		proxy:    proxyAddr,
		registry: controller.NewClient(h, proxyAddr),
		admin:    proxy.NewClient(h, proxyAddr),
	}
	require.NoError(t, s.registry.Initialize(ctx, testOwner))
	return s
}

func TestProxyDeploy(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	impl, err := s.admin.Implementation(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.implV1, impl)
	owner, err := s.admin.ProxyOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, testProxyAdmin, owner)

	// Zero admin defaults to the deployer
	other, err := proxy.Deploy(ctx, s.host, testDeployer, s.implV1, registry.ZeroIdentity)
	require.NoError(t, err)
	owner, err = proxy.NewClient(s.host, other).ProxyOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDeployer, owner)

	_, err = proxy.Deploy(ctx, s.host, testDeployer, common.Address{0x99}, testProxyAdmin)
	require.ErrorIs(t, err, registry.ErrNoCode)
}

func TestUpgradeRequiresProxyAdmin(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	// The registry owner is not the proxy admin
	err := s.admin.UpgradeTo(ctx, testOwner, s.implV2)
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	err = s.admin.UpgradeTo(ctx, testProxyAdmin, common.Address{0x99})
	require.ErrorIs(t, err, registry.ErrNoCode)
	impl, err := s.admin.Implementation(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.implV1, impl)
}

func TestUpgradeKeepsStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	wsID, err := s.registry.AddWorkspace(ctx, testOwner, testToken, []byte("ws"))
	require.NoError(t, err)
	_, err = s.registry.AddProposal(ctx, testOwner, wsID, nil, nil, big.NewInt(1), nil)
	require.NoError(t, err)
	_, err = s.registry.AddProposal(ctx, testOwner, wsID, nil, nil, big.NewInt(2), nil)
	require.NoError(t, err)
	require.NoError(t, s.registry.AddAdmin(ctx, testOwner, testAdmin))

	require.NoError(t, s.admin.UpgradeTo(ctx, testProxyAdmin, s.implV2))
	impl, err := s.admin.Implementation(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.implV2, impl)

	counter, err := s.registry.WorkspaceCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, wsID+1, counter)
	ok, err := s.registry.HasRole(ctx, registry.RoleAdmin, testAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
	ws, err := s.registry.GetWorkspace(ctx, wsID)
	require.NoError(t, err)
	assert.Equal(t, []byte("ws"), ws.AdditionalData)

	// The appended slot was backfilled by the migration
	version, err := s.registry.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, controller.SchemaVersionV2, version)
	total, err := s.registry.ProposalTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	_, err = s.registry.AddProposal(ctx, testOwner, wsID, nil, nil, nil, nil)
	require.NoError(t, err)
	total, err = s.registry.ProposalTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
}

func TestImplementationStorageIsIndependent(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	_, err := s.registry.AddWorkspace(ctx, testOwner, testToken, nil)
	require.NoError(t, err)
	require.NoError(t, s.admin.UpgradeTo(ctx, testProxyAdmin, s.implV2))

	direct := controller.NewClient(s.host, s.implV1)
	counter, err := direct.WorkspaceCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), counter)
	owner, err := direct.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry.ZeroIdentity, owner)

	// Initializing the implementation directly does not touch the proxy
	require.NoError(t, direct.Initialize(ctx, testAdmin))
	_, err = direct.AddWorkspace(ctx, testAdmin, testToken, nil)
	require.NoError(t, err)
	_, err = direct.AddWorkspace(ctx, testAdmin, testToken, nil)
	require.NoError(t, err)
	counter, err = direct.WorkspaceCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry.BaseWorkspaceID+2, counter)

	counter, err = s.registry.WorkspaceCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry.BaseWorkspaceID+1, counter)
	owner, err = s.registry.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)
}

func TestDowngradeRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	require.NoError(t, s.admin.UpgradeTo(ctx, testProxyAdmin, s.implV2))
	err := s.admin.UpgradeTo(ctx, testProxyAdmin, s.implV1)
	require.ErrorIs(t, err, registry.ErrIncompatibleSchema)
	impl, err := s.admin.Implementation(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.implV2, impl)
}

func TestUpgradeToAndCall(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	args, err := host.EncodeArgs(
		&controller.WorkspaceArgs{Token: testToken, Data: []byte("x")},
	)
	require.NoError(t, err)
	// The follow-up call runs with the proxy admin as caller
	ret, err := s.admin.UpgradeToAndCall(
		ctx,
		testProxyAdmin,
		s.implV2,
		controller.MethodAddWorkspace,
		args,
	)
	require.NoError(t, err)
	var wsID uint64
	require.NoError(t, host.DecodeResult(ret, &wsID))
	assert.Equal(t, registry.BaseWorkspaceID, wsID)

	// A failing follow-up call rolls back the upgrade too
	other, err := proxy.Deploy(ctx, s.host, testDeployer, s.implV1, testProxyAdmin)
	require.NoError(t, err)
	_, err = proxy.NewClient(s.host, other).UpgradeToAndCall(
		ctx,
		testProxyAdmin,
		s.implV2,
		controller.MethodResetApp,
		nil,
	)
	require.ErrorIs(t, err, registry.ErrNotInitialized)
	impl, err := proxy.NewClient(s.host, other).Implementation(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.implV1, impl)
}

func TestTransferProxyOwnership(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	err := s.admin.TransferProxyOwnership(ctx, testOwner, testOwner)
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	err = s.admin.TransferProxyOwnership(ctx, testProxyAdmin, registry.ZeroIdentity)
	require.ErrorIs(t, err, registry.ErrInvalidArgs)
	require.NoError(t, s.admin.TransferProxyOwnership(ctx, testProxyAdmin, testAdmin))
	require.ErrorIs(
		t,
		s.admin.UpgradeTo(ctx, testProxyAdmin, s.implV2),
		registry.ErrUnauthorized,
	)
	require.NoError(t, s.admin.UpgradeTo(ctx, testAdmin, s.implV2))
}

func TestForwardedErrorsSurfaceUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestSetup(t)
	err := s.registry.AddAdmin(ctx, testAdmin, testAdmin)
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	_, err = s.registry.GetWorkspace(ctx, 7)
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, err = s.host.Call(ctx, testOwner, s.proxy, "noSuchMethod", nil)
	require.ErrorIs(t, err, registry.ErrUnknownMethod)
}
