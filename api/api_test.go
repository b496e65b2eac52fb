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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blinklabs-io/geode/api"
	"github.com/blinklabs-io/geode/controller"
	"github.com/blinklabs-io/geode/database"
	"github.com/blinklabs-io/geode/host"
	"github.com/blinklabs-io/geode/proxy"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var (
	testOwner      = common.HexToAddress("0x000000000000000000000000000000000000e001")
	testProxyAdmin = common.HexToAddress("0x000000000000000000000000000000000000e002")
	testFinalizer  = common.HexToAddress("0x000000000000000000000000000000000000e003")
	testStranger   = common.HexToAddress("0x000000000000000000000000000000000000e004")
)

type testAPI struct {
	server *api.Server
	implV2 registry.Identity
}

func newTestAPI(t *testing.T) *testAPI {
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
	implV1, err := h.Deploy(ctx, testOwner, controller.CodeNameV1, nil)
	require.NoError(t, err)
	implV2, err := h.Deploy(ctx, testOwner, controller.CodeNameV2, nil)
	require.NoError(t, err)
	proxyAddr, err := proxy.Deploy(ctx, h, testOwner, implV1, testProxyAdmin)
	require.NoError(t, err)
	reg := controller.NewClient(h, proxyAddr)
	require.NoError(t, reg.Initialize(ctx, testOwner))
	return &testAPI{
		server: api.New(
			api.Config{ListenAddress: "127.0.0.1:0"},
			reg,
			proxy.NewClient(h, proxyAddr),
			nil,
		),
		implV2: implV2,
	}
}

func (a *testAPI) do(
	t *testing.T,
	method string,
	path string,
	caller *common.Address,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	if caller != nil {
		req.Header.Set(api.CallerHeader, caller.Hex())
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ret))
	return ret
}

func TestStartStop(t *testing.T) {
	a := newTestAPI(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	require.NoError(t, a.server.Start(context.Background()))
	err := a.server.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	resp, err := http.Get(fmt.Sprintf("http://%s/health", a.server.Addr()))
	require.NoError(t, err)
	health := api.HealthResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.True(t, health.IsHealthy)
	http.DefaultClient.CloseIdleConnections()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.server.Stop(stopCtx))
}

func TestStartStopCycles(t *testing.T) {
	a := newTestAPI(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	for range 5 {
		require.NoError(t, a.server.Start(context.Background()))
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		require.NoError(t, a.server.Stop(stopCtx))
		cancel()
	}
}

func TestContextCancelStopsServer(t *testing.T) {
	a := newTestAPI(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.server.Start(ctx))
	cancel()
	// Once the server is released it can be started again
	require.Eventually(t, func() bool {
		err := a.server.Start(context.Background())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, a.server.Stop(context.Background()))
}

func TestWorkspaceAndProposalFlow(t *testing.T) {
	a := newTestAPI(t)
	owner := testOwner

	rec := a.do(t, http.MethodPost, "/api/v1/workspaces", nil, map[string]any{
		"token": testStranger.Hex(),
		"data":  "0x0102",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/workspaces", &owner, map[string]any{
		"token": testStranger.Hex(),
		"data":  "0x0102",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wsID := decode[api.IDResponse](t, rec).ID
	assert.Equal(t, registry.BaseWorkspaceID, wsID)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/workspaces/%d", wsID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ws := decode[api.WorkspaceResponse](t, rec)
	assert.Equal(t, []byte{1, 2}, []byte(ws.AdditionalData))
	assert.Equal(t, testStranger, ws.Token)

	for _, snapshot := range []int{100, 200} {
		rec = a.do(
			t,
			http.MethodPost,
			fmt.Sprintf("/api/v1/workspaces/%d/proposals", wsID),
			&owner,
			map[string]any{"start": 1, "end": 2, "snapshot": snapshot, "data": "0x"},
		)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/workspaces/%d", wsID), nil, nil)
	ws = decode[api.WorkspaceResponse](t, rec)
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/proposals/%d", ws.LatestProposalID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[api.ProposalResponse](t, rec)
	assert.Equal(t, int64(200), p.Snapshot.Int64())

	rec = a.do(t, http.MethodGet, "/api/v1/workspaces/12", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/workspaces/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/workspaces?count=1&page=1&order=desc", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Pagination-Count-Total"))
}

func TestRolesVotesAndLifecycle(t *testing.T) {
	a := newTestAPI(t)
	owner := testOwner
	finalizer := testFinalizer
	stranger := testStranger

	rec := a.do(t, http.MethodPost, "/api/v1/workspaces", &owner, map[string]any{"token": stranger.Hex()})
	require.Equal(t, http.StatusCreated, rec.Code)
	wsID := decode[api.IDResponse](t, rec).ID
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/workspaces/%d/proposals", wsID), &owner, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	pID := decode[api.IDResponse](t, rec).ID
	votesPath := fmt.Sprintf("/api/v1/proposals/%d/votes", pID)

	rec = a.do(t, http.MethodPut, votesPath, &finalizer, map[string]any{"counters": []int{1, 2}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rolePath := "/api/v1/roles/finalizer/" + finalizer.Hex()
	rec = a.do(t, http.MethodPut, rolePath, &stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPut, rolePath, &owner, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodGet, rolePath, nil, nil)
	assert.True(t, decode[api.HasRoleResponse](t, rec).Active)
	rec = a.do(t, http.MethodGet, "/api/v1/roles/finalizer", nil, nil)
	assert.Equal(t, []registry.Identity{finalizer}, decode[api.RoleMembersResponse](t, rec).Members)
	rec = a.do(t, http.MethodGet, "/api/v1/roles/nobody", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, votesPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodPut, votesPath, &finalizer, map[string]any{"counters": []int{1, 2}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPut, votesPath, &finalizer, map[string]any{"counters": []int{1, 2, 3}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.do(t, http.MethodGet, votesPath, nil, nil)
	votes := decode[api.VotesResponse](t, rec)
	require.Len(t, votes.Counters, 2)
	assert.Equal(t, int64(2), votes.Counters[1].Int64())

	rec = a.do(t, http.MethodPost, "/api/v1/lifecycle/reset", &owner, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/v1/lifecycle/kill-switch", &owner, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/v1/lifecycle/reset", &owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/registry", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[api.StatusResponse](t, rec)
	assert.Equal(t, testOwner, status.Owner)
	assert.Equal(t, registry.ResetPermanentlyDisabled.String(), status.Lifecycle)
}

func TestProxyEndpoints(t *testing.T) {
	a := newTestAPI(t)
	owner := testOwner
	proxyAdmin := testProxyAdmin

	rec := a.do(t, http.MethodPost, "/api/v1/proxy/upgrade", &owner, map[string]any{"implementation": a.implV2.Hex()})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/v1/proxy/upgrade", &proxyAdmin, map[string]any{"implementation": a.implV2.Hex()})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodGet, "/api/v1/proxy", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[api.ProxyResponse](t, rec)
	assert.Equal(t, a.implV2, info.Implementation)
	assert.Equal(t, testProxyAdmin, info.ProxyAdmin)

	rec = a.do(t, http.MethodPost, "/api/v1/proxy/upgrade", &proxyAdmin, map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
