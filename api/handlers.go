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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/geode/internal/version"
	"github.com/blinklabs-io/geode/registry"
	"github.com/ethereum/go-ethereum/common"
)

// CallerHeader carries the caller identity verified by the upstream
// authentication layer
const CallerHeader = "X-Geode-Caller"

const maxRequestBodySize = 1 << 20

var errMissingCaller = errors.New("missing or invalid " + CallerHeader + " header")

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// errorStatus maps registry errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errMissingCaller):
		return http.StatusUnauthorized
	case errors.Is(err, registry.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, registry.ErrNoCode),
		errors.Is(err, registry.ErrUnknownMethod):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrAlreadyDisabled),
		errors.Is(err, registry.ErrAlreadyInitialized),
		errors.Is(err, registry.ErrNotInitialized),
		errors.Is(err, registry.ErrProposalConflict):
		return http.StatusConflict
	case errors.Is(err, registry.ErrLengthMismatch),
		errors.Is(err, registry.ErrIncompatibleSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrInvalidArgs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeRegistryError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"registry call failed",
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func callerFromRequest(r *http.Request) (registry.Identity, error) {
	val := r.Header.Get(CallerHeader)
	if !common.IsHexAddress(val) {
		return registry.ZeroIdentity, errMissingCaller
	}
	caller := common.HexToAddress(val)
	if caller == registry.ZeroIdentity {
		return registry.ZeroIdentity, errMissingCaller
	}
	return caller, nil
}

func decodeBody(r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return errors.Join(registry.ErrInvalidArgs, err)
	}
	return nil
}

func pathUint(r *http.Request, name string) (uint64, error) {
	val, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, errors.Join(registry.ErrInvalidArgs, err)
	}
	return val, nil
}

func pathIdentity(r *http.Request, name string) (registry.Identity, error) {
	val := r.PathValue(name)
	if !common.IsHexAddress(val) {
		return registry.ZeroIdentity, registry.ErrInvalidArgs
	}
	return common.HexToAddress(val), nil
}

func (s *Server) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "geode",
		Version: version.GetVersionString(),
	})
}

func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (s *Server) handleStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	owner, err := s.registry.Owner(ctx)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	counter, err := s.registry.WorkspaceCounter(ctx)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	state, err := s.registry.Lifecycle(ctx)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Owner:            owner,
		WorkspaceCounter: counter,
		Lifecycle:        state.String(),
	})
}

func (s *Server) handleListWorkspaces(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.registry.ListWorkspaces(r.Context())
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	SetPaginationHeaders(w, len(list), params)
	page := Paginate(list, params)
	ret := make([]WorkspaceResponse, 0, len(page))
	for _, ws := range page {
		ret = append(ret, newWorkspaceResponse(ws))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleAddWorkspace(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	var req WorkspaceRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	id, err := s.registry.AddWorkspace(r.Context(), caller, req.Token, req.Data)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (s *Server) handleGetWorkspace(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	ws, err := s.registry.GetWorkspace(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWorkspaceResponse(ws))
}

func (s *Server) handleAddProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	workspaceID, err := pathUint(r, "id")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	var req ProposalRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	id, err := s.registry.AddProposal(
		r.Context(),
		caller,
		workspaceID,
		req.Start,
		req.End,
		req.Snapshot,
		req.Data,
	)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (s *Server) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	p, err := s.registry.GetProposal(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProposalResponse(p))
}

func (s *Server) handleGetVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	counters, err := s.registry.GetProposalOptions(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VotesResponse{
		ProposalID: id,
		Counters:   counters,
	})
}

func (s *Server) handleSubmitVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	id, err := pathUint(r, "id")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	var req VotesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	if err := s.registry.SubmitVotes(r.Context(), caller, id, req.Counters); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoleMembers(
	w http.ResponseWriter,
	r *http.Request,
) {
	role, err := registry.ParseRole(r.PathValue("role"))
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	members, err := s.registry.RoleMembers(r.Context(), role)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	if members == nil {
		members = []registry.Identity{}
	}
	writeJSON(w, http.StatusOK, RoleMembersResponse{
		Role:    role,
		Members: members,
	})
}

func (s *Server) handleHasRole(
	w http.ResponseWriter,
	r *http.Request,
) {
	role, err := registry.ParseRole(r.PathValue("role"))
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	member, err := pathIdentity(r, "member")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	active, err := s.registry.HasRole(r.Context(), role, member)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HasRoleResponse{
		Role:   role,
		Member: member,
		Active: active,
	})
}

func (s *Server) handleGrantRole(
	w http.ResponseWriter,
	r *http.Request,
) {
	s.setRole(w, r, true)
}

func (s *Server) handleRevokeRole(
	w http.ResponseWriter,
	r *http.Request,
) {
	s.setRole(w, r, false)
}

func (s *Server) setRole(
	w http.ResponseWriter,
	r *http.Request,
	granted bool,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	role, err := registry.ParseRole(r.PathValue("role"))
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	member, err := pathIdentity(r, "member")
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	ctx := r.Context()
	switch {
	case role == registry.RoleAdmin && granted:
		err = s.registry.AddAdmin(ctx, caller, member)
	case role == registry.RoleAdmin:
		err = s.registry.RevokeAdmin(ctx, caller, member)
	case role == registry.RoleFinalizer && granted:
		err = s.registry.AddFinalizer(ctx, caller, member)
	case role == registry.RoleFinalizer:
		err = s.registry.RemoveFinalizer(ctx, caller, member)
	default:
		err = s.registry.SetTrustedCaller(ctx, caller, member, granted)
	}
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	if err := s.registry.ResetApp(r.Context(), caller); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKillSwitch(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	if err := s.registry.KillSwitch(r.Context(), caller); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProxyStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	if s.proxy == nil {
		writeError(w, http.StatusNotFound, "registry is not behind a proxy")
		return
	}
	impl, err := s.proxy.Implementation(r.Context())
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	admin, err := s.proxy.ProxyOwner(r.Context())
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProxyResponse{
		Implementation: impl,
		ProxyAdmin:     admin,
	})
}

func (s *Server) handleUpgrade(
	w http.ResponseWriter,
	r *http.Request,
) {
	if s.proxy == nil {
		writeError(w, http.StatusNotFound, "registry is not behind a proxy")
		return
	}
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	var req UpgradeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	if err := s.proxy.UpgradeTo(r.Context(), caller, req.Implementation); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransferProxyOwnership(
	w http.ResponseWriter,
	r *http.Request,
) {
	if s.proxy == nil {
		writeError(w, http.StatusNotFound, "registry is not behind a proxy")
		return
	}
	caller, err := callerFromRequest(r)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	var req ProxyOwnerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	if err := s.proxy.TransferProxyOwnership(r.Context(), caller, req.Admin); err != nil {
		s.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
