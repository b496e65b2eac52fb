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

package controller

import (
	"fmt"
	"strings"
)

// RegistrationPolicy controls who may add workspaces and proposals
type RegistrationPolicy string

const (
	// RegistrationOpen lets any caller register
	RegistrationOpen RegistrationPolicy = "open"
	// RegistrationTrusted limits registration to trusted callers, admins and
	// the owner
	RegistrationTrusted RegistrationPolicy = "trusted"
)

func ParseRegistrationPolicy(s string) (RegistrationPolicy, error) {
	switch strings.ToLower(s) {
	case "", string(RegistrationOpen):
		return RegistrationOpen, nil
	case string(RegistrationTrusted):
		return RegistrationTrusted, nil
	default:
		return "", fmt.Errorf("unknown registration policy: %s", s)
	}
}

type ControllerOptionFunc func(*Controller)

// WithKillOnReset makes resetApp fire the kill switch in the same call, so
// the registry can be reset at most once
func WithKillOnReset(killOnReset bool) ControllerOptionFunc {
	return func(c *Controller) {
		c.killOnReset = killOnReset
	}
}

// WithRegistrationPolicy specifies who may add workspaces and proposals
func WithRegistrationPolicy(policy RegistrationPolicy) ControllerOptionFunc {
	return func(c *Controller) {
		c.registrationPolicy = policy
	}
}
