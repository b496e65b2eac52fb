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

package node

import (
	"testing"

	"github.com/blinklabs-io/geode"
	"github.com/blinklabs-io/geode/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Owner:              "0x00000000000000000000000000000000000000a1",
		BindAddr:           "127.0.0.1",
		Implementation:     geode.ImplementationLatest,
		RegistrationPolicy: "open",
		ShutdownTimeout:    config.DefaultShutdownTimeout,
		ApiPort:            8080,
	}
}

func TestNodeOptions(t *testing.T) {
	opts, err := NodeOptions(testConfig(), nil, prometheus.NewRegistry())
	require.NoError(t, err)
	_, err = geode.New(geode.NewConfig(opts...))
	require.NoError(t, err)
}

func TestNodeOptionsRejectsBadConfig(t *testing.T) {
	tests := map[string]func(*config.Config){
		"missing owner":  func(c *config.Config) { c.Owner = "" },
		"bad owner":      func(c *config.Config) { c.Owner = "alice" },
		"bad policy":     func(c *config.Config) { c.RegistrationPolicy = "closed" },
		"bad timeout":    func(c *config.Config) { c.ShutdownTimeout = "later" },
		"bad proxyAdmin": func(c *config.Config) { c.ProxyAdmin = "0x12" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(cfg)
			_, err := NodeOptions(cfg, nil, nil)
			require.Error(t, err)
		})
	}
}
