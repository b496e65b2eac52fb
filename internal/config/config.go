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

package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blinklabs-io/geode/database/plugin"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "geode.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	// EnvPrefix is the prefix for environment variables, including plugin options
	EnvPrefix = "GEODE"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	DatabasePath       string `yaml:"databasePath"       split_words:"true"`
	BlobPlugin         string `yaml:"blobPlugin"         envconfig:"GEODE_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin     string `yaml:"metadataPlugin"     envconfig:"GEODE_DATABASE_METADATA_PLUGIN"`
	BindAddr           string `yaml:"bindAddr"           split_words:"true"`
	Owner              string `yaml:"owner"`
	ProxyAdmin         string `yaml:"proxyAdmin"         split_words:"true"`
	Implementation     string `yaml:"implementation"`
	RegistrationPolicy string `yaml:"registrationPolicy" split_words:"true"`
	NatsUrl            string `yaml:"natsUrl"            split_words:"true"`
	NatsSubjectPrefix  string `yaml:"natsSubjectPrefix"  split_words:"true"`
	ShutdownTimeout    string `yaml:"shutdownTimeout"    split_words:"true"`
	ApiPort            uint   `yaml:"apiPort"            split_words:"true"`
	MetricsPort        uint   `yaml:"metricsPort"        split_words:"true"`
	KillOnReset        bool   `yaml:"killOnReset"        split_words:"true"`
	AutoUpgrade        bool   `yaml:"autoUpgrade"        split_words:"true"`
	Tracing            bool   `yaml:"tracing"`
	TracingStdout      bool   `yaml:"tracingStdout"      split_words:"true"`
}

// OwnerIdentity parses the configured owner address
func (c *Config) OwnerIdentity() (common.Address, error) {
	return parseIdentity("owner", c.Owner)
}

// ProxyAdminIdentity parses the configured proxy admin address. An empty
// value yields the zero address, which defers to the owner.
func (c *Config) ProxyAdminIdentity() (common.Address, error) {
	if c.ProxyAdmin == "" {
		return common.Address{}, nil
	}
	return parseIdentity("proxyAdmin", c.ProxyAdmin)
}

// ShutdownTimeoutDuration parses the configured shutdown timeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout %q: %w", c.ShutdownTimeout, err)
	}
	return ret, nil
}

func parseIdentity(name string, val string) (common.Address, error) {
	if val == "" {
		return common.Address{}, fmt.Errorf("%s must be set", name)
	}
	if !common.IsHexAddress(val) {
		return common.Address{}, fmt.Errorf("%s is not a valid address: %q", name, val)
	}
	return common.HexToAddress(val), nil
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:       ".geode",
		BlobPlugin:         DefaultBlobPlugin,
		MetadataPlugin:     DefaultMetadataPlugin,
		BindAddr:           "0.0.0.0",
		Implementation:     "v2",
		RegistrationPolicy: "open",
		NatsSubjectPrefix:  "geode",
		ShutdownTimeout:    DefaultShutdownTimeout,
		ApiPort:            8080,
		MetricsPort:        12799,
	}
}

var globalConfig = defaultConfig()

// findConfigFile returns the first of ~/.geode/geode.yaml and
// /etc/geode/geode.yaml that exists
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".geode", "geode.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/geode/geode.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	err := envconfig.Process(EnvPrefix, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	err = plugin.ProcessEnvVars(EnvPrefix)
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if _, err := globalConfig.ShutdownTimeoutDuration(); err != nil {
		return nil, err
	}
	if _, err := globalConfig.ProxyAdminIdentity(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if !tempCfg.Config.IsZero() {
		// Decode the section onto the defaults so unset keys keep them
		if err := tempCfg.Config.Decode(globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise the whole file is the main config
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			mergePluginSection(
				pluginConfig,
				"blob",
				tempCfg.Database.Blob,
				&globalConfig.BlobPlugin,
			)
		}
		if tempCfg.Database.Metadata != nil {
			mergePluginSection(
				pluginConfig,
				"metadata",
				tempCfg.Database.Metadata,
				&globalConfig.MetadataPlugin,
			)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// mergePluginSection folds a database.<type> section into the plugin config.
// A "plugin" key selects the plugin; every other key holds that plugin's
// options.
func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]any,
	pluginName *string,
) {
	if pluginVal, ok := section["plugin"].(string); ok {
		*pluginName = pluginVal
	}
	typeConfig := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			typeConfig[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			typeConfig[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				pluginType,
				k,
				v,
			)
		}
	}
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = typeConfig
	} else {
		maps.Copy(pluginConfig[pluginType], typeConfig)
	}
}

// IsListRequest reports whether a plugin flag value asks for the plugin list
func IsListRequest(val string) bool {
	return strings.EqualFold(val, "list")
}
