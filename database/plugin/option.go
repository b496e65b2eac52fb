// Copyright 2025 Blink Labs Software
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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

// flagName returns the command line flag for a plugin option, for example
// "blob-badger-data-dir"
func (o PluginOption) flagName(pluginType PluginType, pluginName string) string {
	return strings.Join(
		[]string{PluginTypeName(pluginType), pluginName, o.Name},
		"-",
	)
}

// envName returns the environment variable for a plugin option, for example
// "GEODE_BLOB_BADGER_DATA_DIR"
func (o PluginOption) envName(
	prefix string,
	pluginType PluginType,
	pluginName string,
) string {
	ret := strings.ToUpper(
		prefix + "_" + o.flagName(pluginType, pluginName),
	)
	return strings.ReplaceAll(ret, "-", "_")
}

func (o PluginOption) addToFlagSet(
	fs *pflag.FlagSet,
	pluginType PluginType,
	pluginName string,
) error {
	name := o.flagName(pluginType, pluginName)
	switch o.Type {
	case PluginOptionTypeString:
		dest, ok := o.Dest.(*string)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", o.Name)
		}
		def, _ := o.DefaultValue.(string)
		fs.StringVar(dest, name, def, o.Description)
	case PluginOptionTypeBool:
		dest, ok := o.Dest.(*bool)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", o.Name)
		}
		def, _ := o.DefaultValue.(bool)
		fs.BoolVar(dest, name, def, o.Description)
	case PluginOptionTypeInt:
		dest, ok := o.Dest.(*int)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", o.Name)
		}
		def, _ := o.DefaultValue.(int)
		fs.IntVar(dest, name, def, o.Description)
	case PluginOptionTypeUint:
		dest, ok := o.Dest.(*uint64)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", o.Name)
		}
		def, _ := o.DefaultValue.(uint64)
		fs.Uint64Var(dest, name, def, o.Description)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			o.Type,
			o.Name,
		)
	}
	return nil
}

// parse converts a string value from the environment or a config file into
// the option's native type
func (o PluginOption) parse(value string) (any, error) {
	switch o.Type {
	case PluginOptionTypeString:
		return value, nil
	case PluginOptionTypeBool:
		return strconv.ParseBool(value)
	case PluginOptionTypeInt:
		return strconv.Atoi(value)
	case PluginOptionTypeUint:
		return strconv.ParseUint(value, 10, 64)
	default:
		return nil, fmt.Errorf(
			"unknown plugin option type %d for option %s",
			o.Type,
			o.Name,
		)
	}
}

// PopulateCmdlineOptions registers a flag for every option of every plugin
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			if err := opt.addToFlagSet(fs, p.Type, p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options found in the environment. Variables
// are named <PREFIX>_<TYPE>_<PLUGIN>_<OPTION>.
func ProcessEnvVars(prefix string) error {
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			val, ok := os.LookupEnv(opt.envName(prefix, p.Type, p.Name))
			if !ok {
				continue
			}
			v, err := opt.parse(val)
			if err != nil {
				return fmt.Errorf(
					"invalid value for %s plugin '%s' option %s: %w",
					PluginTypeName(p.Type),
					p.Name,
					opt.Name,
					err,
				)
			}
			if err := opt.set(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a config file section. The map
// is keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(cfg map[string]map[string]map[string]any) error {
	for _, p := range pluginEntries {
		opts, ok := cfg[PluginTypeName(p.Type)][p.Name]
		if !ok {
			continue
		}
		for _, opt := range p.Options {
			raw, ok := opts[opt.Name]
			if !ok {
				continue
			}
			v, err := opt.parse(fmt.Sprint(raw))
			if err != nil {
				return fmt.Errorf(
					"invalid value for %s plugin '%s' option %s: %w",
					PluginTypeName(p.Type),
					p.Name,
					opt.Name,
					err,
				)
			}
			if err := opt.set(v); err != nil {
				return err
			}
		}
	}
	return nil
}
