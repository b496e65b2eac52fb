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
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type Plugin interface {
	Start() error
	Stop() error
}

// Deps carries the runtime dependencies handed to a plugin constructor
type Deps struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// logger returns the configured logger or one that discards everything
func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return d.Logger
}

// ErrorPlugin is a plugin that always returns an error on Start()
type ErrorPlugin struct {
	Err error
}

func (e *ErrorPlugin) Start() error {
	return e.Err
}

func (e *ErrorPlugin) Stop() error {
	return nil
}

// NewErrorPlugin creates a new error plugin that returns the given error on Start()
func NewErrorPlugin(err error) Plugin {
	return &ErrorPlugin{Err: err}
}

// StartPlugin gets a plugin from the registry and starts it
func StartPlugin(
	pluginType PluginType,
	pluginName string,
	deps Deps,
) (Plugin, error) {
	p := GetPlugin(pluginType, pluginName, deps)
	if p == nil {
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			PluginTypeName(pluginType),
			pluginName,
		)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start %s plugin '%s': %w",
			PluginTypeName(pluginType),
			pluginName,
			err,
		)
	}
	deps.logger().Debug(
		fmt.Sprintf(
			"started %s plugin '%s'",
			PluginTypeName(pluginType),
			pluginName,
		),
		"component", "database",
	)
	return p, nil
}

// SetPluginOption sets the value of a named option for a plugin entry. This
// is used by callers that need to override plugin defaults programmatically,
// such as pointing data-dir at the configured database path before a plugin
// is started. Unknown options are ignored, since not every implementation
// has every option.
// NOTE: this writes to option destinations without synchronization and must
// only be called before plugins are instantiated.
func SetPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
	value any,
) error {
	p := findPluginEntry(pluginType, pluginName)
	if p == nil {
		return fmt.Errorf(
			"plugin %s of type %s not found",
			pluginName,
			PluginTypeName(pluginType),
		)
	}
	for _, opt := range p.Options {
		if opt.Name != optionName {
			continue
		}
		return opt.set(value)
	}
	return nil
}

func (o PluginOption) set(value any) error {
	switch o.Type {
	case PluginOptionTypeString:
		return setOptionDest[string](o, value)
	case PluginOptionTypeBool:
		return setOptionDest[bool](o, value)
	case PluginOptionTypeInt:
		return setOptionDest[int](o, value)
	case PluginOptionTypeUint:
		// accept int for convenience
		if tv, ok := value.(int); ok {
			if tv < 0 {
				return fmt.Errorf(
					"invalid value for option %s: negative int",
					o.Name,
				)
			}
			value = uint64(tv)
		}
		return setOptionDest[uint64](o, value)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			o.Type,
			o.Name,
		)
	}
}

func setOptionDest[T any](o PluginOption, value any) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf(
			"invalid type for option %s: expected %T",
			o.Name,
			*new(T),
		)
	}
	dest, ok := o.Dest.(*T)
	if !ok || dest == nil {
		return fmt.Errorf(
			"invalid destination for option %s: expected *%T",
			o.Name,
			*new(T),
		)
	}
	*dest = v
	return nil
}
