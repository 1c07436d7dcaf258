// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/callmelater/operion-callmelater/pkg/registry"
)

// NewRegistry registers the built-in nodes and, when pluginsPath is set, any
// node plugins found beneath it.
func NewRegistry(log *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if pluginsPath != "" {
		actionPlugins, err := reg.LoadActionPlugins(pluginsPath)
		if err != nil {
			return nil, err
		}

		for _, plugin := range actionPlugins {
			reg.RegisterAction(plugin)
		}

		triggerPlugins, err := reg.LoadTriggerPlugins(pluginsPath)
		if err != nil {
			return nil, err
		}

		for _, plugin := range triggerPlugins {
			reg.RegisterTrigger(plugin)
		}
	}

	reg.RegisterDefaultNodes()

	return reg, nil
}
