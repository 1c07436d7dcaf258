package main

import (
	"context"

	"github.com/callmelater/operion-callmelater/pkg/cmd"
	"github.com/callmelater/operion-callmelater/pkg/credentials"
	"github.com/callmelater/operion-callmelater/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func CredentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "Inspect the configured CallMeLater credentials",
		Commands: []*cli.Command{
			{
				Name:  "test",
				Usage: "Check the API token against the quota endpoint",
				Action: func(ctx context.Context, command *cli.Command) error {
					cfg, err := loadConfig(command)
					if err != nil {
						return err
					}

					logger := log.WithModule("cli")

					client, err := newClient(cfg.CallMeLater, logger, nil)
					if err != nil {
						return err
					}

					quota, err := credentials.Test(ctx, client)
					if err != nil {
						return err
					}

					logger.InfoContext(ctx, "Credentials are valid", "callmelater", cfg.CallMeLater)

					return printJSON(command.Root().Writer, quota)
				},
			},
		},
	}
}

// NodesCommand prints the descriptors of every registered node.
func NodesCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "List the available nodes and their parameter schemas",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing node plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			pluginsPath := cfg.Server.PluginsPath
			if command.IsSet("plugins-path") {
				pluginsPath = command.String("plugins-path")
			}

			registry, err := cmd.NewRegistry(log.WithModule("cli"), pluginsPath)
			if err != nil {
				return err
			}

			return printJSON(command.Root().Writer, registry.Descriptors())
		},
	}
}
