package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:                  "operion-callmelater",
		Usage:                 "Schedule CallMeLater actions and receive their callbacks",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("CALLMELATER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "CallMeLater API token",
				Sources: cli.EnvVars("CALLMELATER_API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "CallMeLater API base URL",
				Sources: cli.EnvVars("CALLMELATER_API_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Commands: []*cli.Command{
			RunCommand(),
			ActionCommand(),
			CredentialsCommand(),
			NodesCommand(),
		},
	}
}
