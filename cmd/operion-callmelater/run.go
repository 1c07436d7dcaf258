package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/callmelater/operion-callmelater/pkg/cmd"
	"github.com/callmelater/operion-callmelater/pkg/credentials"
	"github.com/callmelater/operion-callmelater/pkg/log"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	cli "github.com/urfave/cli/v3"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the HTTP host serving the action node and the webhook triggers",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the HTTP server on",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka, redis)",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used by the kafka event bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address used by the redis event bus",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing node plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			if command.IsSet("port") {
				cfg.Server.Port = command.Int("port")
			}

			if command.IsSet("event-bus") {
				cfg.EventBus.Type = command.String("event-bus")
			}

			if command.IsSet("kafka-brokers") {
				cfg.EventBus.Kafka.Brokers = command.StringSlice("kafka-brokers")
			}

			if command.IsSet("redis-addr") {
				cfg.EventBus.Redis.Addr = command.String("redis-addr")
			}

			if command.IsSet("plugins-path") {
				cfg.Server.PluginsPath = command.String("plugins-path")
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.WithModule("host")
			logger.InfoContext(ctx, "Initializing CallMeLater host", "callmelater", cfg.CallMeLater)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tracer, shutdownTracer, err := setupTracer(ctx, command)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Error("Failed to shutdown tracer provider", "error", err)
				}
			}()

			registry, err := cmd.NewRegistry(logger, cfg.Server.PluginsPath)
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(ctx, cfg.EventBus, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			var client protocol.HTTPClient

			switch c, err := newClient(cfg.CallMeLater, logger, tracer); {
			case err == nil:
				client = c
			case errors.Is(err, credentials.ErrMissingAPIToken):
				logger.WarnContext(ctx, "No CallMeLater API token configured; action execution is disabled")
			default:
				return err
			}

			api, err := NewAPI(logger, cfg, registry, client, eventBus)
			if err != nil {
				return err
			}

			return api.Run(ctx)
		},
	}
}
