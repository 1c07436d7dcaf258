package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	api "github.com/callmelater/operion-callmelater/pkg/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/credentials"
	"github.com/callmelater/operion-callmelater/pkg/log"
	"github.com/callmelater/operion-callmelater/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "operion-callmelater"

// loadConfig reads --config when given and lets flags and their environment
// variables override the file.
func loadConfig(command *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if path := command.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if command.IsSet("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = command.String("log-level")
	}

	if command.IsSet("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = command.String("log-format")
	}

	token, url := cfg.CallMeLater.APIToken, cfg.CallMeLater.APIURL
	if command.IsSet("api-token") {
		token = command.String("api-token")
	}

	if command.IsSet("api-url") {
		url = command.String("api-url")
	}

	cfg.CallMeLater = credentials.New(token, url)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Setup(cfg.LogLevel, cfg.LogFormat)

	return cfg, nil
}

// setupTracer installs the OTLP exporter when --otel is set. The returned
// shutdown function is never nil.
func setupTracer(ctx context.Context, command *cli.Command) (trace.Tracer, func(context.Context) error, error) {
	if !command.Bool("otel") {
		return nil, func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return tracer, shutdown, nil
}

func newClient(creds credentials.Credentials, logger *slog.Logger, tracer trace.Tracer) (*api.Client, error) {
	opts := []api.Option{api.WithLogger(logger)}
	if tracer != nil {
		opts = append(opts, api.WithTracer(tracer))
	}

	return api.New(creds, opts...)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
