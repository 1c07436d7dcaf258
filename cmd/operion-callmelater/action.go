package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/callmelater/operion-callmelater/pkg/cmd"
	"github.com/callmelater/operion-callmelater/pkg/log"
	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/nodes/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/parameters"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

var errMissingActionID = errors.New("action id argument is required")

// ActionCommand runs the action node once from the command line and prints the output items.
func ActionCommand() *cli.Command {
	return &cli.Command{
		Name:  "action",
		Usage: "Create, inspect or cancel CallMeLater actions",
		Commands: []*cli.Command{
			{
				Name:  "create-webhook",
				Usage: "Schedule an HTTP request",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Action name", Required: true},
					&cli.StringFlag{Name: "schedule", Usage: "Delay such as 30m, 2h, 1d or 1w", Value: "1h"},
					&cli.StringFlag{Name: "url", Usage: "URL to call", Required: true},
					&cli.StringFlag{Name: "method", Usage: "HTTP method", Value: "POST"},
					&cli.StringFlag{Name: "options", Usage: "Webhook options as a JSON object"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					params := map[string]any{
						"operation":  callmelater.OperationCreateWebhook,
						"name":       command.String("name"),
						"schedule":   command.String("schedule"),
						"webhookUrl": command.String("url"),
						"method":     command.String("method"),
					}

					if err := decodeOptions(command, params, "webhookOptions"); err != nil {
						return err
					}

					return executeAction(ctx, command, params)
				},
			},
			{
				Name:  "create-approval",
				Usage: "Send an approval request to one or more recipients",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Approval name", Required: true},
					&cli.StringFlag{Name: "message", Usage: "Message shown to recipients", Required: true},
					&cli.StringFlag{Name: "recipients", Usage: "Comma-separated recipients", Required: true},
					&cli.StringSliceFlag{Name: "channel", Usage: "Delivery channel (email, sms, teams, slack)"},
					&cli.StringFlag{Name: "schedule", Usage: "Delay such as 5m or now", Value: "5m"},
					&cli.StringFlag{Name: "options", Usage: "Approval options as a JSON object"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					params := map[string]any{
						"operation":        callmelater.OperationCreateApproval,
						"approvalName":     command.String("name"),
						"message":          command.String("message"),
						"recipients":       command.String("recipients"),
						"approvalSchedule": command.String("schedule"),
					}

					if channels := command.StringSlice("channel"); len(channels) > 0 {
						params["channels"] = channels
					}

					if err := decodeOptions(command, params, "approvalOptions"); err != nil {
						return err
					}

					return executeAction(ctx, command, params)
				},
			},
			{
				Name:      "get",
				Usage:     "Show an action",
				ArgsUsage: "<action-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					return executeByID(ctx, command, callmelater.OperationGet)
				},
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a pending action",
				ArgsUsage: "<action-id>",
				Action: func(ctx context.Context, command *cli.Command) error {
					return executeByID(ctx, command, callmelater.OperationCancel)
				},
			},
		},
	}
}

func decodeOptions(command *cli.Command, params map[string]any, name string) error {
	raw := command.String("options")
	if raw == "" {
		return nil
	}

	var options map[string]any
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return fmt.Errorf("--options: %w", err)
	}

	params[name] = options

	return nil
}

func executeByID(ctx context.Context, command *cli.Command, operation string) error {
	actionID := command.Args().First()
	if actionID == "" {
		return errMissingActionID
	}

	return executeAction(ctx, command, map[string]any{
		"operation": operation,
		"actionId":  actionID,
	})
}

func executeAction(ctx context.Context, command *cli.Command, params map[string]any) error {
	cfg, err := loadConfig(command)
	if err != nil {
		return err
	}

	logger := log.WithModule("cli")

	tracer, shutdownTracer, err := setupTracer(ctx, command)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}()

	client, err := newClient(cfg.CallMeLater, logger, tracer)
	if err != nil {
		return err
	}

	registry, err := cmd.NewRegistry(logger, cfg.Server.PluginsPath)
	if err != nil {
		return err
	}

	node, err := registry.CreateAction(models.NodeTypeCallMeLater, cfg.Action.Defaults, client)
	if err != nil {
		return err
	}

	executionCtx := models.ExecutionContext{
		ID:     uuid.NewString(),
		NodeID: models.NodeTypeCallMeLater,
	}

	items, err := node.Execute(ctx, executionCtx, &parameters.Static{Node: params}, logger.With("execution_id", executionCtx.ID))
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := printJSON(command.Root().Writer, item.JSON); err != nil {
			return err
		}
	}

	return nil
}
