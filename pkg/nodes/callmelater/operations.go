package callmelater

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	api "github.com/callmelater/operion-callmelater/pkg/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/parameters"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
)

const (
	ResourceAction = "action"

	OperationCreateWebhook  = "createWebhook"
	OperationCreateApproval = "createApproval"
	OperationGet            = "get"
	OperationCancel         = "cancel"
)

const (
	defaultWebhookSchedule  = "1h"
	defaultMethod           = "POST"
	defaultApprovalSchedule = "5m"
	defaultTimeout          = "4h"
	defaultMaxSnoozes       = 5
)

// operation runs one item and returns the JSON for its output item.
type operation func(ctx context.Context, n *Node, params protocol.ParameterSource, i int) (map[string]any, error)

var operations = map[string]operation{
	OperationCreateWebhook:  createWebhook,
	OperationCreateApproval: createApproval,
	OperationGet:            getAction,
	OperationCancel:         cancelAction,
}

func createWebhook(ctx context.Context, n *Node, params protocol.ParameterSource, i int) (map[string]any, error) {
	action, err := BuildWebhookAction(params, i)
	if err != nil {
		return nil, err
	}

	return n.create(ctx, action)
}

func createApproval(ctx context.Context, n *Node, params protocol.ParameterSource, i int) (map[string]any, error) {
	action, err := BuildApprovalAction(params, i)
	if err != nil {
		return nil, err
	}

	return n.create(ctx, action)
}

func getAction(ctx context.Context, n *Node, params protocol.ParameterSource, i int) (map[string]any, error) {
	actionID, err := requiredString(params, "actionId", i)
	if err != nil {
		return nil, err
	}

	resp, err := api.GetAction(ctx, n.client, actionID)
	if err != nil {
		return nil, err
	}

	return api.Data(resp), nil
}

// cancelAction returns the whole response envelope, unlike the other operations
// which unwrap "data". Workflows built against the service depend on this shape.
func cancelAction(ctx context.Context, n *Node, params protocol.ParameterSource, i int) (map[string]any, error) {
	actionID, err := requiredString(params, "actionId", i)
	if err != nil {
		return nil, err
	}

	return api.CancelAction(ctx, n.client, actionID)
}

// BuildWebhookAction assembles an immediate-mode action from the createWebhook parameters.
func BuildWebhookAction(params protocol.ParameterSource, i int) (models.ScheduledAction, error) {
	var action models.ScheduledAction

	name, err := requiredString(params, "name", i)
	if err != nil {
		return action, err
	}

	schedule, err := parameters.String(params, "schedule", i, defaultWebhookSchedule)
	if err != nil {
		return action, &ParameterError{Name: "schedule", Err: err}
	}

	if schedule == "" {
		return action, missing("schedule")
	}

	url, err := requiredString(params, "webhookUrl", i)
	if err != nil {
		return action, err
	}

	method, err := parameters.String(params, "method", i, defaultMethod)
	if err != nil {
		return action, &ParameterError{Name: "method", Err: err}
	}

	if method == "" {
		method = defaultMethod
	}

	options, err := parameters.Collection(params, "webhookOptions", i)
	if err != nil {
		return action, &ParameterError{Name: "webhookOptions", Err: err}
	}

	request := &models.HTTPRequest{
		URL:    url,
		Method: strings.ToUpper(method),
	}

	if request.Body, err = jsonOption(options, "body"); err != nil {
		return action, err
	}

	if request.Headers, err = jsonOption(options, "headers"); err != nil {
		return action, err
	}

	action = models.ScheduledAction{
		Name:     name,
		Mode:     models.ActionModeImmediate,
		Request:  request,
		Schedule: ParseSchedule(schedule),
	}

	if v, ok := options["maxAttempts"]; ok && v != nil {
		if action.MaxAttempts, err = parameters.AsInt("maxAttempts", v); err != nil {
			return action, &ParameterError{Name: "webhookOptions.maxAttempts", Err: err}
		}
	}

	retryStrategy, err := stringOption(options, "retryStrategy")
	if err != nil {
		return action, err
	}

	action.RetryStrategy = models.RetryStrategy(retryStrategy)

	if action.IdempotencyKey, err = stringOption(options, "idempotencyKey"); err != nil {
		return action, err
	}

	if action.CallbackURL, err = stringOption(options, "callbackUrl"); err != nil {
		return action, err
	}

	return action, nil
}

// BuildApprovalAction assembles a gated action from the createApproval parameters.
func BuildApprovalAction(params protocol.ParameterSource, i int) (models.ScheduledAction, error) {
	var action models.ScheduledAction

	name, err := requiredString(params, "approvalName", i)
	if err != nil {
		return action, err
	}

	message, err := requiredString(params, "message", i)
	if err != nil {
		return action, err
	}

	recipients, err := parameters.String(params, "recipients", i, "")
	if err != nil {
		return action, &ParameterError{Name: "recipients", Err: err}
	}

	channels, _, err := parameters.StringSlice(params, "channels", i)
	if err != nil {
		return action, &ParameterError{Name: "channels", Err: err}
	}

	if len(channels) == 0 {
		channels = []string{models.ChannelEmail}
	}

	schedule, err := parameters.String(params, "approvalSchedule", i, defaultApprovalSchedule)
	if err != nil {
		return action, &ParameterError{Name: "approvalSchedule", Err: err}
	}

	if schedule == "" {
		schedule = defaultApprovalSchedule
	}

	options, err := parameters.Collection(params, "approvalOptions", i)
	if err != nil {
		return action, &ParameterError{Name: "approvalOptions", Err: err}
	}

	gate := &models.Gate{
		Message:          message,
		Recipients:       SplitRecipients(recipients),
		Channels:         channels,
		Timeout:          defaultTimeout,
		OnTimeout:        models.TimeoutPolicyExpire,
		MaxSnoozes:       defaultMaxSnoozes,
		ConfirmationMode: models.ConfirmationModeFirstResponse,
	}

	if v, err := stringOption(options, "timeout"); err != nil {
		return action, err
	} else if v != "" {
		gate.Timeout = v
	}

	if v, err := stringOption(options, "onTimeout"); err != nil {
		return action, err
	} else if v != "" {
		gate.OnTimeout = models.TimeoutPolicy(v)
	}

	if v, err := stringOption(options, "confirmationMode"); err != nil {
		return action, err
	} else if v != "" {
		gate.ConfirmationMode = models.ConfirmationMode(v)
	}

	// An explicit zero disables snoozing, so only an absent value takes the default.
	if v, ok := options["maxSnoozes"]; ok && v != nil {
		if gate.MaxSnoozes, err = parameters.AsInt("maxSnoozes", v); err != nil {
			return action, &ParameterError{Name: "approvalOptions.maxSnoozes", Err: err}
		}
	}

	action = models.ScheduledAction{
		Name:     name,
		Mode:     models.ActionModeGated,
		Gate:     gate,
		Schedule: ParseApprovalSchedule(schedule),
	}

	if action.CallbackURL, err = stringOption(options, "callbackUrl"); err != nil {
		return action, err
	}

	return action, nil
}

func requiredString(params protocol.ParameterSource, name string, i int) (string, error) {
	v, err := parameters.String(params, name, i, "")
	if err != nil {
		return "", &ParameterError{Name: name, Err: err}
	}

	if v == "" {
		return "", missing(name)
	}

	return v, nil
}

func stringOption(options map[string]any, name string) (string, error) {
	v, ok := options[name]
	if !ok || v == nil {
		return "", nil
	}

	s, err := parameters.AsString(name, v)
	if err != nil {
		return "", &ParameterError{Name: name, Err: err}
	}

	return s, nil
}

// jsonOption decodes a JSON-text option. Values that already arrive decoded
// (objects or arrays from a JSON request body) are used as they are.
func jsonOption(options map[string]any, name string) (any, error) {
	v, ok := options[name]
	if !ok || v == nil {
		return nil, nil
	}

	text, ok := v.(string)
	if !ok {
		return v, nil
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, &ParameterError{Name: name, Err: fmt.Errorf("%w: %w", ErrInvalidJSON, err)}
	}

	return decoded, nil
}
