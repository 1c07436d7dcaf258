package callmelater

import (
	"maps"

	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
)

// NodeFactory creates CallMeLater action nodes.
type NodeFactory struct{}

func NewNodeFactory() protocol.ActionNodeFactory {
	return &NodeFactory{}
}

// Create returns a node whose config acts as default parameters for every item.
func (f *NodeFactory) Create(config map[string]any, client protocol.HTTPClient) (protocol.ActionNode, error) {
	defaults := map[string]any{
		"resource":  ResourceAction,
		"operation": OperationCreateWebhook,
	}
	maps.Copy(defaults, config)

	return NewNode(client, defaults), nil
}

func (f *NodeFactory) ID() string {
	return models.NodeTypeCallMeLater
}

func (f *NodeFactory) Name() string {
	return "CallMeLater"
}

func (f *NodeFactory) Description() string {
	return "Schedule webhooks and human approvals with CallMeLater"
}

func (f *NodeFactory) Category() models.CategoryType {
	return models.CategoryTypeAction
}

// Schema returns the JSON schema for CallMeLater node parameters.
func (f *NodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":    "string",
				"enum":    []string{ResourceAction},
				"default": ResourceAction,
			},
			"operation": map[string]any{
				"type": "string",
				"enum": []string{
					OperationCreateWebhook,
					OperationCreateApproval,
					OperationGet,
					OperationCancel,
				},
				"default": OperationCreateWebhook,
			},
			"name": map[string]any{
				"type":        "string",
				"description": "A name for this scheduled webhook",
			},
			"schedule": map[string]any{
				"type":        "string",
				"description": "When to execute. Use relative delays (1h, 3d) or ISO datetime.",
				"default":     defaultWebhookSchedule,
				"examples":    []string{"1h", "3d", "2025-02-15T14:30:00Z"},
			},
			"webhookUrl": map[string]any{
				"type":        "string",
				"description": "The URL to call when the schedule fires",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
				"default": defaultMethod,
			},
			"webhookOptions": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"body": map[string]any{
						"type":        []string{"string", "object", "array"},
						"description": "JSON body to send with the request",
					},
					"headers": map[string]any{
						"type":        []string{"string", "object"},
						"description": "Custom headers as JSON object",
					},
					"maxAttempts": map[string]any{
						"type":        "integer",
						"description": "Maximum retry attempts on failure",
						"minimum":     0,
					},
					"retryStrategy": map[string]any{
						"type": "string",
						"enum": []string{
							string(models.RetryStrategyExponential),
							string(models.RetryStrategyFixed),
						},
					},
					"idempotencyKey": map[string]any{
						"type":        "string",
						"description": "Unique key to prevent duplicate actions",
					},
					"callbackUrl": map[string]any{
						"type":        "string",
						"description": "URL to receive webhook on completion/failure",
					},
				},
			},
			"approvalName": map[string]any{
				"type":        "string",
				"description": "A name for this approval request",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "The message recipients will see",
			},
			"recipients": map[string]any{
				"type":        "string",
				"description": "Comma-separated list of email addresses or phone numbers",
				"examples":    []string{"email@example.com, +15551234567"},
			},
			"channels": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
					"enum": []string{
						models.ChannelEmail,
						models.ChannelSMS,
						models.ChannelTeams,
						models.ChannelSlack,
					},
				},
				"default": []string{models.ChannelEmail},
			},
			"approvalSchedule": map[string]any{
				"type":        "string",
				"description": "When to send the approval request",
				"default":     defaultApprovalSchedule,
				"examples":    []string{"5m", "1h", "now"},
			},
			"approvalOptions": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"timeout": map[string]any{
						"type":        "string",
						"description": "How long to wait for a response (e.g., 4h, 1d)",
						"default":     defaultTimeout,
					},
					"onTimeout": map[string]any{
						"type": "string",
						"enum": []string{
							string(models.TimeoutPolicyExpire),
							string(models.TimeoutPolicyCancel),
							string(models.TimeoutPolicyApprove),
						},
						"default": string(models.TimeoutPolicyExpire),
					},
					"maxSnoozes": map[string]any{
						"type":    "integer",
						"minimum": 0,
						"default": defaultMaxSnoozes,
					},
					"confirmationMode": map[string]any{
						"type": "string",
						"enum": []string{
							string(models.ConfirmationModeFirstResponse),
							string(models.ConfirmationModeAllRequired),
						},
						"default": string(models.ConfirmationModeFirstResponse),
					},
					"callbackUrl": map[string]any{
						"type":        "string",
						"description": "URL to receive webhook when someone responds",
					},
				},
			},
			"actionId": map[string]any{
				"type":        "string",
				"description": "The ID of the action",
			},
		},
	}
}
