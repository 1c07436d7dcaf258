package models

// ActionMode selects how the remote service runs a scheduled action.
type ActionMode string

const (
	// ActionModeImmediate fires an HTTP request once the schedule elapses.
	ActionModeImmediate ActionMode = "immediate"
	// ActionModeGated asks recipients for approval before anything happens.
	ActionModeGated ActionMode = "gated"
)

type RetryStrategy string

const (
	RetryStrategyExponential RetryStrategy = "exponential"
	RetryStrategyFixed       RetryStrategy = "fixed"
)

type TimeoutPolicy string

const (
	TimeoutPolicyExpire  TimeoutPolicy = "expire"
	TimeoutPolicyCancel  TimeoutPolicy = "cancel"
	TimeoutPolicyApprove TimeoutPolicy = "approve"
)

type ConfirmationMode string

const (
	ConfirmationModeFirstResponse ConfirmationMode = "first_response"
	ConfirmationModeAllRequired   ConfirmationMode = "all_required"
)

// Delivery channels accepted by an approval gate.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelTeams = "teams"
	ChannelSlack = "slack"
)

// ScheduledAction is the body sent to POST /api/v1/actions. Exactly one of
// Request and Gate is set, matching Mode.
type ScheduledAction struct {
	Name           string        `json:"name"                      validate:"required"`
	Mode           ActionMode    `json:"mode"                      validate:"required,oneof=immediate gated"`
	Request        *HTTPRequest  `json:"request,omitempty"         validate:"required_if=Mode immediate,excluded_if=Mode gated"`
	Gate           *Gate         `json:"gate,omitempty"            validate:"required_if=Mode gated,excluded_if=Mode immediate"`
	Schedule       Schedule      `json:"schedule"`
	MaxAttempts    int           `json:"max_attempts,omitempty"    validate:"gte=0"`
	RetryStrategy  RetryStrategy `json:"retry_strategy,omitempty"  validate:"omitempty,oneof=exponential fixed"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	CallbackURL    string        `json:"callback_url,omitempty"`
}

// HTTPRequest describes the webhook the remote service fires in immediate mode.
// Body and Headers hold already-decoded JSON values.
type HTTPRequest struct {
	URL     string `json:"url"               validate:"required"`
	Method  string `json:"method"            validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Body    any    `json:"body,omitempty"`
	Headers any    `json:"headers,omitempty"`
}

// Gate is the approval configuration of a gated action.
type Gate struct {
	Message          string           `json:"message"`
	Recipients       []string         `json:"recipients"`
	Channels         []string         `json:"channels"          validate:"dive,oneof=email sms teams slack"`
	Timeout          string           `json:"timeout"`
	OnTimeout        TimeoutPolicy    `json:"on_timeout"        validate:"oneof=expire cancel approve"`
	MaxSnoozes       int              `json:"max_snoozes"       validate:"gte=0"`
	ConfirmationMode ConfirmationMode `json:"confirmation_mode" validate:"oneof=first_response all_required"`
}

// Schedule is either a relative wait ("30m", "2d") or an absolute timestamp.
type Schedule struct {
	Wait string `json:"wait,omitempty"`
	At   string `json:"at,omitempty"`
}
