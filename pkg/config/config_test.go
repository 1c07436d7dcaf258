package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/credentials"
	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.EventBusGoChannel, cfg.EventBus.Type)
	assert.Equal(t, config.DefaultRedisQueue, cfg.EventBus.Redis.Queue)
	assert.Equal(t, credentials.DefaultAPIURL, cfg.CallMeLater.BaseURL())
	assert.Empty(t, cfg.Triggers)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("CML_TEST_TOKEN", "sk_live_env")
	t.Setenv("CML_TEST_SECRET", "whsec_env")
	t.Setenv("CML_TEST_SECRET_FILE_ENV", "whsec_from_secret_env")

	path := filepath.Join(t.TempDir(), "callmelater.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
server:
  port: 8080
callmelater:
  api_token: ${CML_TEST_TOKEN}
  api_url: https://cml.internal/
event_bus:
  type: redis
  redis:
    addr: redis:6379
    db: 2
action:
  defaults:
    method: PUT
    webhookOptions:
      maxAttempts: 3
triggers:
  - id: approvals
    event: reminder.responded
    secret: ${CML_TEST_SECRET}
  - id: failures
    event: action.failed
    secret_env: CML_TEST_SECRET_FILE_ENV
  - id: everything
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sk_live_env", cfg.CallMeLater.APIToken)
	assert.Equal(t, "https://cml.internal", cfg.CallMeLater.BaseURL())
	assert.Equal(t, config.EventBusRedis, cfg.EventBus.Type)
	assert.Equal(t, 2, cfg.EventBus.Redis.DB)
	assert.Equal(t, "PUT", cfg.Action.Defaults["method"])

	require.Len(t, cfg.Triggers, 3)

	approvals := cfg.Triggers[0]
	assert.Equal(t, "approvals", approvals.ID)
	assert.Equal(t, map[string]any{"event": models.EventReminderResponded, "webhookSecret": "whsec_env"}, approvals.NodeConfig())

	failures := cfg.Triggers[1]
	assert.Equal(t, "failures", failures.ID)
	assert.Equal(t, "whsec_from_secret_env", failures.Secret)

	everything := cfg.Triggers[2]
	assert.Equal(t, "everything", everything.ID)
	assert.Equal(t, models.EventAny, everything.Event)
	assert.Empty(t, everything.Secret)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown event", yaml: "triggers:\n  - id: a\n    event: action.deleted\n"},
		{name: "duplicate trigger", yaml: "triggers:\n  - id: a\n  - id: a\n"},
		{name: "trigger without id", yaml: "triggers:\n  - event: any\n"},
		{name: "id with slash", yaml: "triggers:\n  - id: a/b\n"},
		{name: "unresolved secret", yaml: "triggers:\n  - id: a\n    secret: ${CML_TEST_NOT_SET_ANYWHERE}\n"},
		{name: "bad bus", yaml: "event_bus:\n  type: nats\n"},
		{name: "bad port", yaml: "server:\n  port: 70000\n"},
		{name: "not yaml", yaml: "triggers: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
