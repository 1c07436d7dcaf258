package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCommand()
	root.Writer = &out
	root.ErrWriter = &out

	err := root.Run(context.Background(), append([]string{"operion-callmelater", "--log-level", "error"}, args...))

	return out.String(), err
}

func TestNodesCommand_ListsBuiltinNodes(t *testing.T) {
	out, err := runCLI(t, "nodes")
	require.NoError(t, err)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "callmelater", nodes[0]["id"])
	assert.Equal(t, "trigger:callmelater", nodes[1]["id"])
}

func TestActionCommand_GetPrintsData(t *testing.T) {
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		_, _ = w.Write([]byte(`{"data":{"id":"act_42","status":"executed"}}`))
	}))
	defer server.Close()

	out, err := runCLI(t, "--api-token", "tok_cli", "--api-url", server.URL, "action", "get", "act_42")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/actions/act_42", gotPath)
	assert.Equal(t, "Bearer tok_cli", gotAuth)
	assert.JSONEq(t, `{"id":"act_42","status":"executed"}`, out)
}

func TestActionCommand_CancelPrintsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)

		_, _ = w.Write([]byte(`{"message":"Action cancelled","data":{"id":"act_42"}}`))
	}))
	defer server.Close()

	out, err := runCLI(t, "--api-token", "tok_cli", "--api-url", server.URL, "action", "cancel", "act_42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Action cancelled","data":{"id":"act_42"}}`, out)
}

func TestActionCommand_RequiresActionID(t *testing.T) {
	_, err := runCLI(t, "--api-token", "tok_cli", "action", "get")
	require.ErrorIs(t, err, errMissingActionID)
}

func TestCredentialsTest_ReportsRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	}))
	defer server.Close()

	_, err := runCLI(t, "--api-token", "bad", "--api-url", server.URL, "credentials", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential test failed")
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	var seenAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")

		_, _ = w.Write([]byte(`{"remaining":10}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("callmelater:\n  api_token: from_file\n  api_url: "+server.URL+"\n"), 0o600))

	out, err := runCLI(t, "--config", path, "credentials", "test")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from_file", seenAuth)
	assert.JSONEq(t, `{"remaining":10}`, out)

	_, err = runCLI(t, "--config", path, "--api-token", "from_flag", "credentials", "test")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from_flag", seenAuth)
}

func TestActionCommand_CreateApprovalRecipientsAndChannels(t *testing.T) {
	var sent map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)

		_, _ = w.Write([]byte(`{"data":{"id":"act_7"}}`))
	}))
	defer server.Close()

	_, err := runCLI(t, "--api-token", "tok_cli", "--api-url", server.URL,
		"action", "create-approval",
		"--name", "deploy", "--message", "ship it?",
		"--recipients", "a@example.com, b@example.com",
		"--channel", "teams", "--channel", "slack")
	require.NoError(t, err)

	gate, ok := sent["gate"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a@example.com", "b@example.com"}, gate["recipients"])
	assert.Equal(t, []any{"teams", "slack"}, gate["channels"])
}

func TestActionCommand_ApprovalFlagUsage(t *testing.T) {
	approval := ActionCommand().Command("create-approval")
	require.NotNil(t, approval)

	usage := map[string]string{}

	for _, flag := range approval.Flags {
		switch f := flag.(type) {
		case *cli.StringFlag:
			usage[f.Name] = f.Usage
		case *cli.StringSliceFlag:
			usage[f.Name] = f.Usage
		}
	}

	assert.Equal(t, "Comma-separated recipients", usage["recipients"])
	assert.Contains(t, usage["channel"], "teams")
	assert.Contains(t, usage["channel"], "slack")
}
