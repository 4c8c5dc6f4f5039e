package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cfgctl/internal/config"
)

func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, key := range []string{config.EnvAPIKey, config.EnvBaseURL, config.EnvTimeoutMS, config.EnvLogLevel, config.EnvDebug} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	withEnv(t, map[string]string{config.EnvAPIKey: "k"})

	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Equal(t, "configuration OK\n", out)
}

func TestCheck_JSON(t *testing.T) {
	withEnv(t, map[string]string{config.EnvAPIKey: "k"})

	out, err := execute(t, "check", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true}`, out)
}

func TestCheck_MissingKey(t *testing.T) {
	withEnv(t, nil)

	_, err := execute(t, "check")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.NewMissingVar(config.EnvAPIKey)))
	assert.Equal(t, "load config: missing environment variable: API_KEY", err.Error())
}

func TestCheck_ZeroTimeout(t *testing.T) {
	withEnv(t, map[string]string{config.EnvAPIKey: "k", config.EnvTimeoutMS: "0"})

	_, err := execute(t, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEOUT_MS must be > 0")
}

func TestShow_MasksKey(t *testing.T) {
	withEnv(t, map[string]string{
		config.EnvAPIKey:   "sk-live-abcdef1234",
		config.EnvLogLevel: "verbose",
	})

	out, err := execute(t, "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-live")
	assert.Contains(t, out, "****1234")
	assert.Contains(t, out, config.DefaultBaseURL)
	assert.Contains(t, out, "5000")
	assert.Contains(t, out, "verbose")
}

func TestShow_JSON(t *testing.T) {
	withEnv(t, map[string]string{config.EnvAPIKey: "sk-live-abcdef1234", config.EnvDebug: "true"})

	out, err := execute(t, "show", "--json")
	require.NoError(t, err)

	var got config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, config.Config{
		APIKey:    "****1234",
		BaseURL:   config.DefaultBaseURL,
		TimeoutMS: config.DefaultTimeoutMS,
		LogLevel:  config.DefaultLogLevel,
		Debug:     true,
	}, got)
}

func TestVars(t *testing.T) {
	withEnv(t, nil)

	out, err := execute(t, "vars")
	require.NoError(t, err)
	for _, key := range []string{"API_KEY", "BASE_URL", "TIMEOUT_MS", "LOG_LEVEL", "DEBUG"} {
		assert.Contains(t, out, key)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	withEnv(t, map[string]string{config.EnvAPIKey: "k", config.EnvBaseURL: srv.URL})

	out, err := execute(t, "ping", "--path", "/health")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "reachable\n"), out)

	withEnv(t, map[string]string{config.EnvAPIKey: "wrong", config.EnvBaseURL: srv.URL})

	_, err = execute(t, "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want zerolog.Level
	}{
		{"debug", config.Config{LogLevel: "debug"}, zerolog.DebugLevel},
		{"info", config.Config{LogLevel: "info"}, zerolog.InfoLevel},
		{"warn", config.Config{LogLevel: "warn"}, zerolog.WarnLevel},
		{"error", config.Config{LogLevel: "error"}, zerolog.ErrorLevel},
		{"unknown falls back to info", config.Config{LogLevel: "verbose"}, zerolog.InfoLevel},
		{"debug flag wins", config.Config{LogLevel: "error", Debug: true}, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := logLevel(tt.cfg); got != tt.want {
				t.Errorf("logLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
