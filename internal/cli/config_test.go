package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nomina/internal/config"
)

func executeConfig(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	t.Setenv(EnvConfig, "")

	buf := &bytes.Buffer{}
	cmd := NewConfigCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestConfigDefaultsText(t *testing.T) {
	buf, err := executeConfig(t, "text")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, config.DefaultVersion, doc["version"])
	assert.Contains(t, doc, "salary")
	assert.Contains(t, doc, "actuarial")
}

func TestConfigOverlayJSON(t *testing.T) {
	path := writeFile(t, "assumptions.yaml", "version: \"2026.4\"\nactuarial:\n  discount_rate: 0.075\n")

	buf, err := executeConfig(t, "json", "--config", path)
	require.NoError(t, err)

	var resp struct {
		Status string             `json:"status"`
		Data   config.Assumptions `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2026.4", resp.Data.Version)
	assert.Equal(t, 0.075, resp.Data.Actuarial.DiscountRate)
	assert.Equal(t, config.Defaults().Actuarial.RetirementAge, resp.Data.Actuarial.RetirementAge)
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("NOMINA_DISCOUNT_RATE", "0.065")

	buf, err := executeConfig(t, "json")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"discount_rate": 0.065`)
}

func TestConfigMissingFile(t *testing.T) {
	buf, err := executeConfig(t, "text", "--config", "/nonexistent/assumptions.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error ["+ErrCodeNotFound+"]")
}

// ============================================================================
// config check
// ============================================================================

func TestConfigCheckValid(t *testing.T) {
	path := writeFile(t, "assumptions.yaml", "version: \"2026.4\"\n")

	buf, err := executeConfig(t, "text", "check", path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "is valid (version 2026.4)")
}

func TestConfigCheckValidJSON(t *testing.T) {
	path := writeFile(t, "assumptions.yaml", "salary:\n  period: daily\n")

	buf, err := executeConfig(t, "json", "check", path)
	require.NoError(t, err)

	var resp struct {
		Data ConfigCheckOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ConfigCheckOutput{File: path, Valid: true, Version: config.DefaultVersion}, resp.Data)
}

func TestConfigCheckInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"unknown key", "colour: blue\n", "violates the assumptions schema"},
		{"bad period", "salary:\n  period: weekly\n", "violates the assumptions schema"},
		{"cross-field", "risk:\n  medium_threshold: 60\n  high_threshold: 50\n", "risk thresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "assumptions.yaml", tt.content)
			buf, err := executeConfig(t, "text", "check", path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, buf.String(), "Error ["+ErrCodeConfig+"]")
			assert.Contains(t, buf.String(), tt.message)
		})
	}
}

func TestConfigCheckMissingFile(t *testing.T) {
	buf, err := executeConfig(t, "text", "check", "/nonexistent/assumptions.yaml")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Error ["+ErrCodeNotFound+"]")
}
