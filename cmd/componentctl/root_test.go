package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatus_Text(t *testing.T) {
	out, err := runCmd(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "maxRequestSize (int64) - direct value set [default]")
	assert.Contains(t, out, "*log/slog.Logger (*slog.Logger) - resolver: (context.Context) *slog.Logger, error [default]")
}

func TestStatus_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  max_request_size: 4096\nasync:\n  workers: 2\n"), 0o600))

	out, err := runCmd(t, "status", "--config", path, "--format", "yaml")
	require.NoError(t, err)

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.NotEmpty(t, r.Session)
	assert.Equal(t, int64(4096), r.Settings.HTTP.MaxRequestSize)
	assert.Equal(t, 2, r.Settings.Async.Workers)
	assert.Equal(t, []string{"request-logger", "shared-cache"}, r.Plugins)

	ids := map[string]bool{}
	for _, c := range r.Components {
		ids[c.ID] = true
	}
	assert.True(t, ids["maxRequestSize"])
	assert.True(t, ids["validationErrorMapper"])
	assert.True(t, ids["github.com/gburgyan/go-ctxcomp/plugins.CacheSettings"])
}

func TestStatus_NoPlugins(t *testing.T) {
	out, err := runCmd(t, "status", "--no-plugins", "-f", "yaml")
	require.NoError(t, err)

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Empty(t, r.Plugins)
	for _, c := range r.Components {
		assert.NotEqual(t, "github.com/gburgyan/go-ctxcomp.Cache", c.ID)
	}
}

func TestStatus_Errors(t *testing.T) {
	_, err := runCmd(t, "status", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCmd(t, "status", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
