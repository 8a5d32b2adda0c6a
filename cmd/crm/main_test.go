package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T, dbPath string) {
	t.Helper()
	t.Setenv("CRM_CONFIG", "")
	t.Setenv("CRM_DB_DRIVER", "sqlite")
	t.Setenv("CRM_DB", dbPath)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CRM_LOG_LEVEL", "error")
}

func TestMigrateAndSeed(t *testing.T) {
	isolateEnv(t, filepath.Join(t.TempDir(), "crm.db"))

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema at version 3\n", out)

	out, err = execute(t, "seed", "--demo")
	require.NoError(t, err)
	assert.Equal(t, "seed complete\n", out)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	isolateEnv(t, "")
	cfgPath := filepath.Join(dir, "crm.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db: "+filepath.Join(dir, "from-file.db")+"\n"), 0o600))

	_, err := execute(t, "--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-file.db"))
}

func TestAgentRunWithoutModel(t *testing.T) {
	isolateEnv(t, filepath.Join(t.TempDir(), "crm.db"))

	_, err := execute(t, "agent", "run", "forecast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = execute(t, "agent", "run")
	assert.Error(t, err)
}
