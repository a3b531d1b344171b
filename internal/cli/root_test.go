package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSetGetDeleteAgainstFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	out, err := execute(t, "--path", path, "set", "flag", "true")
	require.NoError(t, err)
	assert.Equal(t, "stored flag\n", out)

	out, err = execute(t, "--path", path, "get", "flag")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "--path", path, "--format", "json", "get", "flag")
	require.NoError(t, err)
	var record Record
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.True(t, record.Present)
	assert.JSONEq(t, "true", string(record.Value))

	out, err = execute(t, "--path", path, "rm", "flag")
	require.NoError(t, err)
	assert.Equal(t, "deleted flag\n", out)

	_, err = execute(t, "--path", path, "get", "flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored value")
}

func TestGetMissingKeyAsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	out, err := execute(t, "--path", path, "--format", "json", "get", "absent")
	require.NoError(t, err)
	var record Record
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "absent", record.Key)
	assert.False(t, record.Present)
}

func TestSetRejectsInvalidJSONUnlessRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	_, err := execute(t, "--path", path, "set", "name", "ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")

	_, err = execute(t, "--path", path, "set", "--raw", "name", "ada")
	require.NoError(t, err)

	out, err := execute(t, "--path", path, "--format", "json", "get", "name")
	require.NoError(t, err)
	var record Record
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "ada", record.Raw)
}

func TestPrefixIsolatesKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	_, err := execute(t, "--path", path, "--prefix", "app/", "set", "flag", "true")
	require.NoError(t, err)

	_, err = execute(t, "--path", path, "get", "flag")
	require.Error(t, err)

	out, err := execute(t, "--path", path, "get", "app/flag")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestConfigFileSelectsStore(t *testing.T) {
	t.Setenv("PERSISTED_STORE_PATH", "")
	t.Setenv("PERSISTED_STORE_DRIVER", "")
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "prefs.json")
	configPath := filepath.Join(dir, "store.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("driver: file\npath: "+dataPath+"\n"), 0o600))

	_, err := execute(t, "--config", configPath, "set", "count", "3")
	require.NoError(t, err)

	_, err = os.Stat(dataPath)
	require.NoError(t, err)
}

func TestInvalidFormatAndDriver(t *testing.T) {
	_, err := execute(t, "--format", "xml", "get", "flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")

	_, err = execute(t, "--driver", "etcd", "get", "flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
