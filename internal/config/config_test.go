package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err, "explicit missing file must fail")

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "bank.db", c.Database.Path)
	assert.Equal(t, 10, c.App.HistoryLimit)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("database:\n  path: /tmp/other.db\napp:\n  history_limit: 25\ntelegram:\n  token: abc\n  admin_id: 42\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", c.Database.Path)
	assert.Equal(t, 25, c.App.HistoryLimit)
	assert.Equal(t, "abc", c.Telegram.Token)
	assert.Equal(t, int64(42), c.Telegram.AdminID)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BANK_DATABASE_PATH", "/tmp/env.db")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", c.Database.Path)
}
