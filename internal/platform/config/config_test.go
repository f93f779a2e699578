package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp 切换到一个临时目录，保证测试不会读到仓库里的 config.yaml
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "users.db", cfg.Database.Sqlite.Path)
	assert.Equal(t, 5, cfg.Games.Quiz.QuestionsPerRound)
	assert.Equal(t, 10, cfg.Games.Shape.CoinsPerSuccess)
	assert.Equal(t, 1, cfg.Games.Shape.MinShapes)
	assert.Equal(t, 5, cfg.Games.Math.CoinsPerLevel)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Session.LoginAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Games.Carnival.ReconcileInterval)
	assert.Equal(t, time.Minute, cfg.Progress.CacheTTL)
	assert.Same(t, cfg, Cfg)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte(`
server:
  address: ":9000"
database:
  driver: postgres
  postgres:
    dsn: "host=db user=kids"
games:
  math:
    coinsPerLevel: 8
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SERVER_ADDRESS", ":9100")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Address, "env overrides file")
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=kids", cfg.Database.Postgres.DSN)
	assert.Equal(t, 8, cfg.Games.Math.CoinsPerLevel)
	assert.Equal(t, 10, cfg.Games.Shape.CoinsPerSuccess, "untouched keys keep defaults")
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [oops"), 0o600))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestProgressLocation(t *testing.T) {
	assert.Equal(t, time.Local, ProgressConfig{}.Location())
	assert.Equal(t, time.Local, ProgressConfig{Timezone: "Nowhere/Invalid"}.Location())
	assert.Equal(t, "UTC", ProgressConfig{Timezone: "UTC"}.Location().String())
}
