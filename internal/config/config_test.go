package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(t.TempDir())
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `templates:
  dirs: [/opt/prompts, ./local]
  watch: true
context:
  total_capacity: 200000
  optimal_remaining: 0.25
server:
  transport: HTTP
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/prompts", "./local"}, cfg.Templates.Dirs)
	assert.True(t, cfg.Templates.Watch)
	assert.True(t, cfg.Templates.IncludeBuiltin)
	assert.Equal(t, int64(200000), cfg.Context.TotalCapacity)
	assert.InDelta(t, 0.25, cfg.Context.OptimalRemaining, 1e-9)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadDefaultConfigDir(t *testing.T) {
	xdg := isolate(t)
	dir := filepath.Join(xdg, "swift-prompter")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  name: from-xdg\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-xdg", cfg.Server.Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SWIFT_PROMPTER_CONTEXT_TOTAL_CAPACITY", "5000")
	t.Setenv("SWIFT_PROMPTER_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cfg.Context.TotalCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("SWIFT_PROMPTER_SERVER_NAME=dotenv-service\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SWIFT_PROMPTER_SERVER_NAME") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-service", cfg.Server.Name)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "negative capacity", mutate: func(c *Config) { c.Context.TotalCapacity = -1 }, field: "context.total_capacity"},
		{name: "threshold above one", mutate: func(c *Config) { c.Context.OptimalRemaining = 1.2 }, field: "context.optimal_remaining"},
		{name: "unknown transport", mutate: func(c *Config) { c.Server.Transport = "grpc" }, field: "server.transport"},
		{name: "http without addr", mutate: func(c *Config) { c.Server.Transport = TransportHTTP; c.Server.HTTPAddr = "" }, field: "server.http_addr"},
		{name: "unknown level", mutate: func(c *Config) { c.Logging.Level = "trace" }, field: "logging.level"},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, field: "logging.format"},
		{name: "negative cache", mutate: func(c *Config) { c.Templates.CacheSize = -5 }, field: "templates.cache_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, models.ErrValidation)
			var verrs *models.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}

	require.NoError(t, DefaultConfig().Validate())
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/swift-prompter", DefaultConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "swift-prompter"), DefaultConfigDir())
}
