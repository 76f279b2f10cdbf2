package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Data:     DataConfig{BasePath: "/some/path"},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "/some/path/library.db"},
		Auth:     AuthConfig{LoginRate: 1, LoginBurst: 5},
		Search:   SearchConfig{Backend: SearchBackendStore},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Database(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "mysql"}
	assert.ErrorContains(t, cfg.Validate(), "invalid database driver")

	cfg.Database = DatabaseConfig{Driver: DriverPostgres}
	assert.ErrorContains(t, cfg.Validate(), "DB_DSN")

	cfg.Database = DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://localhost/library"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SearchBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Backend = SearchBackendBleve
	assert.NoError(t, cfg.Validate())

	cfg.Search.Backend = "elastic"
	assert.Error(t, cfg.Validate())
}

func TestValidate_TemplateReloadNeedsDir(t *testing.T) {
	cfg := validConfig()
	cfg.Templates.Reload = true
	assert.Error(t, cfg.Validate())

	cfg.Templates.Dir = "/srv/templates"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dataDir, "library.db"), cfg.Database.DSN)
	assert.Equal(t, filepath.Join(dataDir, "search.bleve"), cfg.Search.IndexPath)
	assert.Equal(t, filepath.Join(dataDir, "sessions"), cfg.SessionsPath())
	assert.Equal(t, SearchBackendStore, cfg.Search.Backend)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 14*24*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, 5, cfg.Auth.LoginBurst)
	assert.InDelta(t, 0.2, cfg.Auth.LoginRate, 1e-9)
	assert.False(t, cfg.Server.TrustProxy)
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load([]string{"-port", "9100", "-env-file", filepath.Join(dataDir, "none")})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	_, err := Load([]string{"-session-duration", "forever", "-env-file", filepath.Join(dataDir, "none")})
	assert.ErrorContains(t, err, "session duration")
}

func TestExpandPath(t *testing.T) {
	got, err := expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/path", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Contains(t, got, "relative/path")

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err = expandPath("~/library", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "library"), got)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
LL_TEST_ENV=staging
LL_TEST_QUOTED="some value"
LL_TEST_SINGLE='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, k := range []string{"LL_TEST_ENV", "LL_TEST_QUOTED", "LL_TEST_SINGLE"} {
		t.Setenv(k, "")
		os.Unsetenv(k) //nolint:errcheck // Test setup
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("LL_TEST_ENV"))
	assert.Equal(t, "some value", os.Getenv("LL_TEST_QUOTED"))
	assert.Equal(t, "another value", os.Getenv("LL_TEST_SINGLE"))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("LL_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LL_TEST_VAR=new-value\n"), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("LL_TEST_VAR"))
}
