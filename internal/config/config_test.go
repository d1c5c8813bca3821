package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "BASE_URL", "DB_DRIVER", "DB_DSN", "JWT_SECRET",
		"JWT_TTL", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"DEFAULT_IMAGE_PATH",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// Keep a stray .env in the package directory out of the way.
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	want.JWT.Secret = devSecret
	assert.Equal(t, want, cfg)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
env: production
port: 9000
db:
  driver: postgres
  dsn: postgres://ledger@localhost/ledger
jwt:
  secret: from-file
  ttl: 2h
log:
  level: debug
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, 1.0, cfg.RateLimit.RPS)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("PORT=7070\nLOG_LEVEL=warn\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"DB_DRIVER": "mysql"},
			want: `unknown db driver "mysql"`,
		},
		{
			name: "secret required in production",
			env:  map[string]string{"APP_ENV": EnvProduction},
			want: "jwt secret is required",
		},
		{
			name: "bad log level",
			env:  map[string]string{"LOG_LEVEL": "loud"},
			want: `unknown log level "loud"`,
		},
		{
			name: "bad port",
			env:  map[string]string{"PORT": "70000"},
			want: "invalid port 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
