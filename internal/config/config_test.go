package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = "data/accounts.db"
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.TokenTTLHours = 168
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCOUNTS_AUTH_JWTSECRET", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL())
	assert.True(t, cfg.Auth.CookieSecure)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5500", "http://127.0.0.1:5500"}, cfg.CORS.Origins)
	assert.Equal(t, "removed-users", cfg.Archive.KeyPrefix)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("ACCOUNTS_DATABASE_DRIVER", "mongo")
	t.Setenv("ACCOUNTS_AUTH_COOKIESECURE", "false")
	t.Setenv("ACCOUNTS_AUTH_TOKENTTLHOURS", "24")
	t.Setenv("ACCOUNTS_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"# comment\nACCOUNTS_SERVER_ADDR=\"127.0.0.1:9000\"\nACCOUNTS_AUTH_JWTSECRET=dotenv\n",
	), 0o600))
	t.Setenv("ACCOUNTS_AUTH_JWTSECRET", "real-env")
	t.Setenv("ACCOUNTS_SERVER_ADDR", "")
	os.Unsetenv("ACCOUNTS_SERVER_ADDR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "real-env", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	missingSecret := validConfig()
	missingSecret.Auth.JWTSecret = "  "
	assert.ErrorContains(t, missingSecret.Validate(), "jwt secret")

	badTTL := validConfig()
	badTTL.Auth.TokenTTLHours = 0
	assert.Error(t, badTTL.Validate())

	badDriver := validConfig()
	badDriver.Database.Driver = "postgres"
	assert.ErrorContains(t, badDriver.Validate(), "unsupported database driver")

	mongo := validConfig()
	mongo.Database.Driver = DriverMongo
	assert.Error(t, mongo.Validate())
	mongo.Database.MongoURI = "mongodb://localhost:27017"
	mongo.Database.MongoDB = "accounts"
	assert.NoError(t, mongo.Validate())
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"a", "b", "c"},
		splitOrigins([]string{"a, b", " ", "c"}),
	)
	assert.Nil(t, splitOrigins(nil))
}
