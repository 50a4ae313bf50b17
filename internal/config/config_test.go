package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLIENT_ID", "CLIENT_SECRET", "AUTHORITY",
		"B2C_TENANT_NAME", "SIGNUPSIGNIN_USER_FLOW", "EDITPROFILE_USER_FLOW", "RESETPASSWORD_USER_FLOW",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"REDIS_URL", "LISTEN_ADDR", "LOG_LEVEL", "ENV", "EXTERNAL_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFromEnv()

	assert.Equal(t, "https://login.microsoftonline.com/common", cfg.Authority)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "http://localhost:8080", cfg.ExternalURL)
	assert.False(t, cfg.HasClientCredentials())
	assert.False(t, cfg.HasDBConfig())
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_Authority(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTHORITY", "https://login.microsoftonline.com/mytenant")

	cfg := LoadFromEnv()
	assert.Equal(t, "https://login.microsoftonline.com/mytenant", cfg.Authority)
}

func TestLoadFromEnv_B2CDerivation(t *testing.T) {
	clearEnv(t)
	t.Setenv("B2C_TENANT_NAME", "contoso")
	t.Setenv("SIGNUPSIGNIN_USER_FLOW", "B2C_1_signupsignin")
	t.Setenv("EDITPROFILE_USER_FLOW", "B2C_1_editprofile")
	t.Setenv("RESETPASSWORD_USER_FLOW", "B2C_1_resetpassword")
	// B2C wins over a plain AUTHORITY
	t.Setenv("AUTHORITY", "https://login.microsoftonline.com/ignored")

	cfg := LoadFromEnv()

	assert.Equal(t, "https://contoso.b2clogin.com/contoso.onmicrosoft.com/B2C_1_signupsignin", cfg.Authority)
	assert.Equal(t, "https://contoso.b2clogin.com/contoso.onmicrosoft.com/B2C_1_editprofile", cfg.B2CProfileAuthority)
	assert.Equal(t, "https://contoso.b2clogin.com/contoso.onmicrosoft.com/B2C_1_resetpassword", cfg.B2CResetPasswordAuthority)
}

func TestLoadFromEnv_IncompleteB2CFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("B2C_TENANT_NAME", "contoso")

	cfg := LoadFromEnv()

	assert.Equal(t, "https://login.microsoftonline.com/common", cfg.Authority)
	assert.Empty(t, cfg.B2CProfileAuthority)
	assert.Contains(t, cfg.Warnings[0], "incomplete B2C configuration")
}

func TestLoadFromEnv_ClientCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIENT_ID", "client-id")
	t.Setenv("CLIENT_SECRET", "client-secret")

	cfg := LoadFromEnv()
	assert.True(t, cfg.HasClientCredentials())
}

func TestRedirectURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXTERNAL_URL", "https://portal.example.com/")

	cfg := LoadFromEnv()
	assert.Equal(t, "https://portal.example.com/getAToken", cfg.RedirectURL())
}

func TestPostgresDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_USER", "portal")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("DB_NAME", "logins")

	cfg := LoadFromEnv()
	assert.True(t, cfg.HasDBConfig())
	assert.Equal(t,
		"host=db.example.com port=5432 user=portal dbname=logins sslmode=prefer password=hunter2",
		cfg.PostgresDSN())
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())

	cfg.Authority = "not a url"
	assert.Error(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())

	cfg.LogLevel = ""
	assert.Equal(t, "INFO", cfg.SlogLevel().String())

	cfg.LogLevel = "warning"
	assert.Equal(t, "WARN", cfg.SlogLevel().String())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment\n"+
			"CLIENT_ID=from-dotenv\n"+
			"CLIENT_SECRET=\"quoted\"\n"+
			"\n"+
			"not-a-pair\n",
	), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("CLIENT_ID"))
	assert.Equal(t, "quoted", os.Getenv("CLIENT_SECRET"))

	// Environment variables take precedence over the file.
	t.Setenv("CLIENT_ID", "from-env")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("CLIENT_ID"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
