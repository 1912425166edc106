package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_StubDefaults(t *testing.T) {
	noEnvFile(t)
	t.Setenv("MODE", "stub")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 25*time.Minute, cfg.PhonePe.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.PhonePe.TokenMargin)
	assert.Equal(t, 20*time.Second, cfg.PhonePe.Timeout)
	assert.Equal(t, int64(1000), cfg.Rewards.MinorUnitsPerPoint)
	assert.Empty(t, cfg.PhonePe.AuthURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_SandboxRequiresCredentials(t *testing.T) {
	noEnvFile(t)
	t.Setenv("MODE", "sandbox")
	t.Setenv("CLIENT_ID", "")
	t.Setenv("CLIENT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoad_ModeSelectsEndpoints(t *testing.T) {
	noEnvFile(t)
	t.Setenv("CLIENT_ID", "id")
	t.Setenv("CLIENT_SECRET", "secret")

	t.Setenv("MODE", "production")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.phonepe.com/apis/identity-manager/v1/oauth/token", cfg.PhonePe.AuthURL)
	assert.Equal(t, "https://api.phonepe.com/apis/pg/checkout/v2", cfg.PhonePe.CheckoutBaseURL)

	t.Setenv("MODE", "SANDBOX")
	t.Setenv("CHECKOUT_BASE_URL", "http://127.0.0.1:9999/checkout")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api-preprod.phonepe.com/apis/pg-sandbox/v1/oauth/token", cfg.PhonePe.AuthURL)
	assert.Equal(t, "http://127.0.0.1:9999/checkout", cfg.PhonePe.CheckoutBaseURL)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	noEnvFile(t)
	t.Setenv("MODE", "live")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported MODE")
}

func TestLoad_EnvFileFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MODE=stub\nPORT=7070\nTOKEN_TTL=10m\nPUBLIC_BASE_URL=https://shop.example/\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("ADMIN_EMAIL", "ops@shop.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.PhonePe.TokenTTL)
	assert.Equal(t, "https://shop.example", cfg.Server.PublicBaseURL)
	assert.Equal(t, "ops@shop.example", cfg.Email.AdminEmail)
}

func TestValidate_AdminNeedsSecret(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: "5000"},
		PhonePe: PhonePeConfig{Mode: ModeStub},
		Rewards: RewardsConfig{MinorUnitsPerPoint: 1000},
		Admin:   AdminConfig{PasswordHash: "$2a$10$abc"},
	}
	assert.Error(t, cfg.Validate())
	cfg.Admin.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TrustedProxies(t *testing.T) {
	noEnvFile(t)
	t.Setenv("MODE", "stub")

	t.Setenv("TRUSTED_PROXIES", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Server.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,127.0.0.1 ")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
}
