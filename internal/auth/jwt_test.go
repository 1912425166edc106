package auth

import (
	"testing"
	"time"

	"paybridge/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func adminConfig(t *testing.T, password string) *config.AdminConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.AdminConfig{PasswordHash: string(hash), JWTSecret: "test-secret", TokenExpiry: time.Hour, Issuer: "paybridge"}
}

func TestAdminToken_RoundTrip(t *testing.T) {
	cfg := adminConfig(t, "pw")
	tok, exp, err := GenerateAdminToken(cfg, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "admin", claims.Subject)
}

func TestParseToken_Rejects(t *testing.T) {
	cfg := adminConfig(t, "pw")

	expired, _, err := GenerateAdminToken(cfg, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(cfg, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := *cfg
	other.JWTSecret = "other"
	forged, _, err := GenerateAdminToken(&other, time.Now())
	require.NoError(t, err)
	_, err = ParseToken(cfg, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(cfg, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckAdminPassword(t *testing.T) {
	cfg := adminConfig(t, "correct horse")
	assert.NoError(t, CheckAdminPassword(cfg, "correct horse"))
	assert.ErrorIs(t, CheckAdminPassword(cfg, "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckAdminPassword(&config.AdminConfig{}, "x"), ErrAdminDisabled)
}
