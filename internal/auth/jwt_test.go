package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{Secret: "test-secret", Issuer: "studio-ops-api", Audience: "studio-ops-admin", TTL: time.Hour}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewTokenService(testConfig(), nil)

	token, err := svc.Generate("u-1", "alice", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "admin", claims.Role)
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := NewTokenService(testConfig(), nil)
	_, err := svc.Validate("invalid.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := NewTokenService(testConfig(), clock)

	token, err := svc.Generate("u-1", "alice", "admin")
	require.NoError(t, err)
	_, err = svc.Validate(token)
	require.NoError(t, err)

	// Past expiry the cached verification must not be served either.
	clock.Advance(time.Hour + time.Second)
	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuerOrAudience(t *testing.T) {
	issuer := NewTokenService(testConfig(), nil)

	other := testConfig()
	other.Issuer = "someone-else"
	token, err := NewTokenService(other, nil).Generate("u-1", "alice", "admin")
	require.NoError(t, err)
	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other = testConfig()
	other.Audience = "public-site"
	token, err = NewTokenService(other, nil).Generate("u-1", "alice", "admin")
	require.NoError(t, err)
	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	other := testConfig()
	other.Secret = "another-secret"
	token, err := NewTokenService(other, nil).Generate("u-1", "alice", "admin")
	require.NoError(t, err)

	_, err = NewTokenService(testConfig(), nil).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	cfg := testConfig()
	claims := Claims{
		UserID: "u-1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService(cfg, nil).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
