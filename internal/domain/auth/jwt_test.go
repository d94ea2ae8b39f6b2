package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "charterbooks/internal/core/context"
)

func newService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(DefaultJWTConfig("test-secret"))
	require.NoError(t, err)
	return svc
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := newService(t)
	user := appctx.UserContext{
		UserID:     "u-42",
		Email:      "skipper@example.com",
		Roles:      []string{RoleAccountant},
		CompanyIDs: []string{"c-1"},
	}

	token, expires, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, 5*time.Second)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &user, got)
}

func TestJWT_Expired(t *testing.T) {
	svc := newService(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_WrongSecretAndIssuer(t *testing.T) {
	svc := newService(t)
	token, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	other, err := NewJWTService(DefaultJWTConfig("another-secret"))
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	cfg := DefaultJWTConfig("test-secret")
	cfg.Issuer = "someone-else"
	foreign, err := NewJWTService(cfg)
	require.NoError(t, err)
	_, err = foreign.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestJWT_RejectsNoneAlgorithm(t *testing.T) {
	svc := newService(t)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "charterbooks",
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestJWT_EmptySecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}
