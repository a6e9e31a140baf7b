package security

import (
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}

func TestNewResetToken(t *testing.T) {
	token, digest, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Equal(t, HashToken(token), digest)
	assert.NotEqual(t, token, digest)
}

func TestNewOTPIsSixDigits(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		otp, err := NewOTP()
		require.NoError(t, err)
		assert.Regexp(t, re, otp)
	}
}

func TestTokenManagerIssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", 30*24*time.Hour)

	signed, issued, err := m.Issue("user-1", "a@example.com", "Citizen")
	require.NoError(t, err)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Citizen", claims.AccountType)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenManagerExpired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, _, err := m.Issue("user-1", "a@example.com", "Citizen")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	other := NewTokenManager("other-secret", time.Hour)
	signed, _, err := other.Issue("user-1", "a@example.com", "Citizen")
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManagerRejectsNoneAlgorithm(t *testing.T) {
	claims := &UserClaims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{ID: "jti"}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).Parse(unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
