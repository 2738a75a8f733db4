package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParse(t *testing.T) {
	SetSecret("unit-test-secret")

	tok, err := Sign("sub-1", "mario@example.com", AccessTokenTTL)
	require.NoError(t, err)

	claims, err := Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", claims.ID)
	assert.Equal(t, "mario@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParse_Expired(t *testing.T) {
	SetSecret("unit-test-secret")
	tok, err := Sign("sub-1", "a@b.it", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.True(t, errors.Is(err, jwtlib.ErrTokenExpired))
}

func TestParse_WrongSecret(t *testing.T) {
	SetSecret("first")
	tok, err := Sign("sub-1", "a@b.it", time.Minute)
	require.NoError(t, err)

	SetSecret("second")
	_, err = Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	SetSecret("unit-test-secret")
	claims := Claims{ID: "sub-1", RegisteredClaims: jwtlib.RegisteredClaims{
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims).SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	_, err = Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
