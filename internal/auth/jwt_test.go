package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1)
	id := uuid.New()
	token, err := svc.Generate(id, "a@example.com")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, Issuer, claims.Issuer)

	caller := claims.Caller(true)
	assert.Equal(t, id, caller.ID)
	assert.True(t, caller.IsAdmin)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("one", 1).Generate(uuid.New(), "a@example.com")
	require.NoError(t, err)
	_, err = NewJWTService("two", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsExpired(t *testing.T) {
	token, err := NewJWTService("secret", -1).Generate(uuid.New(), "a@example.com")
	require.NoError(t, err)
	_, err = NewJWTService("secret", -1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims SessionClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTRejectsForeignShapes(t *testing.T) {
	svc := NewJWTService("secret", 1)
	id := uuid.New()
	valid := func() SessionClaims {
		return SessionClaims{AccountID: id, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
	}

	c := valid()
	c.Issuer = "someone-else"
	_, err := svc.Validate(sign(t, jwt.SigningMethodHS256, []byte("secret"), c))
	assert.ErrorIs(t, err, ErrInvalidToken, "issuer")

	c = valid()
	c.ExpiresAt = nil
	_, err = svc.Validate(sign(t, jwt.SigningMethodHS256, []byte("secret"), c))
	assert.ErrorIs(t, err, ErrInvalidToken, "no expiry")

	c = valid()
	c.Subject = uuid.NewString()
	_, err = svc.Validate(sign(t, jwt.SigningMethodHS256, []byte("secret"), c))
	assert.ErrorIs(t, err, ErrInvalidToken, "subject mismatch")

	_, err = svc.Validate(sign(t, jwt.SigningMethodHS512, []byte("secret"), valid()))
	assert.ErrorIs(t, err, ErrInvalidToken, "algorithm")

	_, err = svc.Validate(sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid()))
	assert.ErrorIs(t, err, ErrInvalidToken, "unsigned")

	_, err = svc.Validate(sign(t, jwt.SigningMethodHS256, []byte("secret"), valid()))
	assert.NoError(t, err)
}
