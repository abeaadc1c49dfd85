package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/session"
)

// Issuer is stamped into every session token and required when one is validated.
const Issuer = "gathering-hub"

var ErrInvalidToken = errors.New("invalid token")

// SessionClaims identify the account behind a session token. Admin capability is resolved
// per request and is not part of the token.
type SessionClaims struct {
	AccountID uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	jwt.RegisteredClaims
}

// Caller returns the session caller for these claims once the admin flag is known.
func (c *SessionClaims) Caller(isAdmin bool) session.Caller {
	return session.Caller{ID: c.AccountID, IsAdmin: isAdmin}
}

// JWTService issues and verifies HS256 session tokens.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewJWTService creates a JWT service whose tokens live for expireHours.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    time.Duration(expireHours) * time.Hour,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// Generate signs a session token for the account.
func (s *JWTService) Generate(accountID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer and expiry. Every failure is ErrInvalidToken.
func (s *JWTService) Validate(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == uuid.Nil || claims.Subject != claims.AccountID.String() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
