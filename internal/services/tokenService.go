package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aarambh/internal/utils"
)

const minSecretLength = 32

// ErrSigningKeyTooShort means the process cannot issue sessions at all.
var ErrSigningKeyTooShort = errors.New("JWT signing key must be at least 32 bytes")

type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and parses stateless session tokens.
type TokenService interface {
	IssueSession(accountID primitive.ObjectID) (string, time.Time, error)
	Parse(token string) (*Claims, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	clock  utils.Clock
}

func NewTokenService(secret string, ttl time.Duration, clock utils.Clock) (TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSigningKeyTooShort
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}
	return &tokenService{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

func (s *tokenService) IssueSession(accountID primitive.ObjectID) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		ID: accountID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *tokenService) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
