// Package auth issues and verifies the signed bearer tokens used by the API.
//
// Two named strategies exist: "auth" for short-lived access tokens and
// "refresh" for long-lived refresh tokens. Each has its own secret and
// lifetime, and each writes its name into the audience claim so that a token
// issued by one strategy never verifies under the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	StrategyAccess  = "auth"
	StrategyRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Payload is the identity carried by every token
type Payload struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
}

// Claims is the JWT body: the payload plus registered claims
type Claims struct {
	Payload
	jwt.RegisteredClaims
}

// Strategy signs and verifies tokens with one secret and lifetime
type Strategy struct {
	name   string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStrategy creates a named strategy
func NewStrategy(name, secret string, ttl time.Duration) *Strategy {
	return &Strategy{
		name:   name,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Name returns the strategy name
func (s *Strategy) Name() string {
	return s.name
}

// Sign issues a new HS256 token for the payload
func (s *Strategy) Sign(p Payload) (string, error) {
	now := s.now()
	claims := Claims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{s.name},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", s.name, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and audience and returns the payload
func (s *Strategy) Verify(tokenString string) (Payload, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.name),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrTokenExpired
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.RegisteredClaims.ID == "" || !claims.Role.Valid() {
		return Payload{}, ErrInvalidToken
	}

	return claims.Payload, nil
}

// Manager bundles the access and refresh strategies
type Manager struct {
	Access  *Strategy
	Refresh *Strategy
}

// NewManager builds both strategies from configuration
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{
		Access:  NewStrategy(StrategyAccess, cfg.AccessSecret, cfg.AccessExpiration),
		Refresh: NewStrategy(StrategyRefresh, cfg.RefreshSecret, cfg.RefreshExpiration),
	}
}
