package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"studio-ops-api/internal/cache"
)

var ErrInvalidToken = errors.New("invalid token")

// verifiedTTL caps how long a validated token is served from cache.
const verifiedTTL = 5 * time.Minute

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenService issues and validates HS256 tokens. Validated tokens are cached
// so websocket authentication and API calls skip re-parsing hot tokens.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	clock    clockwork.Clock
	verified cache.Cache[string, *Claims]
}

func NewTokenService(cfg Config, clock clockwork.Clock) *TokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		clock:    clock,
		verified: cache.NewSimpleCache[string, *Claims](cache.Options{Clock: clock, MaxEntries: 10_000}),
	}
}

// Generate signs a token for the given user
func (s *TokenService) Generate(userID, username, role string) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks signature, issuer, audience and expiry and returns the claims.
// Failures wrap ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if claims, ok := s.verified.Get(tokenString); ok {
		return claims, nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	ttl := claims.ExpiresAt.Sub(s.clock.Now())
	if ttl > verifiedTTL {
		ttl = verifiedTTL
	}
	if ttl > 0 {
		s.verified.Set(tokenString, claims, ttl)
	}
	return claims, nil
}
