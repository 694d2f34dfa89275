package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrForbidden    = errors.New("token lacks required role")
)

// Claims carries the wallet bound to a player session and the caller's roles.
type Claims struct {
	jwt.RegisteredClaims
	Wallet string   `json:"wallet,omitempty"`
	Roles  []string `json:"roles"`
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService(secret string, issuer string) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

func (s *TokenService) Issue(subject string, wallet string, roles []string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Wallet: wallet,
		Roles:  roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySession resolves the wallet of a player session token.
func (s *TokenService) VerifySession(token string) (string, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Wallet) == "" {
		return "", ErrInvalidToken
	}
	return claims.Wallet, nil
}

// VerifyAdmin resolves the admin actor id; tokens without the admin role fail.
func (s *TokenService) VerifyAdmin(token string) (string, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	if !slices.Contains(claims.Roles, RoleAdmin) {
		return "", ErrForbidden
	}
	return claims.Subject, nil
}
