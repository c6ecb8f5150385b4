// Package auth issues and checks admin console tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pathfinder-service/internal/domain"
)

const RoleAdmin = "admin"

// Claims are the JWT claims carried by console tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Config struct {
	Username string
	Password string
	Secret   string
	TTL      time.Duration
}

type Service struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &Service{
		username: cfg.Username,
		password: cfg.Password,
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TTL,
		now:      time.Now,
	}
}

// Enabled reports whether a signing secret is configured. Without one no
// token is issued or accepted.
func (s *Service) Enabled() bool {
	return len(s.secret) > 0
}

// Login checks the configured admin credentials and returns an admin token.
func (s *Service) Login(username, password string) (LoginResponse, error) {
	if !s.Enabled() || s.username == "" || s.password == "" {
		return LoginResponse{}, domain.ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return LoginResponse{}, domain.ErrUnauthorized
	}
	return s.Issue(username, RoleAdmin)
}

func (s *Service) Issue(subject, role string) (LoginResponse, error) {
	if !s.Enabled() {
		return LoginResponse{}, fmt.Errorf("no signing secret configured: %w", domain.ErrUnauthorized)
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResponse{Token: signed, ExpiresAt: expires}, nil
}

// Validate parses a token. Any parse or signature problem is ErrUnauthorized.
func (s *Service) Validate(token string) (*Claims, error) {
	if token == "" || !s.Enabled() {
		return nil, domain.ErrUnauthorized
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Join(domain.ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// RequireAdmin returns ErrForbidden for valid tokens without the admin role.
func (s *Service) RequireAdmin(token string) (*Claims, error) {
	claims, err := s.Validate(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return claims, nil
}
