// Package auth signs and validates the tokens the game hands out: anonymous
// learner tokens binding a browser to its session, and teacher-portal tokens
// issued after the static credential check.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in token claims.
const (
	RoleLearner = "learner"
	RoleTeacher = "teacher"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims identify the holder of a signed token.
type Claims struct {
	Subject string `json:"sub_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// ManagerConfig holds signing configuration.
type ManagerConfig struct {
	Secret []byte
	TTL    time.Duration // default: 24h
	Issuer string
}

// Manager issues and validates HS256 tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewManager creates a token manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "shellquest"
	}
	return &Manager{secret: cfg.Secret, ttl: cfg.TTL, issuer: cfg.Issuer}
}

// IssueLearner mints a token for a fresh anonymous learner and returns the
// learner id alongside it.
func (m *Manager) IssueLearner() (learner, token string, err error) {
	learner = uuid.NewString()
	token, err = m.issue(learner, RoleLearner)
	return learner, token, err
}

// IssueTeacher mints a teacher-portal token after a successful login.
func (m *Manager) IssueTeacher() (string, error) {
	return m.issue(uuid.NewString(), RoleTeacher)
}

func (m *Manager) issue(subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses a token and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
