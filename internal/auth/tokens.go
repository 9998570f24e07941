// Package auth issues and checks admin sessions and the short-lived request
// tokens that guard state-changing admin actions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"olza-admin/internal/models"

	"github.com/golang-jwt/jwt/v4"
)

// ActionLoadFiles is the action both sync endpoints require a request token for.
const ActionLoadFiles = "olza_load_files"

// ActionSaveSettings guards the settings form.
const ActionSaveSettings = "olza_save_settings"

const (
	audienceSession = "session"
	audienceRequest = "request:"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims identify a logged-in admin and what they may do.
type SessionClaims struct {
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// Can reports whether the session holds any of caps.
func (c *SessionClaims) Can(caps ...string) bool {
	for _, want := range caps {
		for _, have := range c.Capabilities {
			if have == want {
				return true
			}
		}
	}
	return false
}

type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	nonceTTL   time.Duration
}

func NewManager(secret string, sessionTTL, nonceTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		nonceTTL:   nonceTTL,
	}
}

// IssueSession signs a session token for user.
func (m *Manager) IssueSession(user *models.AdminUser) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Username:     user.Username,
		Role:         string(user.Role),
		Capabilities: user.Role.Capabilities(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
		},
	}
	return m.sign(claims)
}

// ParseSession validates a session token and returns its claims.
func (m *Manager) ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := m.parse(token, claims); err != nil {
		return nil, err
	}
	if !claims.VerifyAudience(audienceSession, true) || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueRequestToken signs a token bound to one user and one action.
func (m *Manager) IssueRequestToken(subject, action string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audienceRequest + action},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.nonceTTL)),
	}
	return m.sign(claims)
}

// VerifyRequestToken checks that token was issued to subject for action and has not expired.
func (m *Manager) VerifyRequestToken(token, subject, action string) error {
	if token == "" {
		return ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	if err := m.parse(token, claims); err != nil {
		return err
	}
	if !claims.VerifyAudience(audienceRequest+action, true) || claims.Subject != subject {
		return ErrInvalidToken
	}
	return nil
}

func (m *Manager) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
