package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements AuthService: bearer-token validation for the ops
// HTTP surface. There is no login endpoint — tokens are issued out of band
// against the same signing key.
type authService struct {
	sessionStore driven.SessionStore
	authAdapter  driven.AuthAdapter
}

// NewAuthService creates a new AuthService.
func NewAuthService(sessionStore driven.SessionStore, authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{
		sessionStore: sessionStore,
		authAdapter:  authAdapter,
	}
}

// ValidateToken validates a JWT token and returns the auth context.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	session, err := s.sessionStore.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		Subject:   claims.Subject,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}

// IssueSession mints a new bearer token and session for a subject (not
// reachable from any HTTP endpoint).
func (s *authService) IssueSession(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, *domain.Session, error) {
	sessionID := generateID()
	now := time.Now()
	claims := &domain.TokenClaims{
		Subject:   subject,
		Role:      role,
		SessionID: sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	token, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		return "", nil, err
	}

	session := &domain.Session{
		ID:        sessionID,
		Subject:   subject,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := s.sessionStore.Save(ctx, session); err != nil {
		return "", nil, err
	}

	return token, session, nil
}

// RevokeSession invalidates a single session by its bearer token.
func (s *authService) RevokeSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil
	}
	return s.sessionStore.Delete(ctx, claims.SessionID)
}

// RevokeAllSessions invalidates every session for a subject.
func (s *authService) RevokeAllSessions(ctx context.Context, subject string) error {
	return s.sessionStore.DeleteBySubject(ctx, subject)
}

func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
