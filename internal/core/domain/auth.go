package domain

import "time"

// Role gates access to the authenticated /api/v1 routes of the ops HTTP
// surface (/health, /ready and /version need no token). There is no
// user-management dashboard in this system — roles are carried in a bearer
// JWT issued out of band, not backed by a stored User record.
type Role string

const (
	RoleAdmin  Role = "admin"  // can also change settings, manage connectors and trigger runs and enrichment sweeps
	RoleViewer Role = "viewer" // read-only: search and the GET status/settings routes
)

// Session represents a bearer-token session against the ops HTTP surface.
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"` // operator or service account identifier
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuthContext carries the authenticated caller's identity through a
// request to the ops HTTP surface.
type AuthContext struct {
	Subject   string `json:"subject"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
}

// IsAdmin checks if the authenticated caller is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims represents the JWT token payload for the ops HTTP surface.
type TokenClaims struct {
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
