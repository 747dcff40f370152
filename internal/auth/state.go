// Package auth tracks the login session and persists credentials.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Admin tiers are UserType 1 and 2; everything above is a regular account.
const adminUserTypeMax = 2

// UserInfo is the LoginUserInfo block of a login response.
type UserInfo struct {
	UserType int    `json:"UserType"`
	UserName string `json:"UserName"`
	NickName string `json:"NickName"`
}

// State holds the process-wide auth state. It is constructed once at startup
// and passed to every component; only Login/Logout mutate the token, the
// gateway flips the expired flag.
type State struct {
	mu      sync.RWMutex
	token   string
	user    *UserInfo
	admin   bool
	expired bool
}

// NewState creates an empty, logged-out state.
func NewState() *State {
	return &State{expired: true}
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// MarkExpired clears the admin tier and flags the token as expired. The token
// itself is kept so diagnostics can still reference it; subsequent requests
// fall back to the unauthenticated endpoint variants.
func (s *State) MarkExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
	s.admin = false
}

// SetLogin installs a fresh token and user profile.
func (s *State) SetLogin(token string, user *UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.admin = user != nil && user.UserType <= adminUserTypeMax
	s.expired = false
}

// Logout clears the session.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.admin = false
	s.expired = true
}

// IsLoggedIn reports whether a non-expired token and profile are present.
func (s *State) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil && !s.expired
}

// IsAdmin reports whether the account is an elevated tier.
func (s *State) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// Expired reports whether the backend rejected the token.
func (s *State) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// User returns the current profile, or nil.
func (s *State) User() *UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// TokenExpiry decodes the token as a JWT without verifying it and returns the
// exp claim. The backend stays authoritative about expiry (ErrorCode 401);
// this only feeds logging and the whoami output. Returns false for opaque
// tokens or tokens without an exp claim.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
