// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package auth

import (
	"context"
	"errors"
	"time"
)

// AuthMode represents the authentication strategy.
type AuthMode string

const (
	// AuthModeNone disables authentication; every request runs as the
	// anonymous subject with the default role.
	AuthModeNone AuthMode = "none"

	// AuthModeJWT requires an HS256 bearer token.
	AuthModeJWT AuthMode = "jwt"
)

// Role names understood by the authorization policy.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// ParseAuthMode converts a string to AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none", "":
		return AuthModeNone, nil
	case "jwt":
		return AuthModeJWT, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// String returns the string representation of AuthMode.
func (m AuthMode) String() string {
	return string(m)
}

// Standard authentication errors
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates credentials have expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// AnonymousID is the subject ID used when authentication is disabled.
const AnonymousID = "anonymous"

// AuthSubject is the authenticated caller attached to the request context.
type AuthSubject struct {
	// ID is the token's "sub" claim, falling back to the username.
	ID       string `json:"id"`
	Username string `json:"username"`

	// Roles is used by the casbin enforcer. Tokens carry a single role.
	Roles []string `json:"roles,omitempty"`

	OrganizationID string   `json:"organization_id,omitempty"`
	AuthMethod     AuthMode `json:"auth_method"`
	Issuer         string   `json:"issuer,omitempty"`
	IssuedAt       int64    `json:"issued_at,omitempty"`
	ExpiresAt      int64    `json:"expires_at,omitempty"`
}

// HasRole checks if the subject has a specific role.
func (s *AuthSubject) HasRole(role string) bool {
	if s == nil || role == "" {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the first role, or "" when there are none.
func (s *AuthSubject) PrimaryRole() string {
	if s == nil || len(s.Roles) == 0 {
		return ""
	}
	return s.Roles[0]
}

// IsExpired checks if the authentication has expired.
func (s *AuthSubject) IsExpired() bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() > s.ExpiresAt
}

// AnonymousSubject is attached when auth_mode is none.
func AnonymousSubject(role string) *AuthSubject {
	return &AuthSubject{
		ID:         AnonymousID,
		Username:   AnonymousID,
		Roles:      []string{role},
		AuthMethod: AuthModeNone,
		Issuer:     "local",
	}
}

// AuthSubjectFromClaims creates an AuthSubject from validated JWT claims.
// defaultRole applies when the token has no role claim.
func AuthSubjectFromClaims(claims *Claims, defaultRole string) *AuthSubject {
	if claims == nil {
		return nil
	}

	id := claims.Subject
	if id == "" {
		id = claims.Username
	}
	role := claims.Role
	if role == "" {
		role = defaultRole
	}

	subject := &AuthSubject{
		ID:             id,
		Username:       claims.Username,
		OrganizationID: claims.OrganizationID,
		AuthMethod:     AuthModeJWT,
		Issuer:         claims.Issuer,
	}
	if subject.Issuer == "" {
		subject.Issuer = "local"
	}
	if role != "" {
		subject.Roles = []string{role}
	}
	if claims.ExpiresAt != nil {
		subject.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		subject.IssuedAt = claims.IssuedAt.Unix()
	}

	return subject
}

type contextKey string

const subjectContextKey contextKey = "auth-subject"

// ContextWithSubject attaches the subject to ctx.
func ContextWithSubject(ctx context.Context, s *AuthSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// GetAuthSubject returns the subject attached by the middleware, or nil.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	s, _ := ctx.Value(subjectContextKey).(*AuthSubject)
	return s
}
