// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clavisproject/clavis/internal/catalog"
	"github.com/clavisproject/clavis/internal/logging"
	"github.com/clavisproject/clavis/internal/models"
)

// SessionCookieName carries the viewer session identifier.
const SessionCookieName = "clavis_session"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	userKey      contextKey = "user"
	adminKey     contextKey = "admin"
)

// UserLoader loads a user by their token subject.
type UserLoader interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionIDFromContext returns the viewer session identifier.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

// IsAdmin reports whether the request passed an admin check.
func IsAdmin(ctx context.Context) bool {
	admin, ok := ctx.Value(adminKey).(bool)
	return ok && admin
}

// SessionCookie assigns every caller a stable session identifier via a
// cookie, creating one when absent. The identifier keys the decision
// cache; it carries no identity.
func SessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			sessionID = cookie.Value
		} else {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerUser resolves an optional Authorization bearer token to a
// catalog user. Requests without a token stay anonymous; requests with
// an invalid token are rejected, not silently downgraded.
func BearerUser(users UserLoader, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ParseToken(tokenString, secret)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Bearer token rejected")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			user, err := users.GetUserByEmail(ctx, claims.Subject)
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				// Token subject unknown to the catalog: anonymous.
			case err != nil:
				logging.Ctx(ctx).Error().Err(err).Msg("User lookup failed")
				http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
				return
			default:
				ctx = context.WithValue(ctx, userKey, user)
			}
			if claims.Admin {
				ctx = context.WithValue(ctx, adminKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards management endpoints. Access is granted by HTTP
// basic auth against the configured bcrypt hash, or by a bearer token
// carrying the admin claim (verified upstream by BearerUser).
func RequireAdmin(username, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAdmin(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			if username == "" || passwordHash == "" {
				http.Error(w, "admin access not configured", http.StatusForbidden)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="clavis admin"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RemoteAddr extracts the client IP without the port. A trusted proxy
// setup should rewrite RemoteAddr before the request reaches Clavis;
// X-Forwarded-For is deliberately not consulted here.
func RemoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
