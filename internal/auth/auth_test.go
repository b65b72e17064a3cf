// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clavisproject/clavis/internal/catalog"
	"github.com/clavisproject/clavis/internal/models"
)

const testSecret = "test-secret"

func TestTokenRoundtrip(t *testing.T) {
	token, err := IssueToken("reader@example.com", testSecret, time.Hour, true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "reader@example.com" || !claims.Admin {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := ParseToken(token, "wrong-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret must fail, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := IssueToken("reader@example.com", testSecret, -time.Minute, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token must fail, got %v", err)
	}
}

func TestSessionCookieAssigned(t *testing.T) {
	var captured string
	handler := SessionCookie(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = SessionIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if captured == "" {
		t.Fatal("a session ID must be assigned")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != captured {
		t.Fatal("the session cookie must carry the assigned ID")
	}

	// An existing cookie is reused, not replaced.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "existing"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if captured != "existing" {
		t.Errorf("existing session ID must be kept, got %q", captured)
	}
}

type fakeUsers struct {
	user *models.User
	err  error
}

func (f *fakeUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return f.user, f.err
}

func TestBearerUser(t *testing.T) {
	user := &models.User{Email: "reader@example.com", Active: true}
	var gotUser *models.User
	var gotAdmin bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		gotAdmin = IsAdmin(r.Context())
	})

	t.Run("valid token resolves user", func(t *testing.T) {
		token, _ := IssueToken(user.Email, testSecret, time.Hour, false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		BearerUser(&fakeUsers{user: user}, testSecret)(next).ServeHTTP(httptest.NewRecorder(), req)
		if gotUser == nil || gotUser.Email != user.Email {
			t.Errorf("user = %+v", gotUser)
		}
		if gotAdmin {
			t.Error("non-admin token must not set admin")
		}
	})

	t.Run("admin claim carried", func(t *testing.T) {
		token, _ := IssueToken(user.Email, testSecret, time.Hour, true)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		BearerUser(&fakeUsers{user: user}, testSecret)(next).ServeHTTP(httptest.NewRecorder(), req)
		if !gotAdmin {
			t.Error("admin claim lost")
		}
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")

		rec := httptest.NewRecorder()
		BearerUser(&fakeUsers{user: user}, testSecret)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unknown subject stays anonymous", func(t *testing.T) {
		token, _ := IssueToken("ghost@example.com", testSecret, time.Hour, false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		gotUser = nil
		rec := httptest.NewRecorder()
		BearerUser(&fakeUsers{err: catalog.ErrNotFound}, testSecret)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
		if gotUser != nil {
			t.Error("unknown subject must stay anonymous")
		}
	})

	t.Run("no token stays anonymous", func(t *testing.T) {
		gotUser = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		BearerUser(&fakeUsers{user: user}, testSecret)(next).ServeHTTP(httptest.NewRecorder(), req)
		if gotUser != nil {
			t.Error("no token must mean anonymous")
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	protected := RequireAdmin("admin", string(hash))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("correct credentials pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "hunter2")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "wrong")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("missing credentials rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("admin context bypasses basic auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), adminKey, true))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unconfigured admin is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdmin("", "")(protected).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.2.10:54321"
	if got := RemoteAddr(req); got != "192.168.2.10" {
		t.Errorf("RemoteAddr = %q", got)
	}
	req.RemoteAddr = "192.168.2.10"
	if got := RemoteAddr(req); got != "192.168.2.10" {
		t.Errorf("RemoteAddr without port = %q", got)
	}
}
