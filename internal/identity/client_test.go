package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignIn_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/auth/v1/token" {
			t.Fatalf("path = %s, want /auth/v1/token", r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Fatalf("grant_type = %q, want password", got)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Fatalf("apikey header = %q, want test-key", got)
		}

		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if creds.Email != "u@example.com" {
			t.Fatalf("email = %q", creds.Email)
		}

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(Session{
			AccessToken: "token-123",
			User:        claimsUser{ID: "user-1", Email: creds.Email},
		})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-key")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s, err := client.SignIn(ctx, "u@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if s.AccessToken != "token-123" {
		t.Fatalf("access token = %q", s.AccessToken)
	}
	if u := s.SessionUser(); u.ID != "user-1" || u.Email != "u@example.com" {
		t.Fatalf("unexpected session user: %+v", u)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.SignIn(ctx, "u@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignUp_Conflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Fatalf("path = %s, want /auth/v1/signup", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.SignUp(ctx, "taken@example.com", "secret")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestGetUser_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Fatalf("path = %s, want /auth/v1/user", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Fatalf("authorization = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(claimsUser{ID: "user-1", Email: "u@example.com"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	u, err := client.GetUser(ctx, "token-123")
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if u.ID != "user-1" || u.Email != "u@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetUser_InvalidToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.GetUser(ctx, "stale")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignOut_NoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/logout" {
			t.Fatalf("path = %s, want /auth/v1/logout", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.SignOut(ctx, "token-123"); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
}
