package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/vetbill/internal/model"
)

type stubProvider struct {
	tokens map[string]model.Identity
}

func (p *stubProvider) Authenticate(_ context.Context, token string) (model.Identity, error) {
	identity, ok := p.tokens[token]
	if !ok {
		return model.Identity{}, model.ErrUnauthenticated
	}
	return identity, nil
}

type failingProvider struct{}

func (failingProvider) Authenticate(context.Context, string) (model.Identity, error) {
	return model.Identity{}, errors.New("database is down")
}

func TestAuthMiddleware_WithValidToken(t *testing.T) {
	want := model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
	m := NewAuthMiddleware(&stubProvider{tokens: map[string]model.Identity{"good": want}})

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, ok := GetIdentityFromContext(r.Context())
		require.True(t, ok, "identity not in context")
		assert.Equal(t, want, got)
	})

	for _, header := range []string{"Bearer good", "bearer good", "Bearer  good "} {
		nextCalled = false

		r := httptest.NewRequest(http.MethodGet, "/protected", nil)
		r.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		m.Middleware(next).ServeHTTP(w, r)

		assert.True(t, nextCalled, "next handler was not called for %q", header)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		provider IdentityProvider
		header   string
	}{
		{name: "no header", provider: &stubProvider{}},
		{name: "wrong scheme", provider: &stubProvider{}, header: "Basic Zm9vOmJhcg=="},
		{name: "empty token", provider: &stubProvider{}, header: "Bearer "},
		{name: "unknown token", provider: &stubProvider{}, header: "Bearer nope"},
		{name: "provider failure", provider: failingProvider{}, header: "Bearer any"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(tt.provider)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			m.Middleware(next).ServeHTTP(w, r)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, "Authentication invalid", body.Message)
		})
	}
}

func TestGetIdentityFromContext_Missing(t *testing.T) {
	_, ok := GetIdentityFromContext(context.Background())
	assert.False(t, ok)
}
