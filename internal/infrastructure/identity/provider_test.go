package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertion(t *testing.T, c claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return s
}

func TestResolve(t *testing.T) {
	p := NewProvider("", 0, zerolog.Nop())

	token := assertion(t, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "google-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:    "Grace",
		Email:   "grace@example.com",
		Picture: "https://img.example.com/g.png",
	})

	id, err := p.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "google-123", id.UID)
	assert.Equal(t, "Grace", id.Name)
	assert.Equal(t, "grace@example.com", id.Email)
	assert.Equal(t, "https://img.example.com/g.png", id.PhotoURL)
	assert.Equal(t, token, id.Assertion)
}

func TestResolve_Rejects(t *testing.T) {
	p := NewProvider("", 0, zerolog.Nop())

	_, err := p.Resolve(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedAssertion)

	_, err = p.Resolve(context.Background(), assertion(t, claims{Name: "nobody"}))
	assert.ErrorIs(t, err, ErrMissingSubject)

	expired := assertion(t, claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "s",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	_, err = p.Resolve(context.Background(), expired)
	assert.ErrorIs(t, err, ErrExpiredAssertion)
}

func TestRevoke(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got.Store(r.PostForm.Get("token"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, time.Second, zerolog.Nop())
	require.NoError(t, p.Revoke(context.Background(), "assertion-1"))
	assert.Equal(t, "assertion-1", got.Load())
}

func TestRevoke_ProviderErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, time.Second, zerolog.Nop())
	assert.Error(t, p.Revoke(context.Background(), "a"))
}

func TestRevoke_NoURLIsNoop(t *testing.T) {
	p := NewProvider("", 0, zerolog.Nop())
	assert.NoError(t, p.Revoke(context.Background(), "a"))
}
