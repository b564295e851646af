package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokenToSubject map[string]string
	err            error
}

func (r *testResolver) ResolveToken(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	subject, ok := r.tokenToSubject[token]
	if !ok {
		return "", ErrUnauthorized
	}
	return subject, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokenToSubject: map[string]string{"token": "7"}}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := SubjectFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "7", subject)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	resolver := &testResolver{err: errors.New("invalid")}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_Missing(t *testing.T) {
	handler := AuthMiddleware(StaticToken("x"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaticToken(t *testing.T) {
	subject, err := StaticToken("s3cret").ResolveToken(context.Background(), "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, subject)

	_, err = StaticToken("s3cret").ResolveToken(context.Background(), "guess")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = StaticToken("").ResolveToken(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}
