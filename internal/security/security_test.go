package security

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/common"
)

func TestBodyLimitPassesSmallBodies(t *testing.T) {
	var captured string
	h := BodyLimit{Max: 10}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("hello")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello", captured)
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	h := BodyLimit{Max: 5}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("excessive")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitCutsUndeclaredOversize(t *testing.T) {
	h := BodyLimit{Max: 8}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		if err := common.DecodeJSON(r, &v); err != nil {
			common.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"customer":{"name":"Olena"}}`))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "https://candy.example/api/v1/candies", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	Headers{HSTS: true, IncludeSubdomains: true}.Middleware(ok).ServeHTTP(rec, req)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	require.Empty(t, rec.Header().Get("Cache-Control"))

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	plain.Header.Set("Authorization", "Bearer t")
	rec = httptest.NewRecorder()
	Headers{HSTS: true, HSTSMaxAge: time.Hour, NoStore: true}.Middleware(ok).ServeHTTP(rec, plain)
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	rec = httptest.NewRecorder()
	Headers{HSTS: true, HSTSMaxAge: time.Hour}.Middleware(ok).ServeHTTP(rec, proxied)
	require.Equal(t, "max-age=3600", rec.Header().Get("Strict-Transport-Security"))
}

func TestCSRFOnlyGuardsCookieSessions(t *testing.T) {
	h := CSRF{SessionCookie: "access_token"}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/candies/abc", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, serve(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer token")
	}).Code)
	require.Equal(t, http.StatusNoContent, serve(func(*http.Request) {}).Code)

	rec := serve(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "jwt"})
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "CSRF_REJECTED", body["error"]["code"])

	require.Equal(t, http.StatusNoContent, serve(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "jwt"})
		r.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "s3cret"})
		r.Header.Set("X-CSRF-Token", "s3cret")
	}).Code)
}
