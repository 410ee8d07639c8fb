package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/httpconnector/errors"
)

func TestJWTBearer_HS256(t *testing.T) {
	j := &JWTBearer{Issuer: "svc", Subject: "worker", Audience: []string{"api"}, Secret: "k", Claims: map[string]any{"role": "reader"}}
	if err := j.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err := j.Authenticate(req, NewAttempt()); err != nil {
		t.Fatal(err)
	}
	raw, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok {
		t.Fatalf("Authorization = %q", req.Header.Get("Authorization"))
	}

	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(raw, claims, func(*gojwt.Token) (any, error) { return []byte("k"), nil },
		gojwt.WithIssuer("svc"), gojwt.WithAudience("api"), gojwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["sub"] != "worker" || claims["role"] != "reader" || claims["jti"] == "" {
		t.Errorf("claims = %v", claims)
	}

	other, _ := j.Token()
	if other == raw {
		t.Error("each token should carry a fresh jti")
	}
}

func TestJWTBearer_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	j := &JWTBearer{Method: "RS256", KeyFile: path, TTL: time.Minute}
	if err := j.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	raw, err := j.Token()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gojwt.Parse(raw, func(*gojwt.Token) (any, error) { return &key.PublicKey, nil }); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestJWTBearer_Errors(t *testing.T) {
	tests := []struct {
		name string
		j    *JWTBearer
	}{
		{"missing secret", &JWTBearer{}},
		{"unknown method", &JWTBearer{Method: "XX1", Secret: "k"}},
		{"missing key file", &JWTBearer{Method: "RS256", KeyFile: filepath.Join(t.TempDir(), "none.pem")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.j.Start(context.Background())
			if !errors.HasCode(err, errors.ErrCodeClientSecurity) {
				t.Errorf("Start() = %v, want CLIENT_SECURITY", err)
			}
		})
	}
}

func TestJWTBearer_NotStarted(t *testing.T) {
	j := &JWTBearer{Secret: "k"}
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err := j.Authenticate(req, NewAttempt()); !errors.HasCode(err, errors.ErrCodeClientSecurity) {
		t.Errorf("Authenticate() = %v, want CLIENT_SECURITY", err)
	}

	if err := j.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := j.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Token(); err == nil {
		t.Error("Token() after Stop should fail")
	}
}

func TestJWTBearer_RetryOn401Once(t *testing.T) {
	j := &JWTBearer{}
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusUnauthorized)
	resp := rec.Result()

	attempt := NewAttempt()
	var retried bool
	j.RetryIfShould(Result{Response: resp, Attempt: attempt}, func() { retried = true }, func() {})
	if !retried {
		t.Error("first 401 should be retried")
	}
	attempt.Advance()
	retried = false
	j.RetryIfShould(Result{Response: resp, Attempt: attempt}, func() { retried = true }, func() {})
	if retried {
		t.Error("second 401 should not be retried")
	}
}
