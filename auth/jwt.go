package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/httpconnector/errors"
)

// JWTBearer mints a short-lived signed token for every attempt and sends it
// as a bearer credential. A 401 on the first attempt is retried once with a
// freshly minted token, which covers clock skew at the verifier.
type JWTBearer struct {
	Issuer   string
	Subject  string
	Audience []string
	TTL      time.Duration
	// Method is an HS*, RS* or ES* algorithm name. HS256 when empty.
	Method string
	// Secret is the HMAC key for HS* methods.
	Secret string
	// KeyFile is the PEM private key for RS* and ES* methods.
	KeyFile string
	// Claims are added to every token.
	Claims map[string]any

	mu     sync.RWMutex
	method gojwt.SigningMethod
	key    any
	now    func() time.Time
}

var (
	_ Strategy  = (*JWTBearer)(nil)
	_ Lifecycle = (*JWTBearer)(nil)
)

// DefaultJWTTTL is the token lifetime when TTL is zero.
const DefaultJWTTTL = 5 * time.Minute

// Name implements Authenticator.
func (j *JWTBearer) Name() string { return "jwt" }

// ConsumesPayload implements Authenticator.
func (j *JWTBearer) ConsumesPayload() bool { return false }

// Start resolves the signing method and loads the signing key.
func (j *JWTBearer) Start(_ context.Context) error {
	name := strings.ToUpper(j.Method)
	if name == "" {
		name = "HS256"
	}
	method := gojwt.GetSigningMethod(name)
	if method == nil {
		return errors.ClientSecurity("jwt", fmt.Errorf("unsupported signing method %q", j.Method))
	}

	var key any
	switch {
	case strings.HasPrefix(name, "HS"):
		if j.Secret == "" {
			return errors.ClientSecurity("jwt", fmt.Errorf("secret is required for %s", name))
		}
		key = []byte(j.Secret)
	case strings.HasPrefix(name, "RS"), strings.HasPrefix(name, "ES"):
		pem, err := os.ReadFile(j.KeyFile)
		if err != nil {
			return errors.ClientSecurity("jwt", fmt.Errorf("read key file: %w", err))
		}
		if strings.HasPrefix(name, "RS") {
			key, err = gojwt.ParseRSAPrivateKeyFromPEM(pem)
		} else {
			key, err = gojwt.ParseECPrivateKeyFromPEM(pem)
		}
		if err != nil {
			return errors.ClientSecurity("jwt", fmt.Errorf("parse key file: %w", err))
		}
	default:
		return errors.ClientSecurity("jwt", fmt.Errorf("unsupported signing method %q", j.Method))
	}

	j.mu.Lock()
	j.method, j.key = method, key
	j.mu.Unlock()
	return nil
}

// Stop drops the signing key.
func (j *JWTBearer) Stop(_ context.Context) error {
	j.mu.Lock()
	j.method, j.key = nil, nil
	j.mu.Unlock()
	return nil
}

// Authenticate implements Authenticator.
func (j *JWTBearer) Authenticate(req *http.Request, _ *Attempt) error {
	token, err := j.Token()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token mints a signed token.
func (j *JWTBearer) Token() (string, error) {
	j.mu.RLock()
	method, key := j.method, j.key
	j.mu.RUnlock()
	if method == nil {
		return "", errors.ClientSecurity("jwt", fmt.Errorf("strategy is not started"))
	}

	now := time.Now
	if j.now != nil {
		now = j.now
	}
	issued := now()
	ttl := j.TTL
	if ttl <= 0 {
		ttl = DefaultJWTTTL
	}

	claims := gojwt.MapClaims{}
	for k, v := range j.Claims {
		claims[k] = v
	}
	claims["jti"] = uuid.NewString()
	claims["iat"] = gojwt.NewNumericDate(issued)
	claims["nbf"] = gojwt.NewNumericDate(issued)
	claims["exp"] = gojwt.NewNumericDate(issued.Add(ttl))
	if j.Issuer != "" {
		claims["iss"] = j.Issuer
	}
	if j.Subject != "" {
		claims["sub"] = j.Subject
	}
	if len(j.Audience) > 0 {
		claims["aud"] = gojwt.ClaimStrings(j.Audience)
	}

	signed, err := gojwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		return "", errors.ClientSecurity("jwt", fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// RetryIfShould implements Strategy.
func (j *JWTBearer) RetryIfShould(r Result, retry func(), notRetry func()) {
	if !r.Attempt.Retrying() && r.StatusCode() == http.StatusUnauthorized {
		retry()
		return
	}
	notRetry()
}
