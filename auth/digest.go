package auth

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const digestChallengeKey = "digest.challenge"

// Digest implements RFC 7616 digest authentication with MD5, MD5-sess,
// SHA-256 and SHA-256-sess, qop "auth" or none.
type Digest struct {
	Username string
	Password string
	Target   Target
}

var (
	_ Strategy         = (*Digest)(nil)
	_ BlockingStrategy = (*Digest)(nil)
)

// Name implements Authenticator.
func (d *Digest) Name() string { return "digest" }

// ConsumesPayload implements Authenticator.
func (d *Digest) ConsumesPayload() bool { return false }

// Authenticate implements Authenticator. The first attempt goes out
// without credentials; the retry answers the stored challenge.
func (d *Digest) Authenticate(req *http.Request, attempt *Attempt) error {
	v, ok := attempt.Get(digestChallengeKey)
	if !ok {
		return nil
	}
	header, err := d.authorization(req, v.(Challenge), uuid.NewString())
	if err != nil {
		return err
	}
	req.Header.Set(d.Target.CredentialsHeader(), header)
	return nil
}

// ShouldRetry implements BlockingStrategy and stores the chosen challenge.
func (d *Digest) ShouldRetry(r Result) bool {
	if r.Attempt.Retrying() {
		return false
	}
	challenges, ok := d.Target.challenged(r, "digest")
	if !ok {
		return false
	}
	for _, c := range challenges {
		if _, err := digestHash(c.Param("algorithm")); err == nil && c.Param("nonce") != "" {
			r.Attempt.Set(digestChallengeKey, c)
			return true
		}
	}
	return false
}

// RetryIfShould implements Strategy.
func (d *Digest) RetryIfShould(r Result, retry func(), notRetry func()) {
	if d.ShouldRetry(r) {
		retry()
		return
	}
	notRetry()
}

func (d *Digest) authorization(req *http.Request, c Challenge, cnonce string) (string, error) {
	algorithm := c.Param("algorithm")
	newHash, err := digestHash(algorithm)
	if err != nil {
		return "", err
	}
	h := func(parts ...string) string {
		hh := newHash()
		hh.Write([]byte(strings.Join(parts, ":")))
		return hex.EncodeToString(hh.Sum(nil))
	}

	realm, nonce := c.Param("realm"), c.Param("nonce")
	uri := req.URL.RequestURI()
	const nc = "00000001"

	ha1 := h(d.Username, realm, d.Password)
	if strings.HasSuffix(strings.ToLower(algorithm), "-sess") {
		ha1 = h(ha1, nonce, cnonce)
	}
	ha2 := h(req.Method, uri)

	qop := pickQop(c.Param("qop"))
	var response string
	if qop == "" {
		response = h(ha1, nonce, ha2)
	} else {
		response = h(ha1, nonce, nc, cnonce, qop, ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		quote(d.Username), quote(realm), quote(nonce), quote(uri), response)
	if algorithm != "" {
		fmt.Fprintf(&b, ", algorithm=%s", algorithm)
	}
	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce="%s"`, qop, nc, cnonce)
	}
	if opaque := c.Param("opaque"); opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, quote(opaque))
	}
	return b.String(), nil
}

func digestHash(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(strings.TrimSuffix(strings.ToLower(algorithm), "-sess")) {
	case "", "MD5":
		return md5.New, nil
	case "SHA-256":
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("auth: unsupported digest algorithm %q", algorithm)
	}
}

// pickQop returns "auth" when offered; auth-int is not supported.
func pickQop(offered string) string {
	for _, q := range strings.Split(offered, ",") {
		if strings.EqualFold(strings.TrimSpace(q), "auth") {
			return "auth"
		}
	}
	return ""
}

func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
