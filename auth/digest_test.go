package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDigest_RFC2617Vector(t *testing.T) {
	d := &Digest{Username: "Mufasa", Password: "Circle Of Life"}
	c := ParseChallenges(`Digest realm="testrealm@host.com", qop="auth,auth-int", ` +
		`nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", opaque="5ccc069c403ebaf9f0171e9517f40e41"`)[0]
	req := httptest.NewRequest(http.MethodGet, "http://www.nowhere.org/dir/index.html", nil)

	header, err := d.authorization(req, c, "0a4f113b")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`response="6629fae49393a05397450978507c4ef1"`,
		`uri="/dir/index.html"`,
		`qop=auth`,
		`nc=00000001`,
		`cnonce="0a4f113b"`,
		`opaque="5ccc069c403ebaf9f0171e9517f40e41"`,
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header %q missing %s", header, want)
		}
	}
}

func TestDigest_SHA256(t *testing.T) {
	d := &Digest{Username: "Mufasa", Password: "Circle of Life"}
	c := ParseChallenges(`Digest realm="http-auth@example.org", qop="auth", algorithm=SHA-256, nonce="abc"`)[0]
	req := httptest.NewRequest(http.MethodGet, "http://example.org/dir/index.html", nil)

	header, err := d.authorization(req, c, "xyz")
	if err != nil {
		t.Fatal(err)
	}
	h := func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	}
	ha1 := h("Mufasa:http-auth@example.org:Circle of Life")
	ha2 := h("GET:/dir/index.html")
	want := h(fmt.Sprintf("%s:abc:00000001:xyz:auth:%s", ha1, ha2))
	if !strings.Contains(header, `response="`+want+`"`) || !strings.Contains(header, "algorithm=SHA-256") {
		t.Errorf("header = %q, want response %s", header, want)
	}
}

func TestDigest_UnsupportedAlgorithmNotRetried(t *testing.T) {
	d := &Digest{Username: "u", Password: "p"}
	rec := httptest.NewRecorder()
	rec.Header().Set("WWW-Authenticate", `Digest realm="r", nonce="n", algorithm=SHA-512-256`)
	rec.WriteHeader(http.StatusUnauthorized)
	if d.ShouldRetry(Result{Response: rec.Result(), Attempt: NewAttempt()}) {
		t.Error("unsupported algorithm should not be retried")
	}
}

func TestDigest_Exchange(t *testing.T) {
	const realm, nonce = "api", "server-nonce"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Digest realm=%q, nonce=%q, qop="auth"`, realm, nonce))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		c := ParseChallenges(auth)[0]
		d := &Digest{Username: "alice", Password: "secret"}
		expected, err := d.authorization(r, Challenge{Scheme: "Digest", Params: map[string]string{
			"realm": realm, "nonce": nonce, "qop": "auth",
		}}, c.Param("cnonce"))
		if err != nil || ParseChallenges(expected)[0].Param("response") != c.Param("response") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, sends := exchange(t, &Digest{Username: "alice", Password: "secret"}, http.MethodGet, srv.URL+"/things?id=1")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || sends != 2 {
		t.Errorf("status = %d sends = %d, want 200 after two sends", resp.StatusCode, sends)
	}
}

func TestDigest_NoRetryAfterRetry(t *testing.T) {
	d := &Digest{Username: "u", Password: "p"}
	rec := httptest.NewRecorder()
	rec.Header().Set("WWW-Authenticate", `Digest realm="r", nonce="n"`)
	rec.WriteHeader(http.StatusUnauthorized)
	attempt := NewAttempt()
	attempt.Advance()
	if d.ShouldRetry(Result{Response: rec.Result(), Attempt: attempt}) {
		t.Error("the retry result must not be retried again")
	}
}
