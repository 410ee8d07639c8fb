package auth

import (
	"encoding/base64"
	"net/http"
)

// Basic sends RFC 7617 credentials, either on every request (Preemptive)
// or only on the retry after a Basic challenge.
type Basic struct {
	Username   string
	Password   string
	Preemptive bool
	Target     Target
}

var (
	_ Strategy         = (*Basic)(nil)
	_ BlockingStrategy = (*Basic)(nil)
)

// Name implements Authenticator.
func (b *Basic) Name() string { return "basic" }

// ConsumesPayload implements Authenticator.
func (b *Basic) ConsumesPayload() bool { return false }

// Authenticate implements Authenticator.
func (b *Basic) Authenticate(req *http.Request, attempt *Attempt) error {
	if b.Preemptive || attempt.Retrying() {
		req.Header.Set(b.Target.CredentialsHeader(), b.header())
	}
	return nil
}

// ShouldRetry implements BlockingStrategy. A preemptive strategy already
// sent its credentials, so a challenge means they were rejected.
func (b *Basic) ShouldRetry(r Result) bool {
	if b.Preemptive || r.Attempt.Retrying() {
		return false
	}
	if r.StatusCode() != b.Target.ChallengeStatus() {
		return false
	}
	values := r.Response.Header.Values(b.Target.ChallengeHeader())
	return len(values) == 0 || len(FindChallenges(values, "basic")) > 0
}

// RetryIfShould implements Strategy.
func (b *Basic) RetryIfShould(r Result, retry func(), notRetry func()) {
	if b.ShouldRetry(r) {
		retry()
		return
	}
	notRetry()
}

func (b *Basic) header() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(b.Username+":"+b.Password))
}
