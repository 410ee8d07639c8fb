// Package auth holds the outbound authentication strategies applied by
// requester clients: Basic, Digest, NTLM and JWT bearer, each targeting
// either the origin server or a proxy.
//
// A strategy prepares each attempt with Authenticate and, after the first
// response, decides through RetryIfShould whether one more attempt with
// challenge-derived credentials is worthwhile. Strategies are shared by
// every request of a client and keep no per-request state; whatever a
// decision learns from a challenge is stored on the Attempt.
//
// Strategies written against the older blocking contract (ShouldRetry) are
// adapted once, when Bind is called.
package auth
