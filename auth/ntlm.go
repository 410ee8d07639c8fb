package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"golang.org/x/crypto/md4"
)

const ntlmChallengeKey = "ntlm.challenge"

// NTLM negotiation flags.
const (
	ntlmNegotiateUnicode     = 0x00000001
	ntlmRequestTarget        = 0x00000004
	ntlmNegotiateNTLM        = 0x00000200
	ntlmNegotiateAlwaysSign  = 0x00008000
	ntlmNegotiateExtSecurity = 0x00080000
	ntlmNegotiateTargetInfo  = 0x00800000
	ntlmNegotiate128         = 0x20000000
	ntlmNegotiate56          = 0x80000000

	ntlmDefaultFlags = ntlmNegotiateUnicode | ntlmRequestTarget | ntlmNegotiateNTLM |
		ntlmNegotiateAlwaysSign | ntlmNegotiateExtSecurity | ntlmNegotiateTargetInfo |
		ntlmNegotiate128 | ntlmNegotiate56
)

var ntlmSignature = []byte("NTLMSSP\x00")

// NTLM implements NTLMv2 over HTTP: a Type 1 negotiate message on the first
// attempt and a Type 3 authenticate message answering the server's Type 2
// challenge on the retry. Both attempts must reach the server over the same
// connection, so the transport should use persistent connections.
type NTLM struct {
	Domain      string
	Username    string
	Password    string
	Workstation string
	Target      Target

	// now and random are replaced in tests.
	now    func() time.Time
	random func([]byte) error
}

var (
	_ Strategy         = (*NTLM)(nil)
	_ BlockingStrategy = (*NTLM)(nil)
)

// Name implements Authenticator.
func (n *NTLM) Name() string { return "ntlm" }

// ConsumesPayload implements Authenticator.
func (n *NTLM) ConsumesPayload() bool { return false }

// Authenticate implements Authenticator.
func (n *NTLM) Authenticate(req *http.Request, attempt *Attempt) error {
	v, ok := attempt.Get(ntlmChallengeKey)
	if !ok {
		req.Header.Set(n.Target.CredentialsHeader(), "NTLM "+base64.StdEncoding.EncodeToString(negotiateMessage()))
		return nil
	}
	msg, err := n.authenticateMessage(v.(*ntlmChallenge))
	if err != nil {
		return err
	}
	req.Header.Set(n.Target.CredentialsHeader(), "NTLM "+base64.StdEncoding.EncodeToString(msg))
	return nil
}

// ShouldRetry implements BlockingStrategy. It retries only when the
// challenge carries a parseable Type 2 message.
func (n *NTLM) ShouldRetry(r Result) bool {
	if r.Attempt.Retrying() {
		return false
	}
	challenges, ok := n.Target.challenged(r, "ntlm")
	if !ok {
		return false
	}
	for _, c := range challenges {
		if c.Token == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(c.Token)
		if err != nil {
			continue
		}
		ch, err := parseChallengeMessage(raw)
		if err != nil {
			continue
		}
		r.Attempt.Set(ntlmChallengeKey, ch)
		return true
	}
	return false
}

// RetryIfShould implements Strategy.
func (n *NTLM) RetryIfShould(r Result, retry func(), notRetry func()) {
	if n.ShouldRetry(r) {
		retry()
		return
	}
	notRetry()
}

func negotiateMessage() []byte {
	msg := make([]byte, 32)
	copy(msg, ntlmSignature)
	binary.LittleEndian.PutUint32(msg[8:], 1)
	binary.LittleEndian.PutUint32(msg[12:], ntlmDefaultFlags)
	// Domain and workstation security buffers stay empty.
	return msg
}

type ntlmChallenge struct {
	flags      uint32
	server     [8]byte
	targetInfo []byte
}

func parseChallengeMessage(msg []byte) (*ntlmChallenge, error) {
	if len(msg) < 32 || !bytes.Equal(msg[:8], ntlmSignature) {
		return nil, errors.New("auth: not an NTLM message")
	}
	if binary.LittleEndian.Uint32(msg[8:]) != 2 {
		return nil, errors.New("auth: not an NTLM challenge message")
	}
	ch := &ntlmChallenge{flags: binary.LittleEndian.Uint32(msg[20:])}
	copy(ch.server[:], msg[24:32])
	if len(msg) >= 48 {
		length := int(binary.LittleEndian.Uint16(msg[40:]))
		offset := int(binary.LittleEndian.Uint32(msg[44:]))
		if offset+length > len(msg) {
			return nil, errors.New("auth: NTLM target info out of range")
		}
		ch.targetInfo = append([]byte(nil), msg[offset:offset+length]...)
	}
	return ch, nil
}

func (n *NTLM) authenticateMessage(ch *ntlmChallenge) ([]byte, error) {
	clientChallenge := make([]byte, 8)
	random := n.random
	if random == nil {
		random = func(b []byte) error { _, err := rand.Read(b); return err }
	}
	if err := random(clientChallenge); err != nil {
		return nil, fmt.Errorf("auth: ntlm client challenge: %w", err)
	}
	now := time.Now
	if n.now != nil {
		now = n.now
	}

	key := ntowfv2(n.Username, n.Password, n.Domain)
	blob := ntlmv2Blob(now(), clientChallenge, ch.targetInfo)
	proof := hmacMD5(key, ch.server[:], blob)
	ntResponse := append(proof, blob...)
	lmResponse := append(hmacMD5(key, ch.server[:], clientChallenge), clientChallenge...)

	domain := utf16le(n.Domain)
	user := utf16le(n.Username)
	workstation := utf16le(n.Workstation)

	const headerLen = 64
	payload := [][]byte{domain, user, workstation, lmResponse, ntResponse}
	msg := make([]byte, headerLen)
	copy(msg, ntlmSignature)
	binary.LittleEndian.PutUint32(msg[8:], 3)

	// Security buffer positions: domain 28, user 36, workstation 44, LM 12, NT 20.
	fields := []int{28, 36, 44, 12, 20}
	offset := headerLen
	for i, p := range payload {
		pos := fields[i]
		binary.LittleEndian.PutUint16(msg[pos:], uint16(len(p)))
		binary.LittleEndian.PutUint16(msg[pos+2:], uint16(len(p)))
		binary.LittleEndian.PutUint32(msg[pos+4:], uint32(offset))
		offset += len(p)
	}
	// Empty session key buffer at 52.
	binary.LittleEndian.PutUint32(msg[56:], uint32(offset))
	binary.LittleEndian.PutUint32(msg[60:], ch.flags&ntlmDefaultFlags|ntlmNegotiateUnicode)

	for _, p := range payload {
		msg = append(msg, p...)
	}
	return msg, nil
}

// ntowfv1 is the NT hash: MD4 of the UTF-16LE password.
func ntowfv1(password string) []byte {
	h := md4.New()
	h.Write(utf16le(password))
	return h.Sum(nil)
}

// ntowfv2 is the NTLMv2 response key.
func ntowfv2(user, password, domain string) []byte {
	return hmacMD5(ntowfv1(password), utf16le(strings.ToUpper(user)+domain))
}

func ntlmv2Blob(now time.Time, clientChallenge, targetInfo []byte) []byte {
	// Windows FILETIME: 100ns ticks since 1601-01-01.
	const epochDelta = 116444736000000000
	ticks := uint64(now.UnixNano()/100) + epochDelta

	blob := make([]byte, 0, 28+len(targetInfo)+4)
	blob = append(blob, 0x01, 0x01, 0, 0, 0, 0, 0, 0)
	blob = binary.LittleEndian.AppendUint64(blob, ticks)
	blob = append(blob, clientChallenge...)
	blob = append(blob, 0, 0, 0, 0)
	blob = append(blob, targetInfo...)
	blob = append(blob, 0, 0, 0, 0)
	return blob
}

func hmacMD5(key []byte, parts ...[]byte) []byte {
	m := hmac.New(md5.New, key)
	for _, p := range parts {
		m.Write(p)
	}
	return m.Sum(nil)
}

func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}
	return b
}
