package auth

import "strings"

// Challenge is one scheme offered in a WWW-Authenticate or
// Proxy-Authenticate header.
type Challenge struct {
	Scheme string
	// Token holds a token68 value, as used by NTLM and Negotiate.
	Token  string
	Params map[string]string
}

// Param returns a parameter by case-insensitive name.
func (c Challenge) Param(name string) string {
	return c.Params[strings.ToLower(name)]
}

// FindChallenges parses header values and returns those for scheme,
// matched case-insensitively.
func FindChallenges(values []string, scheme string) []Challenge {
	var out []Challenge
	for _, v := range values {
		for _, c := range ParseChallenges(v) {
			if strings.EqualFold(c.Scheme, scheme) {
				out = append(out, c)
			}
		}
	}
	return out
}

// ParseChallenges parses one header value holding one or more challenges:
//
//	Basic realm="a", Digest realm="b", nonce="n", qop="auth,auth-int"
//	NTLM TlRMTVNTUAACAAAA
func ParseChallenges(header string) []Challenge {
	p := &challengeParser{s: header}
	var out []Challenge
	var cur *Challenge

	for {
		p.skip(" \t,")
		if p.done() {
			break
		}
		word := p.token()
		if word == "" {
			// Unparseable byte; skip it rather than loop.
			p.i++
			continue
		}
		p.skip(" \t")
		if cur != nil && p.peek() == '=' {
			// name=value for the current challenge.
			p.i++
			p.skip(" \t")
			cur.Params[strings.ToLower(word)] = p.value()
			continue
		}

		out = append(out, Challenge{Scheme: word, Params: map[string]string{}})
		cur = &out[len(out)-1]
		start := p.i
		if tok := p.token68(); tok != "" {
			cur.Token = tok
		} else {
			p.i = start
		}
	}
	return out
}

type challengeParser struct {
	s string
	i int
}

func (p *challengeParser) done() bool { return p.i >= len(p.s) }

func (p *challengeParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.s[p.i]
}

func (p *challengeParser) skip(chars string) {
	for !p.done() && strings.IndexByte(chars, p.s[p.i]) >= 0 {
		p.i++
	}
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}

func (p *challengeParser) token() string {
	start := p.i
	for !p.done() && isTokenChar(p.s[p.i]) {
		p.i++
	}
	return p.s[start:p.i]
}

// token68 consumes a token68 only when it is the whole remainder of the
// challenge (up to a comma or the end).
func (p *challengeParser) token68() string {
	start := p.i
	for !p.done() {
		c := p.s[p.i]
		if isTokenChar(c) || c == '/' || c == '+' {
			p.i++
			continue
		}
		break
	}
	end := p.i
	for !p.done() && p.s[p.i] == '=' {
		p.i++
	}
	tok := p.s[start:p.i]
	p.skip(" \t")
	if tok == "" || end == start || (!p.done() && p.peek() != ',') {
		return ""
	}
	return tok
}

func (p *challengeParser) value() string {
	if p.peek() != '"' {
		return p.token()
	}
	p.i++
	var b strings.Builder
	for !p.done() {
		c := p.s[p.i]
		p.i++
		switch c {
		case '\\':
			if !p.done() {
				b.WriteByte(p.s[p.i])
				p.i++
			}
		case '"':
			return b.String()
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
