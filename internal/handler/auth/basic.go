package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// Basic accepts "Basic <base64(user:pass)>" values matching a configured
// user/password pair, byte-for-byte, per spec §4.5.
type Basic struct {
	user string
	pass string
}

// NewBasic creates a Basic authenticator for the given credentials.
func NewBasic(user, pass string) *Basic {
	return &Basic{user: user, pass: pass}
}

func (b *Basic) Accepts(headerValue string) bool {
	scheme, payload, ok := strings.Cut(headerValue, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return false
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(b.user)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(b.pass)) == 1
	return userMatch && passMatch
}
