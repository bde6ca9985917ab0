// Package studytoken mints and verifies anonymous participant tokens.
// A token is a random UUID plus a truncated HMAC-SHA256 signature, base32
// encoded and grouped with hyphens so it can be read out loud.
package studytoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"strings"

	"github.com/google/uuid"
)

const sigLen = 6

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrInvalidToken covers malformed tokens and signature mismatches.
var ErrInvalidToken = errors.New("invalid study token")

// Mint generates a fresh token signed with secret.
func Mint(secret []byte) string {
	return FromID(secret, uuid.New())
}

// FromID builds the token for a known participant ID.
func FromID(secret []byte, id uuid.UUID) string {
	payload := id[:]
	raw := append(append([]byte{}, payload...), sign(secret, payload)...)
	return hyphenate(encoding.EncodeToString(raw))
}

// Verify checks the token signature and returns the participant ID.
func Verify(secret []byte, token string) (uuid.UUID, error) {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(token), "-", ""))
	raw, err := encoding.DecodeString(compact)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	if len(raw) != 16+sigLen {
		return uuid.Nil, ErrInvalidToken
	}
	payload, sig := raw[:16], raw[16:]
	if subtle.ConstantTimeCompare(sig, sign(secret, payload)) != 1 {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.FromBytes(payload)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func sign(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)[:sigLen]
}

func hyphenate(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + 4
		if end > len(s) {
			end = len(s)
		}
		b.WriteString(s[i:end])
	}
	return b.String()
}
