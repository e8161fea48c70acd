// Package access implements the password gate for private zones.
//
// The digest is argon2id over password plus a fixed protocol salt. The
// salt must be a shared constant: every client has to derive the same
// digest independently, because there is no server to verify against.
// The digest itself travels on the public discovery topic, so it is
// offline-attackable. This is a deterrent against casual guessing in a
// public feed, not a security boundary and not authentication.
package access

import (
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

const fixedSalt = "zonechat/v1/private-zone"

// Argon2id parameters, deliberately lighter than login-grade settings:
// the digest protects a throwaway room password for at most one session
// duration, and verification runs on every join attempt.
const (
	memory      = 16 * 1024 // 16 MB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
)

// Digest derives the deterministic password digest stored in a private
// zone's descriptor. The plaintext is not retained.
func Digest(password string) string {
	hash := argon2.IDKey([]byte(password), []byte(fixedSalt), iterations, memory, parallelism, keyLength)
	return base64.RawStdEncoding.EncodeToString(hash)
}

// Verify recomputes the digest for password and compares it to the
// stored one in constant time. The stored digest comes off the public
// discovery feed, so its length is attacker-controlled: anything that
// does not decode to exactly keyLength bytes is rejected before argon2
// ever runs.
func Verify(password, digest string) bool {
	stored, err := base64.RawStdEncoding.DecodeString(digest)
	if err != nil || len(stored) != keyLength {
		return false
	}
	computed := argon2.IDKey([]byte(password), []byte(fixedSalt), iterations, memory, parallelism, keyLength)
	return subtle.ConstantTimeCompare(stored, computed) == 1
}
