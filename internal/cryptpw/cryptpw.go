package cryptpw

// Package cryptpw classifies and produces shadow password fields for
// the account commands. Configured passwords are normally already
// crypt hashes; anything else is hashed with sha512-crypt before it
// reaches useradd/usermod so a pasted plaintext value never lands in
// /etc/shadow verbatim.

import (
	"errors"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
)

var ErrUnsupportedHash = errors.New("unsupported password hash")

// Locked is the shadow field that disables password login.
const Locked = "!"

// IsHash reports whether the value is already a crypt hash or a lock
// sentinel and can be passed to usermod -p unchanged.
func IsHash(s string) bool {
	if s == "" {
		return false
	}
	if s == "*" || strings.HasPrefix(s, "!") || strings.HasPrefix(s, "*") {
		return true
	}
	// $id$salt$hash; covers md5/sha256/sha512/bcrypt/yescrypt ids.
	return strings.HasPrefix(s, "$") && strings.Count(s, "$") >= 3
}

// Hash produces a sha512-crypt hash of a plaintext password with a
// random salt.
func Hash(plain string) (string, error) {
	return sha512_crypt.New().Generate([]byte(plain), nil)
}

// Verify checks a plaintext password against the crypt formats the
// linked crypters understand ($1$, $5$, $6$).
func Verify(hash, plain string) error {
	var c crypt.Crypter
	switch {
	case strings.HasPrefix(hash, "$6$"):
		c = sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		c = sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		c = md5_crypt.New()
	default:
		return ErrUnsupportedHash
	}
	return c.Verify(hash, []byte(plain))
}
