package realm

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credential is an injectable verifier for a realm's stored password, the
// "hook" the design notes ask for so production crypt(3)/bcrypt checks can
// be swapped for test doubles without touching the authentication flow.
type Credential interface {
	// Verify reports whether password is the credential this realm
	// was configured with.
	Verify(password string) bool
}

// PlaintextCredential compares password against Stored verbatim, for
// realms configured with a bare password string.
type PlaintextCredential struct {
	Stored string
}

func (c PlaintextCredential) Verify(password string) bool {
	return password == c.Stored
}

// BcryptCredential verifies password against a bcrypt hash, used once a
// "$p$<account>" reference has been resolved to a modern hash at
// configuration-load time.
type BcryptCredential struct {
	Hash string
}

func (c BcryptCredential) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) == nil
}

// FuncCredential adapts an arbitrary comparison function, letting tests
// stand in for a real crypt(3) call without linking against libcrypt.
type FuncCredential struct {
	Fn func(password string) bool
}

func (c FuncCredential) Verify(password string) bool {
	return c.Fn(password)
}

// isBcryptHash reports whether hash looks like a bcrypt hash (one of the
// standard version prefixes), as opposed to a legacy crypt(3) hash.
func isBcryptHash(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}

// NewHashCredential picks BcryptCredential or a CryptCredential using
// cryptFn (plain string equality when cryptFn is nil) depending on the
// shape of hash, mirroring the original
// implementation's acceptance of either a modern hash or the legacy
// crypt(3) output stored in /etc/shadow.
func NewHashCredential(hash string, cryptFn func(password, salt string) string) Credential {
	if isBcryptHash(hash) {
		return BcryptCredential{Hash: hash}
	}
	return CryptCredential{Hash: hash, CryptFn: cryptFn}
}

// CryptCredential verifies password by crypting it with Hash as the salt
// and comparing the result against Hash, the same scheme
// uh_auth_check uses: "password crypted with the stored hash as salt
// equals the stored hash". CryptFn is injectable because the traditional
// DES crypt(3) algorithm has no pure-Go standard-library equivalent and is
// only reachable via cgo; a deployment that needs legacy crypt(3) accounts
// supplies its own CryptFn (for example a thin cgo wrapper around
// crypt_r(3)). A nil CryptFn falls back to bare string equality, which
// only ever matches a Hash that was stored unhashed.
type CryptCredential struct {
	Hash    string
	CryptFn func(password, salt string) string
}

func (c CryptCredential) Verify(password string) bool {
	if c.CryptFn == nil {
		return password == c.Hash
	}
	return c.CryptFn(password, c.Hash) == c.Hash
}
