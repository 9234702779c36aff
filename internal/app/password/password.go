// Package password wraps the one-way credential hash. Argon2id keeps the
// slow, salted properties required of a password hash and, unlike bcrypt,
// has no 72-byte input cap to guard against.
package password

import (
	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

func Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, params)
}

// Verify reports whether plain matches the stored hash. A malformed hash
// is never an error to the caller: it simply does not match.
func Verify(plain, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(plain, hash)
	if err != nil {
		return false
	}
	return ok
}
