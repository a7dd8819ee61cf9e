// Package auth holds the authentication primitives of the server: password
// hashing, access token issuance and verification, and the admin guard.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hash schemes understood by Hasher.
const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxBcryptPasswordLen = 72

// argon2id parameters for new digests. Verification reads them back from the
// digest, bounded by the max* limits.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16

	maxArgonTime   = 10
	maxArgonMemory = 1024 * 1024
	maxArgonKeyLen = 128
)

// PasswordHasher produces salted one-way digests and checks passwords
// against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// Hasher creates new digests with one scheme and verifies digests of any
// supported scheme, so accounts keep working after the scheme is switched.
type Hasher struct {
	scheme     string
	bcryptCost int
}

func NewHasher(scheme string, bcryptCost int) (*Hasher, error) {
	switch scheme {
	case SchemeBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("auth: bcrypt cost %d out of range", bcryptCost)
		}
	case SchemeArgon2id:
	default:
		return nil, fmt.Errorf("auth: unsupported hash scheme %q", scheme)
	}
	return &Hasher{scheme: scheme, bcryptCost: bcryptCost}, nil
}

// Hash returns a digest with a fresh random salt; hashing the same password
// twice gives different digests.
func (h *Hasher) Hash(password string) (string, error) {
	if h.scheme == SchemeArgon2id {
		return hashArgon2id(password)
	}
	if len(password) > maxBcryptPasswordLen {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, maxBcryptPasswordLen)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches digest. Malformed or unknown
// digests simply do not match.
func (h *Hasher) Verify(password, digest string) bool {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return verifyArgon2id(password, digest)
	case strings.HasPrefix(digest, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	default:
		return false
	}
}

// hashArgon2id encodes in the PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func hashArgon2id(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if time == 0 || time > maxArgonTime || memory == 0 || memory > maxArgonMemory || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgonKeyLen {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}
