// Package password hashes and verifies account passwords.
//
// New hashes are always bcrypt. Compare also accepts argon2id PHC strings
// and crypt(3) sha512/sha256/md5 hashes so accounts imported from other
// systems can still log in; NeedsRehash reports those so callers can upgrade
// them after a successful login.
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt cost factor used unless configured otherwise.
	DefaultCost = 12

	// MaxLength is the longest password bcrypt accepts, in bytes.
	MaxLength = 72
)

var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrTooLong         = errors.New("password exceeds 72 bytes")
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

// Hasher produces and checks password hashes.
type Hasher interface {
	// Hash produces a salted hash of the password.
	Hash(password string) (string, error)

	// Compare checks password against hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error if
	// the hash cannot be parsed.
	Compare(hash, password string) (bool, error)

	// NeedsRehash returns true if hash was not produced by this hasher's
	// current algorithm and cost.
	NeedsRehash(hash string) bool
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. Costs outside bcrypt's range fall
// back to DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the bcrypt cost used for new hashes.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("PASSWORD_EMPTY").Wrap(ErrEmptyPassword)
	}
	if len(password) > MaxLength {
		return "", oops.Code("PASSWORD_TOO_LONG").Wrap(ErrTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	switch {
	case isBcrypt(hash):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(err)
		}
		return true, nil
	case strings.HasPrefix(hash, "$argon2id$"):
		return compareArgon2id(hash, password)
	case strings.HasPrefix(hash, "$6$"):
		return compareCrypt(sha512_crypt.New(), hash, password)
	case strings.HasPrefix(hash, "$5$"):
		return compareCrypt(sha256_crypt.New(), hash, password)
	case strings.HasPrefix(hash, "$1$"):
		return compareCrypt(md5_crypt.New(), hash, password)
	}
	return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(ErrUnsupportedHash)
}

func (h *BcryptHasher) NeedsRehash(hash string) bool {
	if !isBcrypt(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.cost
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

func compareCrypt(c crypt.Crypter, hash, password string) (bool, error) {
	err := c.Verify(hash, []byte(password))
	if errors.Is(err, crypt.ErrKeyMismatch) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(err)
	}
	return true, nil
}

// compareArgon2id checks a $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash> string.
func compareArgon2id(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, oops.Code("PASSWORD_INVALID_HASH").Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("PASSWORD_INVALID_HASH").Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return false, oops.Code("PASSWORD_INVALID_HASH").Errorf("invalid argon2 parallelism %d", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("PASSWORD_INVALID_HASH").Wrap(err)
	}
	if len(expected) == 0 || len(expected) > 1024 {
		return false, oops.Code("PASSWORD_INVALID_HASH").Errorf("invalid argon2 key length %d", len(expected))
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
