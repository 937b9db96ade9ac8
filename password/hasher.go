package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const hasherAlgorithm = "argon2id"

// ErrHashFormat indicates a stored hash that is not a well-formed Argon2id
// PHC string produced by this package.
var ErrHashFormat = errors.New("malformed password hash")

// Params tune the Argon2id cost. Zero values are replaced by
// [DefaultParams] at construction.
type Params struct {
	MemoryKB    uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams is a moderate interactive-login cost profile.
var DefaultParams = Params{
	MemoryKB:    64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes and verifies passwords with Argon2id, encoding results in
// PHC string format so parameters travel with the hash.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher, filling zero params from [DefaultParams].
func NewHasher(params Params) (*Hasher, error) {
	if params.MemoryKB == 0 {
		params.MemoryKB = DefaultParams.MemoryKB
	}
	if params.Iterations == 0 {
		params.Iterations = DefaultParams.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = DefaultParams.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = DefaultParams.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = DefaultParams.KeyLength
	}
	if params.MemoryKB < 8*1024 {
		return nil, errors.New("argon2 memory must be >= 8192 KB")
	}
	if params.SaltLength < 16 || params.KeyLength < 16 {
		return nil, errors.New("argon2 salt and key must be >= 16 bytes")
	}
	return &Hasher{params: params}, nil
}

// Hash derives an Argon2id hash of the password under a fresh random salt.
// The candidate is hashed exactly as provided, with no normalization.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Iterations, h.params.MemoryKB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		hasherAlgorithm, argon2.Version,
		h.params.MemoryKB, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the password matches the stored hash. The
// comparison is constant time over the derived key.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt,
		params.Iterations, params.MemoryKB, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsRehash reports whether the stored hash was produced under weaker
// parameters than the hasher's current ones.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	params, _, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	switch {
	case params.MemoryKB < h.params.MemoryKB,
		params.Iterations < h.params.Iterations,
		params.Parallelism < h.params.Parallelism,
		uint32(len(key)) != h.params.KeyLength:
		return true, nil
	}
	return false, nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != hasherAlgorithm {
		return Params{}, nil, nil, ErrHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrHashFormat
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrHashFormat, version)
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.MemoryKB, &params.Iterations, &params.Parallelism); err != nil {
		return Params{}, nil, nil, ErrHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrHashFormat
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrHashFormat
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}
