// Package opaque reversibly encodes internal numeric identifiers into opaque
// strings so outward-facing layers never leak primary-key sequences.
//
// # Reload hazard
//
// The encoding salt is generated per process and regenerated by
// [Codec.Reload]. Reloading therefore invalidates every previously issued
// opaque string: decoding one against the new salt fails with [ErrDecode].
// Callers that hand opaque identifiers to external systems must tolerate
// this; it is documented behavior, not a defect.
package opaque

import (
	"errors"
	"fmt"
	"sync"

	hashids "github.com/speps/go-hashids/v2"

	"github.com/signably/gatehouse/internal"
	"github.com/signably/gatehouse/settings"
)

// Salt length never drops below this floor, whatever the configured value.
const minSaltLength = 8

var (
	// ErrEncode indicates the input identifier cannot be encoded.
	ErrEncode = errors.New("identifier not encodable")
	// ErrDecode indicates the input string is empty or was not produced by
	// the current encoding scheme.
	ErrDecode = errors.New("opaque identifier not decodable")
)

// Codec encodes and decodes identifiers using length, salt length, and
// alphabet read from the settings store at construction and on Reload.
//
// Codec instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Codec struct {
	settings *settings.Store

	mu sync.RWMutex
	h  *hashids.HashID
}

// NewCodec derives the initial encoding scheme from the settings store.
func NewCodec(store *settings.Store) (*Codec, error) {
	c := &Codec{settings: store}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload regenerates the salt and re-derives the encoding scheme from
// current settings. All previously issued opaque strings stop decoding.
func (c *Codec) Reload() error {
	minLength, err := c.settings.Int(settings.KeyObfuscationMinLength)
	if err != nil {
		return fmt.Errorf("opaque reload: %w", err)
	}
	saltLength, err := c.settings.Int(settings.KeyObfuscationSaltLength)
	if err != nil {
		return fmt.Errorf("opaque reload: %w", err)
	}
	alphabet, err := c.settings.String(settings.KeyObfuscationAlphabet)
	if err != nil {
		return fmt.Errorf("opaque reload: %w", err)
	}

	if saltLength < minSaltLength {
		saltLength = minSaltLength
	}
	salt, err := internal.NewSalt(alphabet, saltLength)
	if err != nil {
		return fmt.Errorf("opaque reload: %w", err)
	}

	h, err := hashids.NewWithData(&hashids.HashIDData{
		Alphabet:  alphabet,
		Salt:      salt,
		MinLength: minLength,
	})
	if err != nil {
		return fmt.Errorf("opaque reload: %w", err)
	}

	c.mu.Lock()
	c.h = h
	c.mu.Unlock()
	return nil
}

// Encode turns a positive internal identifier into an opaque string.
func (c *Codec) Encode(id int64) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("%w: %d", ErrEncode, id)
	}

	c.mu.RLock()
	h := c.h
	c.mu.RUnlock()

	out, err := h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// Decode recovers the identifier behind an opaque string. Empty input,
// strings issued under a previous salt, and multi-number payloads all fail
// with [ErrDecode]; a successful decode is always positive.
func (c *Codec) Decode(opaque string) (int64, error) {
	if opaque == "" {
		return 0, fmt.Errorf("%w: empty input", ErrDecode)
	}

	c.mu.RLock()
	h := c.h
	c.mu.RUnlock()

	ids, err := h.DecodeInt64WithError(opaque)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(ids) != 1 || ids[0] <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrDecode, opaque)
	}
	return ids[0], nil
}
