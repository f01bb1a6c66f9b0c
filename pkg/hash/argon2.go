package hash

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// ErrHashing indicates the hashing operation failed or timed out. Callers
// must treat this as fatal for the request; plaintext is never stored.
var ErrHashing = errors.New("password hashing failed")

// Hasher is the narrow interface services depend on, so the algorithm and
// parameters can change without touching callers.
type Hasher interface {
	// Hash derives an encoded hash string from plaintext
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether plaintext matches the encoded hash
	Verify(plaintext, encoded string) (bool, error)
}

// Argon2id hashes passwords with the argon2id KDF
type Argon2id struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// Timeout bounds a single derivation; zero means no bound
	Timeout time.Duration
}

// NewArgon2id returns a hasher with the recommended parameter set
// (64 MiB memory, 3 iterations, 4 lanes).
func NewArgon2id(timeout time.Duration) *Argon2id {
	return &Argon2id{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
		Timeout:     timeout,
	}
}

// Hash derives an argon2id PHC string, e.g.
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<digest>
func (a *Argon2id) Hash(ctx context.Context, plaintext string) (string, error) {
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: generating salt: %v", ErrHashing, err)
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	// Derivation is CPU/memory bound with no cancellation point, so run it
	// in a goroutine and abandon it on timeout.
	done := make(chan []byte, 1)
	go func() {
		done <- argon2.IDKey([]byte(plaintext), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrHashing, ctx.Err())
	case key := <-done:
		return a.encode(salt, key), nil
	}
}

// Verify reports whether plaintext matches the encoded PHC string
func (a *Argon2id) Verify(plaintext, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(plaintext), salt, params.iterations, params.memory, params.parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

func (a *Argon2id) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.Memory, a.Iterations, a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

type params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

func decode(encoded string) (params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params{}, nil, nil, fmt.Errorf("%w: not an argon2id hash", ErrHashing)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params{}, nil, nil, fmt.Errorf("%w: malformed version: %v", ErrHashing, err)
	}
	if version != argon2.Version {
		return params{}, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrHashing, version)
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return params{}, nil, nil, fmt.Errorf("%w: malformed parameters: %v", ErrHashing, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params{}, nil, nil, fmt.Errorf("%w: malformed salt: %v", ErrHashing, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params{}, nil, nil, fmt.Errorf("%w: malformed digest: %v", ErrHashing, err)
	}

	return p, salt, key, nil
}
