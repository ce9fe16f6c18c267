package crypto

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the length of Curve25519 private scalars, public points and shared secrets.
const KeySize = 32

var (
	// ErrInvalidKeyLength indicates key material of the wrong size
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrZeroKey indicates an all-zero private key
	ErrZeroKey = errors.New("invalid private key: all zeros")
)

// PrivateKey is a Curve25519 private scalar. It is only handed around by pointer so that
// the owner can wipe the single copy with Wipe once it goes out of scope:
//
//	key := crypto.GenerateKey(src)
//	defer key.Wipe()
type PrivateKey struct {
	key [KeySize]byte
}

// NewPrivateKey copies b into a new PrivateKey. The caller keeps ownership of b.
func NewPrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), KeySize)
	}
	k := &PrivateKey{}
	copy(k.key[:], b)
	if k.IsZero() {
		return nil, ErrZeroKey
	}
	return k, nil
}

// Bytes returns a copy of the scalar. The caller must wipe the copy.
func (k *PrivateKey) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, k.key[:])
	return out
}

// Clone returns an independent copy that must be wiped separately.
func (k *PrivateKey) Clone() *PrivateKey {
	c := &PrivateKey{}
	c.key = k.key
	return c
}

// PublicKey derives the X25519 public key.
func (k *PrivateKey) PublicKey() (PublicKey, error) {
	var pub PublicKey
	out, err := curve25519.X25519(k.key[:], curve25519.Basepoint)
	if err != nil {
		return pub, fmt.Errorf("failed to derive public key: %w", err)
	}
	copy(pub[:], out)
	return pub, nil
}

// IsZero reports whether the key is all zeros, which is also its state after Wipe.
func (k *PrivateKey) IsZero() bool {
	var zero [KeySize]byte
	return subtle.ConstantTimeCompare(k.key[:], zero[:]) == 1
}

// Wipe zeroes the scalar. It is safe to call on a nil key and more than once.
func (k *PrivateKey) Wipe() {
	if k == nil {
		return
	}
	ZeroBytes(k.key[:])
}

// PublicKey is a Curve25519 public point.
type PublicKey [KeySize]byte

// ParsePublicKey copies b into a PublicKey.
func ParsePublicKey(b []byte) (PublicKey, error) {
	var pub PublicKey
	if len(b) != KeySize {
		return pub, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(b), KeySize)
	}
	copy(pub[:], b)
	return pub, nil
}

// Equal compares two public keys in constant time.
func (p PublicKey) Equal(other PublicKey) bool {
	return subtle.ConstantTimeCompare(p[:], other[:]) == 1
}

// String returns the hex encoding.
func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// MarshalText implements encoding.TextMarshaler.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PublicKey) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid public key encoding: %w", err)
	}
	pub, err := ParsePublicKey(b)
	if err != nil {
		return err
	}
	*p = pub
	return nil
}
