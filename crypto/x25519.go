package crypto

import (
	"fmt"
	"io"

	"github.com/flynn/noise"
)

// X25519 is the Diffie-Hellman function used by the secure channel. It implements
// noise.DHFunc so that the handshake generates its ephemeral keys the same way the
// device generates its static key: 32 bytes from the injected random source, clamped.
type X25519 struct{}

// DH25519 is the shared X25519 instance handed to noise.NewCipherSuite.
var DH25519 noise.DHFunc = X25519{}

// GenerateKey reads 32 bytes from src and clamps them into a Curve25519 private scalar.
func GenerateKey(src Random32) *PrivateKey {
	k := &PrivateKey{}
	src.Fill32(&k.key)
	clamp(&k.key)
	return k
}

func clamp(k *[KeySize]byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

// GenerateKeypair implements noise.DHFunc.
func (X25519) GenerateKeypair(random io.Reader) (noise.DHKey, error) {
	k := &PrivateKey{}
	defer k.Wipe()
	if _, err := io.ReadFull(random, k.key[:]); err != nil {
		return noise.DHKey{}, fmt.Errorf("failed to read key material: %w", err)
	}
	clamp(&k.key)

	pub, err := k.PublicKey()
	if err != nil {
		return noise.DHKey{}, err
	}
	return noise.DHKey{Private: k.Bytes(), Public: pub[:]}, nil
}

// DH implements noise.DHFunc. A low-order peer point is reported as an error.
func (X25519) DH(privkey, pubkey []byte) ([]byte, error) {
	k, err := NewPrivateKey(privkey)
	if err != nil {
		return nil, err
	}
	defer k.Wipe()

	peer, err := ParsePublicKey(pubkey)
	if err != nil {
		return nil, err
	}
	shared, err := ComputeShared(k, peer)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(shared[:])
	out := make([]byte, KeySize)
	copy(out, shared[:])
	return out, nil
}

// DHLen implements noise.DHFunc.
func (X25519) DHLen() int { return KeySize }

// DHName implements noise.DHFunc.
func (X25519) DHName() string { return "25519" }
