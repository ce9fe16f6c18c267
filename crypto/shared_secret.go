package crypto

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// ErrLowOrderPoint indicates that X25519 produced the all-zero output.
var ErrLowOrderPoint = errors.New("x25519: low order point")

// SharedSecret is the output of an X25519 key agreement.
type SharedSecret [KeySize]byte

// ComputeShared performs X25519 between k and the peer's public point. The result is
// never silently zeroed: a low-order peer point yields ErrLowOrderPoint.
func ComputeShared(k *PrivateKey, peer PublicKey) (SharedSecret, error) {
	var result SharedSecret
	if k == nil || k.IsZero() {
		return result, ErrZeroKey
	}

	logrus.WithFields(logrus.Fields{
		"function":        "ComputeShared",
		"peer_key_prefix": fmt.Sprintf("%x", peer[:8]),
	}).Debug("Computing X25519 shared secret")

	sharedSecret, err := curve25519.X25519(k.key[:], peer[:])
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ComputeShared",
			"error":    err.Error(),
		}).Warn("X25519 computation failed")
		return result, fmt.Errorf("%w: %v", ErrLowOrderPoint, err)
	}

	copy(result[:], sharedSecret)
	ZeroBytes(sharedSecret)
	return result, nil
}
