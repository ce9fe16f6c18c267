package store

import (
	"errors"

	"github.com/opd-ai/hwwnoise/crypto"
)

// MaxTrustedPeers bounds the trust list. Adding a new key to a full list evicts the oldest.
const MaxTrustedPeers = 5

// ErrClosed is returned by a store that has been closed.
var ErrClosed = errors.New("store: closed")

// Store is the device's persistent memory as seen by the protocol layer.
type Store interface {
	// StaticPrivateKey returns a copy of the device's Noise static key. The caller wipes it.
	StaticPrivateKey() (*crypto.PrivateKey, error)
	// ContainsTrustedPeer reports whether key has been paired before.
	ContainsTrustedPeer(key crypto.PublicKey) bool
	// AddTrustedPeer records key as paired. Adding a known key changes nothing.
	AddTrustedPeer(key crypto.PublicKey) error
}

// trustList is an ordered, bounded set of public keys, oldest first.
type trustList []crypto.PublicKey

func (l trustList) contains(key crypto.PublicKey) bool {
	for _, k := range l {
		if k.Equal(key) {
			return true
		}
	}
	return false
}

// add returns the list with key appended and reports whether anything changed.
func (l trustList) add(key crypto.PublicKey) (trustList, bool) {
	if l.contains(key) {
		return l, false
	}
	if len(l) >= MaxTrustedPeers {
		l = append(trustList(nil), l[len(l)-MaxTrustedPeers+1:]...)
	}
	return append(l, key), true
}

func (l trustList) clone() []crypto.PublicKey {
	return append([]crypto.PublicKey(nil), l...)
}
