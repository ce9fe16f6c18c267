package store

import (
	"github.com/opd-ai/hwwnoise/crypto"
)

// MemoryStore keeps everything in RAM. It is used by tests and by the simulator when no data
// directory is configured.
type MemoryStore struct {
	static *crypto.PrivateKey
	trust  trustList

	// StaticErr, when set, is returned by StaticPrivateKey.
	StaticErr error
	// AddErr, when set, is returned by AddTrustedPeer and nothing is recorded.
	AddErr error
}

// NewMemoryStore returns a store holding a copy of static. A nil key is generated from the
// system random source.
func NewMemoryStore(static *crypto.PrivateKey) *MemoryStore {
	if static == nil {
		static = crypto.GenerateKey(crypto.SystemRandom{})
	} else {
		static = static.Clone()
	}
	return &MemoryStore{static: static}
}

func (m *MemoryStore) StaticPrivateKey() (*crypto.PrivateKey, error) {
	if m.StaticErr != nil {
		return nil, m.StaticErr
	}
	if m.static == nil {
		return nil, ErrClosed
	}
	return m.static.Clone(), nil
}

func (m *MemoryStore) ContainsTrustedPeer(key crypto.PublicKey) bool {
	return m.trust.contains(key)
}

func (m *MemoryStore) AddTrustedPeer(key crypto.PublicKey) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.trust, _ = m.trust.add(key)
	return nil
}

// TrustedPeers lists the trusted keys, oldest first.
func (m *MemoryStore) TrustedPeers() []crypto.PublicKey {
	return m.trust.clone()
}

// ResetTrust forgets every paired host.
func (m *MemoryStore) ResetTrust() error {
	m.trust = nil
	return nil
}

// Close wipes the static key.
func (m *MemoryStore) Close() error {
	m.static.Wipe()
	m.static = nil
	return nil
}
