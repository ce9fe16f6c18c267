package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/hwwnoise/crypto"
)

const (
	staticKeyRecord    = "noise_static_key"
	trustedPeersRecord = "noise_trusted_peers"
)

// FileStore persists the static key and the trust list as encrypted records in a directory.
type FileStore struct {
	mu     sync.Mutex
	ks     *crypto.EncryptedKeyStore
	random crypto.Random32
	trust  trustList
	closed bool
}

// OpenFileStore opens the store in dir, creating it if needed. The passphrase protects the
// records at rest and is wiped by the call. Keys are generated from random; nil selects the
// system source.
func OpenFileStore(dir string, passphrase []byte, random crypto.Random32) (*FileStore, error) {
	log := crypto.NewPackageLogger("store", "OpenFileStore").WithField("dir", dir)

	ks, err := crypto.NewEncryptedKeyStore(dir, passphrase)
	if err != nil {
		log.WithError(err, "open_keystore").Error("Failed to open key store")
		return nil, fmt.Errorf("open key store: %w", err)
	}
	if random == nil {
		random = crypto.SystemRandom{}
	}

	fs := &FileStore{ks: ks, random: random}
	if err := fs.loadTrust(); err != nil {
		ks.Close()
		log.WithError(err, "load_trust").Error("Failed to load trusted peers")
		return nil, err
	}

	log.WithField("trusted_peers", len(fs.trust)).Debug("File store opened")
	return fs, nil
}

func (fs *FileStore) loadTrust() error {
	data, err := fs.ks.Read(trustedPeersRecord)
	if errors.Is(err, crypto.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read trusted peers: %w", err)
	}

	var keys []crypto.PublicKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("decode trusted peers: %w", err)
	}
	if len(keys) > MaxTrustedPeers {
		keys = keys[len(keys)-MaxTrustedPeers:]
	}
	fs.trust = keys
	return nil
}

func (fs *FileStore) saveTrust(l trustList) error {
	if l == nil {
		l = trustList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode trusted peers: %w", err)
	}
	if err := fs.ks.Write(trustedPeersRecord, data); err != nil {
		return fmt.Errorf("write trusted peers: %w", err)
	}
	return nil
}

// StaticPrivateKey loads the static key, generating and persisting one on first use.
func (fs *FileStore) StaticPrivateKey() (*crypto.PrivateKey, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil, ErrClosed
	}

	data, err := fs.ks.Read(staticKeyRecord)
	switch {
	case err == nil:
		defer crypto.ZeroBytes(data)
		key, err := crypto.NewPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("stored static key: %w", err)
		}
		return key, nil
	case !errors.Is(err, crypto.ErrRecordNotFound):
		return nil, fmt.Errorf("read static key: %w", err)
	}

	key := crypto.GenerateKey(fs.random)
	raw := key.Bytes()
	defer crypto.ZeroBytes(raw)
	if err := fs.ks.Write(staticKeyRecord, raw); err != nil {
		key.Wipe()
		return nil, fmt.Errorf("write static key: %w", err)
	}

	crypto.NewPackageLogger("store", "StaticPrivateKey").
		WithFields(crypto.OperationFields("generate_static_key", "success")).
		Info("Generated device static key")
	return key, nil
}

func (fs *FileStore) ContainsTrustedPeer(key crypto.PublicKey) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return !fs.closed && fs.trust.contains(key)
}

// AddTrustedPeer records key. The in-memory list only changes once the record is written.
func (fs *FileStore) AddTrustedPeer(key crypto.PublicKey) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return ErrClosed
	}

	next, changed := fs.trust.add(key)
	if !changed {
		return nil
	}
	if err := fs.saveTrust(next); err != nil {
		return err
	}
	fs.trust = next

	crypto.NewPackageLogger("store", "AddTrustedPeer").
		WithFields(crypto.SecureFieldHash(key[:], "peer")).
		WithField("trusted_peers", len(next)).
		Info("Trusted peer added")
	return nil
}

// TrustedPeers lists the trusted keys, oldest first.
func (fs *FileStore) TrustedPeers() []crypto.PublicKey {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.trust.clone()
}

// ResetTrust forgets every paired host.
func (fs *FileStore) ResetTrust() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return ErrClosed
	}
	if err := fs.ks.Delete(trustedPeersRecord); err != nil {
		return fmt.Errorf("delete trusted peers: %w", err)
	}
	fs.trust = nil
	return nil
}

// Close wipes the storage key. The store is unusable afterwards.
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil
	}
	fs.closed = true
	fs.trust = nil
	return fs.ks.Close()
}
