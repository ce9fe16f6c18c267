package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

// EncryptedKeyStore is the device's non-volatile storage: named records encrypted at rest
// with AES-GCM under a key derived from a passphrase. The record name is bound as
// associated data so records cannot be swapped on disk.
type EncryptedKeyStore struct {
	encryptionKey [32]byte
	dataDir       string
	saltFile      string
}

const (
	// PBKDF2Iterations is the number of iterations for key derivation (NIST recommendation)
	PBKDF2Iterations = 100000
	// EncryptionVersion is the current encryption format version
	EncryptionVersion = 1
	// SaltSize is the size of the salt for PBKDF2
	SaltSize = 32
)

// ErrRecordNotFound indicates that no record with the requested name exists.
var ErrRecordNotFound = errors.New("record not found")

// NewEncryptedKeyStore opens (creating if needed) a key store rooted at dataDir.
// The passphrase is wiped once the encryption key has been derived.
func NewEncryptedKeyStore(dataDir string, passphrase []byte) (*EncryptedKeyStore, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	ks := &EncryptedKeyStore{
		dataDir:  dataDir,
		saltFile: filepath.Join(dataDir, ".salt"),
	}

	salt, err := ks.loadOrGenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize salt: %w", err)
	}

	derivedKey := pbkdf2.Key(passphrase, salt, PBKDF2Iterations, 32, sha256.New)
	copy(ks.encryptionKey[:], derivedKey)

	ZeroBytes(derivedKey)
	ZeroBytes(passphrase)

	return ks, nil
}

// loadOrGenerateSalt loads existing salt or generates a new one
func (ks *EncryptedKeyStore) loadOrGenerateSalt() ([]byte, error) {
	data, err := os.ReadFile(ks.saltFile)
	if err == nil {
		if len(data) != SaltSize {
			return nil, fmt.Errorf("invalid salt file size: got %d, want %d", len(data), SaltSize)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read salt file: %w", err)
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := os.WriteFile(ks.saltFile, salt, 0o600); err != nil {
		return nil, fmt.Errorf("failed to save salt: %w", err)
	}
	return salt, nil
}

func (ks *EncryptedKeyStore) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Write encrypts plaintext and atomically replaces the record called name.
// Format: [version:2][nonce:12][ciphertext+tag:N]
func (ks *EncryptedKeyStore) Write(name string, plaintext []byte) error {
	gcm, err := ks.aead()
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	output := make([]byte, 2, 2+len(nonce)+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(output, EncryptionVersion)
	output = append(output, nonce...)
	output = gcm.Seal(output, nonce, plaintext, []byte(name))

	tmpFile := filepath.Join(ks.dataDir, name+".tmp")
	finalFile := filepath.Join(ks.dataDir, name)

	if err := os.WriteFile(tmpFile, output, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpFile, finalFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Read decrypts the record called name. A missing record yields ErrRecordNotFound.
func (ks *EncryptedKeyStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(ks.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, name)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	gcm, err := ks.aead()
	if err != nil {
		return nil, err
	}

	headerSize := 2 + gcm.NonceSize()
	if len(data) < headerSize+gcm.Overhead() {
		return nil, fmt.Errorf("record too short: %d bytes", len(data))
	}

	version := binary.BigEndian.Uint16(data[0:2])
	if version != EncryptionVersion {
		return nil, fmt.Errorf("unsupported encryption version: %d (expected %d)", version, EncryptionVersion)
	}

	plaintext, err := gcm.Open(nil, data[2:headerSize], data[headerSize:], []byte(name))
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or corrupted data): %w", err)
	}
	return plaintext, nil
}

// Delete overwrites the record with zeros and removes it. Deleting a missing record is not an error.
func (ks *EncryptedKeyStore) Delete(name string) error {
	filePath := filepath.Join(ks.dataDir, name)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// Best-effort overwrite before removal.
	_ = os.WriteFile(filePath, make([]byte, info.Size()), 0o600)
	return os.Remove(filePath)
}

// Close securely wipes the encryption key from memory.
// After calling Close, the EncryptedKeyStore should not be used.
func (ks *EncryptedKeyStore) Close() error {
	ZeroBytes(ks.encryptionKey[:])
	return nil
}
