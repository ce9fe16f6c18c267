package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peer(b byte) crypto.PublicKey {
	var k crypto.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func TestTrustListBounded(t *testing.T) {
	var l trustList
	for i := 1; i <= MaxTrustedPeers+2; i++ {
		var changed bool
		l, changed = l.add(peer(byte(i)))
		assert.True(t, changed)
	}

	require.Len(t, l, MaxTrustedPeers)
	assert.False(t, l.contains(peer(1)), "oldest entries are evicted first")
	assert.False(t, l.contains(peer(2)))
	for i := 3; i <= MaxTrustedPeers+2; i++ {
		assert.True(t, l.contains(peer(byte(i))))
	}
	assert.Equal(t, peer(3), l[0])
}

func TestTrustListIdempotent(t *testing.T) {
	var l trustList
	l, _ = l.add(peer(1))
	l, changed := l.add(peer(1))
	assert.False(t, changed)
	assert.Len(t, l, 1)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore(nil)
	defer m.Close()

	k1, err := m.StaticPrivateKey()
	require.NoError(t, err)
	k2, err := m.StaticPrivateKey()
	require.NoError(t, err)
	assert.Equal(t, k1.Bytes(), k2.Bytes())
	k1.Wipe()
	k3, err := m.StaticPrivateKey()
	require.NoError(t, err)
	assert.False(t, k3.IsZero(), "the caller's copy is independent")

	assert.False(t, m.ContainsTrustedPeer(peer(1)))
	require.NoError(t, m.AddTrustedPeer(peer(1)))
	require.NoError(t, m.AddTrustedPeer(peer(1)))
	assert.True(t, m.ContainsTrustedPeer(peer(1)))
	assert.Len(t, m.TrustedPeers(), 1)

	require.NoError(t, m.ResetTrust())
	assert.False(t, m.ContainsTrustedPeer(peer(1)))
}

func TestMemoryStoreInjectedErrors(t *testing.T) {
	m := NewMemoryStore(nil)
	boom := errors.New("flash write failed")

	m.AddErr = boom
	assert.ErrorIs(t, m.AddTrustedPeer(peer(1)), boom)
	assert.False(t, m.ContainsTrustedPeer(peer(1)))

	m.StaticErr = boom
	_, err := m.StaticPrivateKey()
	assert.ErrorIs(t, err, boom)

	m.StaticErr = nil
	require.NoError(t, m.Close())
	_, err = m.StaticPrivateKey()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileStorePersists(t *testing.T) {
	dir := t.TempDir()

	fs, err := OpenFileStore(dir, []byte("passphrase"), nil)
	require.NoError(t, err)

	key, err := fs.StaticPrivateKey()
	require.NoError(t, err)
	first := key.Bytes()
	key.Wipe()

	require.NoError(t, fs.AddTrustedPeer(peer(1)))
	require.NoError(t, fs.AddTrustedPeer(peer(2)))
	require.NoError(t, fs.Close())

	fs, err = OpenFileStore(dir, []byte("passphrase"), nil)
	require.NoError(t, err)
	defer fs.Close()

	key, err = fs.StaticPrivateKey()
	require.NoError(t, err)
	defer key.Wipe()
	assert.Equal(t, first, key.Bytes(), "static key is generated once")

	assert.True(t, fs.ContainsTrustedPeer(peer(1)))
	assert.True(t, fs.ContainsTrustedPeer(peer(2)))
	assert.Equal(t, []crypto.PublicKey{peer(1), peer(2)}, fs.TrustedPeers())
}

func TestFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()

	fs, err := OpenFileStore(dir, []byte("right"), nil)
	require.NoError(t, err)
	require.NoError(t, fs.AddTrustedPeer(peer(1)))
	require.NoError(t, fs.Close())

	_, err = OpenFileStore(dir, []byte("wrong"), nil)
	assert.Error(t, err)
}

func TestFileStoreDeterministicKey(t *testing.T) {
	random := crypto.RandomFunc(func(out *[32]byte) {
		for i := range out {
			out[i] = 0x42
		}
	})
	fs, err := OpenFileStore(t.TempDir(), []byte("pw"), random)
	require.NoError(t, err)
	defer fs.Close()

	key, err := fs.StaticPrivateKey()
	require.NoError(t, err)
	defer key.Wipe()

	expected := crypto.GenerateKey(random)
	defer expected.Wipe()
	assert.Equal(t, expected.Bytes(), key.Bytes())
}

func TestFileStoreResetTrust(t *testing.T) {
	dir := t.TempDir()
	fs, err := OpenFileStore(dir, []byte("pw"), nil)
	require.NoError(t, err)

	require.NoError(t, fs.AddTrustedPeer(peer(7)))
	_, err = os.Stat(filepath.Join(dir, trustedPeersRecord))
	require.NoError(t, err)

	require.NoError(t, fs.ResetTrust())
	assert.False(t, fs.ContainsTrustedPeer(peer(7)))
	assert.Empty(t, fs.TrustedPeers())
	require.NoError(t, fs.Close())

	fs, err = OpenFileStore(dir, []byte("pw"), nil)
	require.NoError(t, err)
	defer fs.Close()
	assert.False(t, fs.ContainsTrustedPeer(peer(7)))
}

func TestFileStoreClosed(t *testing.T) {
	fs, err := OpenFileStore(t.TempDir(), []byte("pw"), nil)
	require.NoError(t, err)
	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())

	_, err = fs.StaticPrivateKey()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, fs.AddTrustedPeer(peer(1)), ErrClosed)
	assert.ErrorIs(t, fs.ResetTrust(), ErrClosed)
	assert.False(t, fs.ContainsTrustedPeer(peer(1)))
}

func TestFileStoreBoundedOnDisk(t *testing.T) {
	dir := t.TempDir()
	fs, err := OpenFileStore(dir, []byte("pw"), nil)
	require.NoError(t, err)
	for i := 1; i <= MaxTrustedPeers+1; i++ {
		require.NoError(t, fs.AddTrustedPeer(peer(byte(i))))
	}
	require.NoError(t, fs.Close())

	fs, err = OpenFileStore(dir, []byte("pw"), nil)
	require.NoError(t, err)
	defer fs.Close()
	assert.Len(t, fs.TrustedPeers(), MaxTrustedPeers)
	assert.False(t, fs.ContainsTrustedPeer(peer(1)))
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
