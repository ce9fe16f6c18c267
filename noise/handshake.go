package noise

import (
	"errors"
	"fmt"

	"github.com/flynn/noise"
	"github.com/opd-ai/hwwnoise/crypto"
)

// ProtocolName is the full Noise protocol name. It is also mixed in as the prologue, so a
// peer configured for anything else fails the handshake.
const ProtocolName = "Noise_XX_25519_ChaChaPoly_SHA256"

var (
	// ErrHandshakeNotComplete indicates handshake is still in progress
	ErrHandshakeNotComplete = errors.New("handshake not complete")
	// ErrHandshakeComplete indicates handshake is already complete
	ErrHandshakeComplete = errors.New("handshake already complete")
)

// HandshakeRole defines whether we're initiating or responding to handshake
type HandshakeRole uint8

const (
	// Initiator starts the handshake. The host application is always the initiator.
	Initiator HandshakeRole = iota
	// Responder answers the handshake. The device is always the responder.
	Responder
)

// HandshakeHash is the transcript hash of a completed handshake. Both sides derive the same
// value; the device shows it to the user during pairing verification.
type HandshakeHash [32]byte

// cipherSuite returns the suite with the device's own X25519 so ephemeral keys come from the
// injected random source.
func cipherSuite() noise.CipherSuite {
	return noise.NewCipherSuite(crypto.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)
}

// xxState is a fresh XX handshake plus the private key copy it references. The copy is owned
// by whoever holds the handshake and wiped when the handshake is discarded.
type xxState struct {
	hs         *noise.HandshakeState
	staticPriv []byte
	staticPub  crypto.PublicKey
}

func newXXState(static *crypto.PrivateKey, role HandshakeRole, random crypto.Random32) (*xxState, error) {
	if static == nil || static.IsZero() {
		return nil, crypto.ErrZeroKey
	}
	pub, err := static.PublicKey()
	if err != nil {
		return nil, err
	}

	priv := static.Bytes()
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite(),
		Random:        crypto.NewReader(random),
		Pattern:       noise.HandshakeXX,
		Initiator:     role == Initiator,
		Prologue:      []byte(ProtocolName),
		StaticKeypair: noise.DHKey{Private: priv, Public: pub[:]},
	})
	if err != nil {
		crypto.ZeroBytes(priv)
		return nil, fmt.Errorf("failed to create XX handshake state: %w", err)
	}
	return &xxState{hs: hs, staticPriv: priv, staticPub: pub}, nil
}

func (s *xxState) wipe() {
	crypto.ZeroBytes(s.staticPriv)
}

// splitCiphers orders the two cipher states returned by flynn/noise (initiator-to-responder
// first) into send/receive for the given role.
func splitCiphers(role HandshakeRole, cs1, cs2 *noise.CipherState) (send, recv *noise.CipherState) {
	if role == Initiator {
		return cs1, cs2
	}
	return cs2, cs1
}

// XXHandshake drives one side of a Noise XX handshake directly, message by message. The host
// side of the device protocol uses it as the initiator.
type XXHandshake struct {
	role       HandshakeRole
	state      *xxState
	sendCipher *noise.CipherState
	recvCipher *noise.CipherState
	hash       HandshakeHash
	complete   bool
}

// NewXXHandshake creates a new XX handshake. The static key is copied; the caller keeps
// ownership of static. Call Wipe once the handshake (or the session built from it) is done.
func NewXXHandshake(static *crypto.PrivateKey, role HandshakeRole, random crypto.Random32) (*XXHandshake, error) {
	if random == nil {
		random = crypto.SystemRandom{}
	}
	st, err := newXXState(static, role, random)
	if err != nil {
		return nil, err
	}
	return &XXHandshake{role: role, state: st}, nil
}

// WriteMessage writes the next handshake message carrying payload.
func (xx *XXHandshake) WriteMessage(payload []byte) ([]byte, bool, error) {
	if xx.complete {
		return nil, false, ErrHandshakeComplete
	}

	message, cs1, cs2, err := xx.state.hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, false, fmt.Errorf("XX handshake write failed: %w", err)
	}
	if cs1 != nil && cs2 != nil {
		xx.finish(cs1, cs2)
	}
	return message, xx.complete, nil
}

// ReadMessage reads a handshake message from the peer and returns its payload.
func (xx *XXHandshake) ReadMessage(message []byte) ([]byte, bool, error) {
	if xx.complete {
		return nil, false, ErrHandshakeComplete
	}

	payload, cs1, cs2, err := xx.state.hs.ReadMessage(nil, message)
	if err != nil {
		return nil, false, fmt.Errorf("XX handshake read failed: %w", err)
	}
	if cs1 != nil && cs2 != nil {
		xx.finish(cs1, cs2)
	}
	return payload, xx.complete, nil
}

func (xx *XXHandshake) finish(cs1, cs2 *noise.CipherState) {
	xx.sendCipher, xx.recvCipher = splitCiphers(xx.role, cs1, cs2)
	copy(xx.hash[:], xx.state.hs.ChannelBinding())
	xx.complete = true
}

// IsComplete returns whether the XX handshake is complete.
func (xx *XXHandshake) IsComplete() bool {
	return xx.complete
}

// GetCipherStates returns the send and receive cipher states.
func (xx *XXHandshake) GetCipherStates() (*noise.CipherState, *noise.CipherState, error) {
	if !xx.complete {
		return nil, nil, ErrHandshakeNotComplete
	}
	return xx.sendCipher, xx.recvCipher, nil
}

// GetRemoteStaticKey returns the peer's authenticated static key.
func (xx *XXHandshake) GetRemoteStaticKey() (crypto.PublicKey, error) {
	if !xx.complete {
		return crypto.PublicKey{}, ErrHandshakeNotComplete
	}
	return crypto.ParsePublicKey(xx.state.hs.PeerStatic())
}

// GetLocalStaticKey returns our static public key.
func (xx *XXHandshake) GetLocalStaticKey() crypto.PublicKey {
	return xx.state.staticPub
}

// HandshakeHash returns the transcript hash of the completed handshake.
func (xx *XXHandshake) HandshakeHash() (HandshakeHash, error) {
	if !xx.complete {
		return HandshakeHash{}, ErrHandshakeNotComplete
	}
	return xx.hash, nil
}

// Session returns the transport session of the completed handshake.
func (xx *XXHandshake) Session() (*HostSession, error) {
	if !xx.complete {
		return nil, ErrHandshakeNotComplete
	}
	return &HostSession{send: xx.sendCipher, recv: xx.recvCipher}, nil
}

// Wipe zeroes the static key copy held by the handshake.
func (xx *XXHandshake) Wipe() {
	xx.state.wipe()
}

// HostSession is the transport phase of a completed XXHandshake. It has no pairing gate:
// the host decides on its own whether to trust the device.
type HostSession struct {
	send *noise.CipherState
	recv *noise.CipherState
}

// Encrypt seals one message.
func (s *HostSession) Encrypt(plaintext []byte) ([]byte, error) {
	out, err := s.send.Encrypt(nil, nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}
	return out, nil
}

// Decrypt opens one message.
func (s *HostSession) Decrypt(ciphertext []byte) ([]byte, error) {
	out, err := s.recv.Decrypt(nil, nil, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt message: %w", err)
	}
	return out, nil
}
