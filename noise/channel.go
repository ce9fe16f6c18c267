package noise

import (
	"errors"

	"github.com/flynn/noise"
	"github.com/google/uuid"
	"github.com/opd-ai/hwwnoise/crypto"
)

var (
	// ErrWrongState indicates an operation that is not valid in the channel's current state.
	ErrWrongState = errors.New("noise: wrong channel state")
	// ErrNoise covers every handshake and AEAD failure. It carries no detail on purpose.
	ErrNoise = errors.New("noise: protocol failure")
	// ErrPairingVerificationRequired indicates application data before the pairing was verified.
	ErrPairingVerificationRequired = errors.New("noise: pairing verification required")
)

// State names the variant a Channel is in.
type State uint8

const (
	// StateNothing means no session exists.
	StateNothing State = iota
	// StateInitialized means a handshake is in progress.
	StateInitialized
	// StateReady means the handshake completed and cipher states exist.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNothing:
		return "nothing"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// HandshakeResult is the outcome of feeding one handshake message to the channel: either the
// next message to send back, or Done once the handshake completed.
type HandshakeResult struct {
	Response []byte
	Done     bool
}

type channelState interface {
	state() State
}

type nothing struct{}

func (nothing) state() State { return StateNothing }

type initialized struct {
	xx *xxState
}

func (*initialized) state() State { return StateInitialized }

type ready struct {
	pairingVerificationRequired bool
	handshakeHash               HandshakeHash
	remoteStatic                crypto.PublicKey
	send                        *noise.CipherState
	receive                     *noise.CipherState
	sessionID                   string
}

func (*ready) state() State { return StateReady }

// Channel is the device side of the secure channel. It owns the handshake and both cipher
// states; exactly one session can exist at a time. A Channel is not safe for concurrent use:
// it belongs to the device's single processing task.
type Channel struct {
	random  crypto.Random32
	current channelState
}

// NewChannel returns a channel in StateNothing. Ephemeral keys are drawn from random; nil
// selects crypto.SystemRandom.
func NewChannel(random crypto.Random32) *Channel {
	if random == nil {
		random = crypto.SystemRandom{}
	}
	return &Channel{random: random, current: nothing{}}
}

// State reports the current variant.
func (c *Channel) State() State {
	return c.current.state()
}

// Reset drops any handshake or session.
func (c *Channel) Reset() {
	c.transition(nothing{})
}

func (c *Channel) transition(next channelState) {
	if pending, ok := c.current.(*initialized); ok {
		pending.xx.wipe()
	}
	c.current = next
}

// Init starts a new responder handshake with the device's static key, discarding whatever
// session existed before. The channel keeps its own copy of the key.
func (c *Channel) Init(static *crypto.PrivateKey) error {
	log := crypto.NewPackageLogger("noise", "Init")

	xx, err := newXXState(static, Responder, c.random)
	if err != nil {
		c.transition(nothing{})
		log.WithError(err, "new_handshake").Error("Failed to initialize handshake")
		return err
	}
	c.transition(&initialized{xx: xx})

	log.WithFields(crypto.SecureFieldHash(xx.staticPub[:], "local_static")).
		Debug("Handshake initialized")
	return nil
}

// Handshake feeds one message from the initiator into the handshake. While the device still
// has to answer, the result carries the reply. Once the third message is read the channel moves
// to StateReady with pairing verification required; whether the peer is already trusted is for
// the caller to decide.
//
// Any failure aborts the handshake attempt and returns the channel to StateNothing.
func (c *Channel) Handshake(msg []byte) (HandshakeResult, error) {
	pending, ok := c.current.(*initialized)
	if !ok {
		return HandshakeResult{}, ErrWrongState
	}
	log := crypto.NewPackageLogger("noise", "Handshake")

	payload, cs1, cs2, err := pending.xx.hs.ReadMessage(nil, msg)
	if err != nil {
		log.WithError(err, "read_message").Warn("Handshake message rejected")
		c.transition(nothing{})
		return HandshakeResult{}, ErrNoise
	}

	if cs1 != nil && cs2 != nil {
		remote, err := crypto.ParsePublicKey(pending.xx.hs.PeerStatic())
		if err != nil {
			log.WithError(err, "peer_static").Warn("Peer static key unavailable")
			c.transition(nothing{})
			return HandshakeResult{}, ErrNoise
		}

		send, receive := splitCiphers(Responder, cs1, cs2)
		r := &ready{
			pairingVerificationRequired: true,
			remoteStatic:                remote,
			send:                        send,
			receive:                     receive,
			sessionID:                   uuid.NewString(),
		}
		copy(r.handshakeHash[:], pending.xx.hs.ChannelBinding())
		c.transition(r)

		log.WithFields(crypto.SecureFieldHash(remote[:], "remote_static")).
			WithField("session_id", r.sessionID).
			Info("Handshake complete")
		return HandshakeResult{Done: true}, nil
	}

	// The responder's own writes never complete XX; only the read of message three does.
	response, _, _, err := pending.xx.hs.WriteMessage(nil, payload)
	if err != nil {
		log.WithError(err, "write_message").Warn("Handshake response failed")
		c.transition(nothing{})
		return HandshakeResult{}, ErrNoise
	}
	return HandshakeResult{Response: response}, nil
}

func (c *Channel) readyState() (*ready, error) {
	r, ok := c.current.(*ready)
	if !ok {
		return nil, ErrWrongState
	}
	return r, nil
}

// Encrypt seals an application message for the host.
func (c *Channel) Encrypt(msg []byte) ([]byte, error) {
	r, err := c.readyState()
	if err != nil {
		return nil, err
	}
	if r.pairingVerificationRequired {
		return nil, ErrPairingVerificationRequired
	}
	out, err := r.send.Encrypt(nil, nil, msg)
	if err != nil {
		return nil, ErrNoise
	}
	return out, nil
}

// Decrypt opens an application message from the host. A failed message still consumes its
// nonce, so the host's next message decrypts and the failed one can never be retried.
func (c *Channel) Decrypt(msg []byte) ([]byte, error) {
	r, err := c.readyState()
	if err != nil {
		return nil, err
	}
	if r.pairingVerificationRequired {
		return nil, ErrPairingVerificationRequired
	}
	out, err := r.receive.Decrypt(nil, nil, msg)
	if err != nil {
		r.receive.SetNonce(r.receive.Nonce() + 1)
		crypto.NewPackageLogger("noise", "Decrypt").
			WithField("session_id", r.sessionID).
			Debug("Message authentication failed")
		return nil, ErrNoise
	}
	return out, nil
}

// HandshakeHash returns the transcript hash of the session.
func (c *Channel) HandshakeHash() (HandshakeHash, error) {
	r, err := c.readyState()
	if err != nil {
		return HandshakeHash{}, err
	}
	return r.handshakeHash, nil
}

// RemoteStaticPublicKey returns the host's authenticated static key.
func (c *Channel) RemoteStaticPublicKey() (crypto.PublicKey, error) {
	r, err := c.readyState()
	if err != nil {
		return crypto.PublicKey{}, err
	}
	return r.remoteStatic, nil
}

// PairingVerificationRequired reports whether application data is still gated.
func (c *Channel) PairingVerificationRequired() (bool, error) {
	r, err := c.readyState()
	if err != nil {
		return false, err
	}
	return r.pairingVerificationRequired, nil
}

// SetPairingVerified lifts the pairing gate.
func (c *Channel) SetPairingVerified() error {
	r, err := c.readyState()
	if err != nil {
		return err
	}
	r.pairingVerificationRequired = false
	return nil
}

// SessionID identifies the current session in logs. It is empty unless the channel is ready.
func (c *Channel) SessionID() string {
	if r, ok := c.current.(*ready); ok {
		return r.sessionID
	}
	return ""
}
