package sim

import (
	"errors"
	"fmt"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/hww"
	"github.com/opd-ai/hwwnoise/noise"
	"github.com/opd-ai/hwwnoise/pairing"
)

var (
	// ErrDeviceFailure indicates the device answered with the failure status.
	ErrDeviceFailure = errors.New("sim: device reported failure")
	// ErrNotConnected indicates Send before a completed handshake.
	ErrNotConnected = errors.New("sim: no session")
	// ErrNotPaired indicates the device still requires pairing verification.
	ErrNotPaired = errors.New("sim: pairing not verified")
)

// Host plays the host application against a Simulator.
type Host struct {
	sim      *Simulator
	key      *crypto.PrivateKey
	session  *noise.HostSession
	hash     noise.HandshakeHash
	verified bool
}

// NewHost returns a host using the simulator's persisted host key.
func NewHost(s *Simulator) (*Host, error) {
	key, err := s.HostKey()
	if err != nil {
		return nil, fmt.Errorf("host key: %w", err)
	}
	return &Host{sim: s, key: key}, nil
}

func (h *Host) call(req []byte, tick func()) ([]byte, error) {
	resp, err := h.sim.Transact(req, tick)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 || resp[0] != hww.StatusSuccess {
		return nil, ErrDeviceFailure
	}
	return resp[1:], nil
}

// Connect runs a handshake and reports whether the device asks for pairing verification.
func (h *Host) Connect() (bool, error) {
	h.session, h.verified = nil, false

	if _, err := h.call([]byte{hww.OpHandshakeInit}, nil); err != nil {
		return false, fmt.Errorf("init: %w", err)
	}

	hs, err := noise.NewXXHandshake(h.key, noise.Initiator, nil)
	if err != nil {
		return false, err
	}
	defer hs.Wipe()

	msg1, _, err := hs.WriteMessage(nil)
	if err != nil {
		return false, err
	}
	msg2, err := h.call(append([]byte{hww.OpHandshakeMessage}, msg1...), nil)
	if err != nil {
		return false, fmt.Errorf("handshake message 1: %w", err)
	}
	if _, _, err := hs.ReadMessage(msg2); err != nil {
		return false, err
	}
	msg3, _, err := hs.WriteMessage(nil)
	if err != nil {
		return false, err
	}
	resp, err := h.call(append([]byte{hww.OpHandshakeMessage}, msg3...), nil)
	if err != nil {
		return false, fmt.Errorf("handshake message 3: %w", err)
	}
	if len(resp) != 1 {
		return false, fmt.Errorf("unexpected handshake reply of %d bytes", len(resp))
	}

	if h.session, err = hs.Session(); err != nil {
		return false, err
	}
	if h.hash, err = hs.HandshakeHash(); err != nil {
		return false, err
	}
	h.verified = resp[0] == hww.VerificationNotRequired
	return !h.verified, nil
}

// Code is the pairing code the host shows for the current session.
func (h *Host) Code() string {
	return pairing.Code(h.hash)
}

// Verify asks the device to confirm the pairing code.
func (h *Host) Verify(tick func()) error {
	if h.session == nil {
		return ErrNotConnected
	}
	if _, err := h.call([]byte{hww.OpVerifyPairing}, tick); err != nil {
		h.session = nil
		return fmt.Errorf("verify: %w", err)
	}
	h.verified = true
	return nil
}

// Send encrypts msg, delivers it and returns the decrypted reply.
func (h *Host) Send(msg []byte) ([]byte, error) {
	if h.session == nil {
		return nil, ErrNotConnected
	}
	if !h.verified {
		return nil, ErrNotPaired
	}
	ct, err := h.session.Encrypt(msg)
	if err != nil {
		return nil, err
	}
	resp, err := h.call(append([]byte{hww.OpNoiseMessage}, ct...), nil)
	if err != nil {
		return nil, err
	}
	return h.session.Decrypt(resp)
}

// PublicKey returns the host's static public key.
func (h *Host) PublicKey() (crypto.PublicKey, error) {
	return h.key.PublicKey()
}

// Close wipes the host key.
func (h *Host) Close() {
	h.key.Wipe()
}
