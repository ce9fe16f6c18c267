package hww

import (
	"errors"
	"fmt"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/executor"
	"github.com/opd-ai/hwwnoise/limits"
	"github.com/opd-ai/hwwnoise/noise"
	"github.com/opd-ai/hwwnoise/pairing"
	"github.com/opd-ai/hwwnoise/store"
)

// Op codes, the first byte of every request.
const (
	OpHandshakeInit    byte = 'h'
	OpHandshakeMessage byte = 'H'
	OpVerifyPairing    byte = 'v'
	OpNoiseMessage     byte = 'n'
)

// Status bytes, the first byte of every response.
const (
	StatusSuccess byte = 0
	StatusFailure byte = 1
)

// Payload of the successful response to the last handshake message.
const (
	VerificationNotRequired byte = 0
	VerificationRequired    byte = 1
)

var (
	// ErrUnknownOp indicates a request that does not match any operation.
	ErrUnknownOp = errors.New("hww: unknown op")
	// ErrPairingRejected indicates the user declined the pairing code.
	ErrPairingRejected = errors.New("hww: pairing rejected")
)

// Device is the protocol endpoint of one device. It owns the secure channel and routes every
// request through it. A Device belongs to a single task and is not safe for concurrent use.
type Device struct {
	channel   *noise.Channel
	store     store.Store
	confirmer pairing.Confirmer
	processor Processor
	options   *Options
}

// NewDevice wires a device. Nil options select NewOptions().
func NewDevice(st store.Store, confirmer pairing.Confirmer, processor Processor, options *Options) (*Device, error) {
	if st == nil || confirmer == nil || processor == nil {
		return nil, errors.New("hww: store, confirmer and processor are required")
	}
	if options == nil {
		options = NewOptions()
	}
	if options.MaxRequestSize <= 0 || options.MaxRequestSize > limits.MaxUSBMessage {
		return nil, fmt.Errorf("hww: max request size %d out of range", options.MaxRequestSize)
	}
	return &Device{
		channel:   noise.NewChannel(options.Random),
		store:     st,
		confirmer: confirmer,
		processor: processor,
		options:   options,
	}, nil
}

// Channel exposes the secure channel, mostly for inspection.
func (d *Device) Channel() *noise.Channel {
	return d.channel
}

// outcome is the result of one operation before framing.
type outcome struct {
	payload []byte
	err     error
}

func done(payload []byte, err error) executor.Future[outcome] {
	return executor.Ready(outcome{payload: payload, err: err})
}

// Process handles one request and returns its framed response: StatusSuccess followed by the
// operation's payload, or the single byte StatusFailure. The host never learns why a request
// failed.
func (d *Device) Process(request []byte) executor.Future[[]byte] {
	return executor.Map(d.dispatch(request), func(o outcome) []byte {
		if o.err != nil {
			crypto.NewPackageLogger("hww", "Process").
				WithError(o.err, opName(request)).
				WithField("session_id", d.channel.SessionID()).
				Warn("Request failed")
			return []byte{StatusFailure}
		}
		resp := make([]byte, 0, 1+len(o.payload))
		resp = append(resp, StatusSuccess)
		return append(resp, o.payload...)
	})
}

func (d *Device) dispatch(request []byte) executor.Future[outcome] {
	if err := limits.ValidateMessageSize(request, d.options.MaxRequestSize); err != nil {
		return done(nil, err)
	}

	op, rest := request[0], request[1:]
	switch {
	case op == OpHandshakeInit && len(rest) == 0:
		return done(nil, d.initHandshake())
	case op == OpHandshakeMessage:
		return done(d.handshake(rest))
	case op == OpVerifyPairing && len(rest) == 0:
		return d.verifyPairing()
	case op == OpNoiseMessage:
		return d.noiseMessage(rest)
	default:
		// Includes 'u' and 'a': this device has no unlock workflow and no attestation key.
		return done(nil, fmt.Errorf("%w: %q with %d payload bytes", ErrUnknownOp, op, len(rest)))
	}
}

func (d *Device) initHandshake() error {
	key, err := d.store.StaticPrivateKey()
	if err != nil {
		return fmt.Errorf("load static key: %w", err)
	}
	defer key.Wipe()
	return d.channel.Init(key)
}

func (d *Device) handshake(msg []byte) ([]byte, error) {
	res, err := d.channel.Handshake(msg)
	if err != nil {
		return nil, err
	}
	if !res.Done {
		return res.Response, nil
	}

	remote, err := d.channel.RemoteStaticPublicKey()
	if err != nil {
		return nil, err
	}
	log := crypto.NewPackageLogger("hww", "handshake").
		WithFields(crypto.SecureFieldHash(remote[:], "remote_static")).
		WithField("session_id", d.channel.SessionID())

	if d.store.ContainsTrustedPeer(remote) {
		if err := d.channel.SetPairingVerified(); err != nil {
			return nil, err
		}
		log.Info("Known host, pairing verification skipped")
		return []byte{VerificationNotRequired}, nil
	}
	log.Info("New host, pairing verification required")
	return []byte{VerificationRequired}, nil
}

func (d *Device) verifyPairing() executor.Future[outcome] {
	hash, err := d.channel.HandshakeHash()
	if err != nil {
		return done(nil, err)
	}
	return executor.Then(d.confirmer.ConfirmPairing(hash), func(accepted bool) executor.Future[outcome] {
		return done(nil, d.finishPairing(accepted))
	})
}

func (d *Device) finishPairing(accepted bool) error {
	log := crypto.NewPackageLogger("hww", "verifyPairing").
		WithField("session_id", d.channel.SessionID())

	if !accepted {
		d.channel.Reset()
		log.WithField("status", "rejected").Info("Pairing rejected by user")
		return ErrPairingRejected
	}

	if err := d.channel.SetPairingVerified(); err != nil {
		return err
	}
	remote, err := d.channel.RemoteStaticPublicKey()
	if err != nil {
		return err
	}
	// Communication works without the stored key; the host is asked to verify again next time.
	if err := d.store.AddTrustedPeer(remote); err != nil {
		log.WithError(err, "add_trusted_peer").Warn("Failed to remember paired host")
	}
	log.WithField("status", "accepted").Info("Pairing confirmed")
	return nil
}

func (d *Device) noiseMessage(ciphertext []byte) executor.Future[outcome] {
	plaintext, err := d.channel.Decrypt(ciphertext)
	if err != nil {
		return done(nil, err)
	}
	return executor.Then(d.processor.Process(plaintext), func(reply []byte) executor.Future[outcome] {
		if err := limits.ValidatePlaintextResponse(reply); err != nil {
			return done(nil, err)
		}
		return done(d.channel.Encrypt(reply))
	})
}

func opName(request []byte) string {
	if len(request) == 0 {
		return "empty"
	}
	switch request[0] {
	case OpHandshakeInit:
		return "handshake_init"
	case OpHandshakeMessage:
		return "handshake_message"
	case OpVerifyPairing:
		return "verify_pairing"
	case OpNoiseMessage:
		return "noise_message"
	default:
		return "unknown"
	}
}
