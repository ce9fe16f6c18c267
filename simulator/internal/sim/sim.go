package sim

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/hww"
	"github.com/opd-ai/hwwnoise/limits"
	"github.com/opd-ai/hwwnoise/pairing"
	"github.com/opd-ai/hwwnoise/store"
	"github.com/opd-ai/hwwnoise/usb"
)

// ErrTimeout indicates the device did not answer within the configured number of spins.
var ErrTimeout = errors.New("sim: device did not respond")

// trustStore is what the simulator needs from the device store beyond the protocol.
type trustStore interface {
	store.Store
	TrustedPeers() []crypto.PublicKey
	ResetTrust() error
	Close() error
}

// Simulator runs a device in process: store, pairing dialog, dispatcher and USB multiplexer.
type Simulator struct {
	cfg    Config
	store  trustStore
	hostKS trustStore
	prompt *pairing.Prompt
	device *hww.Device
	mux    *usb.Multiplexer
}

// EchoProcessor answers every application request with "echo: " and the request.
var EchoProcessor = hww.ProcessorFunc(func(req []byte) []byte {
	return append([]byte("echo: "), req...)
})

// New builds a simulator. onCode is called with every pairing code the device displays; it
// may answer through Accept and Reject.
func New(cfg Config, onCode func(code string)) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{cfg: cfg}
	if err := s.openStores(); err != nil {
		return nil, err
	}

	s.prompt = pairing.NewPrompt(func(code string) {
		if onCode != nil {
			onCode(code)
		}
		if cfg.AutoConfirm {
			s.prompt.Accept()
		}
	})

	dev, err := hww.NewDevice(s.store, s.prompt, EchoProcessor, hww.NewOptions())
	if err != nil {
		s.Close()
		return nil, err
	}
	s.device = dev
	s.mux = usb.NewMultiplexer(dev.Process)
	return s, nil
}

func (s *Simulator) openStores() error {
	if s.cfg.DataDir == "" {
		s.store = store.NewMemoryStore(nil)
		s.hostKS = store.NewMemoryStore(nil)
		return nil
	}

	dev, err := store.OpenFileStore(filepath.Join(s.cfg.DataDir, "device"), []byte(s.cfg.Passphrase), nil)
	if err != nil {
		return fmt.Errorf("open device store: %w", err)
	}
	host, err := store.OpenFileStore(filepath.Join(s.cfg.DataDir, "host"), []byte(s.cfg.Passphrase), nil)
	if err != nil {
		dev.Close()
		return fmt.Errorf("open host store: %w", err)
	}
	s.store, s.hostKS = dev, host
	return nil
}

// Accept confirms the pairing code currently shown.
func (s *Simulator) Accept() { s.prompt.Accept() }

// Reject declines the pairing code currently shown.
func (s *Simulator) Reject() { s.prompt.Reject() }

// TrustedPeers lists the hosts the device remembers.
func (s *Simulator) TrustedPeers() []crypto.PublicKey { return s.store.TrustedPeers() }

// ResetTrust makes the device forget every host.
func (s *Simulator) ResetTrust() error { return s.store.ResetTrust() }

// Device returns the simulated dispatcher.
func (s *Simulator) Device() *hww.Device { return s.device }

// Transact sends one request over the simulated USB link and spins the device until the
// response is ready. Between spins, tick is called if not nil; it is where an interactive
// user gets to answer.
func (s *Simulator) Transact(req []byte, tick func()) ([]byte, error) {
	if err := s.mux.Spawn(req); err != nil {
		return nil, err
	}

	buf := make([]byte, limits.MaxUSBMessage)
	for i := 0; i < s.cfg.MaxSpins; i++ {
		s.mux.Spin()
		n, err := s.mux.CopyResponse(buf)
		if err == nil {
			return append([]byte(nil), buf[:n]...), nil
		}
		if !errors.Is(err, usb.ErrNotReady) {
			return nil, err
		}
		if tick != nil {
			tick()
		}
	}

	s.mux.Cancel()
	return nil, ErrTimeout
}

// HostKey returns the host's static key, generated on first use.
func (s *Simulator) HostKey() (*crypto.PrivateKey, error) {
	return s.hostKS.StaticPrivateKey()
}

// Close releases both stores.
func (s *Simulator) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.hostKS != nil {
		errs = append(errs, s.hostKS.Close())
	}
	return errors.Join(errs...)
}
