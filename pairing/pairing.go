package pairing

import (
	"encoding/base32"
	"strings"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/executor"
	"github.com/opd-ai/hwwnoise/noise"
)

// Confirmer asks the user whether the pairing code shown for hash matches the one on the host.
// The returned future may stay pending for any number of polls while the user decides.
type Confirmer interface {
	ConfirmPairing(hash noise.HandshakeHash) executor.Future[bool]
}

// ConfirmFunc adapts a synchronous decision to Confirmer.
type ConfirmFunc func(hash noise.HandshakeHash) bool

// ConfirmPairing calls f and returns its answer as a completed future.
func (f ConfirmFunc) ConfirmPairing(hash noise.HandshakeHash) executor.Future[bool] {
	return executor.Ready(f(hash))
}

// codeLength is the number of base32 characters shown to the user.
const codeLength = 20

// Code formats hash as the pairing code the device displays: the first twenty characters of
// its base32 encoding in four groups of five, two groups per line.
func Code(hash noise.HandshakeHash) string {
	encoded := base32.StdEncoding.EncodeToString(hash[:])[:codeLength]

	var b strings.Builder
	for i := 0; i < codeLength; i += 5 {
		switch i {
		case 0:
		case 10:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(encoded[i : i+5])
	}
	return b.String()
}

// Decision is the state of a Prompt.
type Decision uint8

const (
	// Pending means the user has not answered yet.
	Pending Decision = iota
	// Accepted means the user confirmed the code.
	Accepted
	// Rejected means the user declined the code.
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Prompt is an interactive Confirmer. ConfirmPairing shows the code and returns a future that
// stays pending until Accept or Reject is called; both belong to the same thread that polls.
type Prompt struct {
	decision Decision
	code     string
	shown    bool

	// OnShow, if set, is called with the pairing code when a confirmation starts.
	OnShow func(code string)
}

// NewPrompt returns a prompt that calls onShow, which may be nil, for every code it displays.
func NewPrompt(onShow func(code string)) *Prompt {
	return &Prompt{OnShow: onShow}
}

// ConfirmPairing starts a new confirmation, discarding any previous answer.
func (p *Prompt) ConfirmPairing(hash noise.HandshakeHash) executor.Future[bool] {
	p.decision = Pending
	p.code = Code(hash)
	p.shown = true

	crypto.NewPackageLogger("pairing", "ConfirmPairing").
		WithField("status", "awaiting_user").
		Info("Pairing code displayed")
	if p.OnShow != nil {
		p.OnShow(p.code)
	}

	return executor.PollFunc[bool](func() (bool, bool) {
		switch p.decision {
		case Accepted:
			p.shown = false
			return true, true
		case Rejected:
			p.shown = false
			return false, true
		default:
			return false, false
		}
	})
}

// Accept answers the displayed code positively.
func (p *Prompt) Accept() { p.decision = Accepted }

// Reject answers the displayed code negatively.
func (p *Prompt) Reject() { p.decision = Rejected }

// Showing reports whether a code is waiting for an answer, and which.
func (p *Prompt) Showing() (string, bool) {
	return p.code, p.shown
}

// Decision returns the last answer.
func (p *Prompt) Decision() Decision {
	return p.decision
}
