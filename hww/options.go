package hww

import (
	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/limits"
)

// Options configures a Device.
type Options struct {
	// MaxRequestSize bounds a whole request, op code included.
	MaxRequestSize int
	// Random supplies handshake ephemeral keys. Nil selects crypto.SystemRandom.
	Random crypto.Random32
}

// NewOptions returns the default options.
func NewOptions() *Options {
	return &Options{
		MaxRequestSize: limits.MaxUSBMessage,
		Random:         crypto.SystemRandom{},
	}
}
