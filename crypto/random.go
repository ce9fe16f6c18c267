package crypto

import (
	"crypto/rand"
	"io"
)

// Random32 is the device's source of randomness. It fills out with 32 random bytes.
// Key generation takes it as a capability so tests can substitute deterministic bytes.
type Random32 interface {
	Fill32(out *[32]byte)
}

// RandomFunc adapts an ordinary function to Random32.
type RandomFunc func(out *[32]byte)

// Fill32 calls f(out).
func (f RandomFunc) Fill32(out *[32]byte) {
	f(out)
}

// SystemRandom draws from crypto/rand.
type SystemRandom struct{}

// Fill32 fills out from crypto/rand. A failing entropy source is unrecoverable for a
// signing device, so it panics rather than handing out predictable keys.
func (SystemRandom) Fill32(out *[32]byte) {
	if _, err := io.ReadFull(rand.Reader, out[:]); err != nil {
		panic("crypto: system random source failed: " + err.Error())
	}
}

// NewReader exposes a Random32 as an io.Reader for libraries that take one.
func NewReader(src Random32) io.Reader {
	return &randomReader{src: src}
}

type randomReader struct {
	src Random32
}

// Read fills p in 32-byte draws; bytes left over from the last draw are discarded.
func (r *randomReader) Read(p []byte) (int, error) {
	var buf [32]byte
	defer ZeroBytes(buf[:])
	for n := 0; n < len(p); {
		r.src.Fill32(&buf)
		n += copy(p[n:], buf[:])
	}
	return len(p), nil
}
