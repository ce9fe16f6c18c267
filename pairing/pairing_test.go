package pairing

import (
	"bytes"
	"testing"

	"github.com/opd-ai/hwwnoise/executor"
	"github.com/opd-ai/hwwnoise/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	var fooba noise.HandshakeHash
	copy(fooba[:], bytes.Repeat([]byte("fooba"), 7))

	var ones noise.HandshakeHash
	for i := range ones {
		ones[i] = 0xff
	}

	tests := []struct {
		name string
		hash noise.HandshakeHash
		want string
	}{
		{"zero", noise.HandshakeHash{}, "AAAAA AAAAA\nAAAAA AAAAA"},
		{"ones", ones, "77777 77777\n77777 77777"},
		{"ascii", fooba, "MZXW6 YTBMZ\nXW6YT BMZXW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.hash))
		})
	}
}

func TestConfirmFunc(t *testing.T) {
	var seen noise.HandshakeHash
	c := ConfirmFunc(func(h noise.HandshakeHash) bool {
		seen = h
		return true
	})

	hash := noise.HandshakeHash{1, 2, 3}
	ok, done := executor.Spin(c.ConfirmPairing(hash))
	assert.True(t, done)
	assert.True(t, ok)
	assert.Equal(t, hash, seen)
}

func TestPromptWaitsForUser(t *testing.T) {
	var shown []string
	p := NewPrompt(func(code string) { shown = append(shown, code) })

	f := p.ConfirmPairing(noise.HandshakeHash{})
	require.Len(t, shown, 1)
	assert.Equal(t, "AAAAA AAAAA\nAAAAA AAAAA", shown[0])

	for i := 0; i < 3; i++ {
		_, done := executor.Spin(f)
		assert.False(t, done)
	}
	code, showing := p.Showing()
	assert.True(t, showing)
	assert.Equal(t, shown[0], code)
	assert.Equal(t, Pending, p.Decision())

	p.Accept()
	ok, done := executor.Spin(f)
	assert.True(t, done)
	assert.True(t, ok)
	_, showing = p.Showing()
	assert.False(t, showing)
}

func TestPromptReject(t *testing.T) {
	p := NewPrompt(nil)
	f := p.ConfirmPairing(noise.HandshakeHash{9})
	p.Reject()

	ok, done := executor.Spin(f)
	assert.True(t, done)
	assert.False(t, ok)
	assert.Equal(t, Rejected, p.Decision())
	assert.Equal(t, "rejected", p.Decision().String())
}

func TestPromptRestartsOnNewConfirmation(t *testing.T) {
	p := NewPrompt(nil)
	p.ConfirmPairing(noise.HandshakeHash{})
	p.Reject()

	f := p.ConfirmPairing(noise.HandshakeHash{1})
	_, done := executor.Spin(f)
	assert.False(t, done, "an earlier answer must not leak into a new confirmation")
}
