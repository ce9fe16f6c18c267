package usb

import (
	"testing"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/executor"
	"github.com/opd-ai/hwwnoise/hww"
	"github.com/opd-ai/hwwnoise/limits"
	"github.com/opd-ai/hwwnoise/noise"
	"github.com/opd-ai/hwwnoise/pairing"
	"github.com/opd-ai/hwwnoise/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowEcho returns a handler that echoes the request after the given number of pending polls.
func slowEcho(polls int, calls *int) Handler {
	return func(req []byte) executor.Future[[]byte] {
		if calls != nil {
			*calls++
		}
		left := polls
		return executor.PollFunc[[]byte](func() ([]byte, bool) {
			if left > 0 {
				left--
				return nil, false
			}
			return append([]byte("re:"), req...), true
		})
	}
}

func TestFullCycleRepeated(t *testing.T) {
	m := NewMultiplexer(slowEcho(0, nil))
	buf := make([]byte, 64)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, m.Spawn([]byte(msg)))
		m.Spin()
		n, err := m.CopyResponse(buf)
		require.NoError(t, err)
		assert.Equal(t, "re:"+msg, string(buf[:n]))

		_, err = m.CopyResponse(buf)
		assert.ErrorIs(t, err, ErrNothingRunning)
	}
}

// TestIdleLoopStaysSuspended spins an empty multiplexer and checks the loop keeps waiting on
// the inbound slot without ever calling the handler.
func TestIdleLoopStaysSuspended(t *testing.T) {
	calls := 0
	m := NewMultiplexer(slowEcho(0, &calls))

	for i := 0; i < 5; i++ {
		m.Spin()
		require.NotNil(t, m.task)
		assert.Equal(t, awaitRequest, m.task.state)
		assert.NotNil(t, m.task.wait, "loop must be parked on the inbound slot")
	}
	assert.Zero(t, calls)
	_, err := m.CopyResponse(make([]byte, 16))
	assert.ErrorIs(t, err, ErrNothingRunning)

	require.NoError(t, m.Spawn([]byte("wake")))
	m.Spin()
	assert.Equal(t, 1, calls)
	assert.Nil(t, m.task.wait)
	buf := make([]byte, 16)
	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, "re:wake", string(buf[:n]))
}

func TestSpawnBeforeFirstSpin(t *testing.T) {
	m := NewMultiplexer(slowEcho(0, nil))
	require.NoError(t, m.Spawn([]byte("early")))

	_, err := m.CopyResponse(make([]byte, 16))
	assert.ErrorIs(t, err, ErrNotReady)

	m.Spin()
	n, err := m.CopyResponse(make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, len("re:early"), n)
}

func TestSingleInFlight(t *testing.T) {
	calls := 0
	m := NewMultiplexer(slowEcho(2, &calls))
	buf := make([]byte, 64)

	_, err := m.CopyResponse(buf)
	assert.ErrorIs(t, err, ErrNothingRunning)

	require.NoError(t, m.Spawn([]byte("a")))
	assert.ErrorIs(t, m.Spawn([]byte("b")), ErrBusy, "queued request")

	m.Spin()
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, m.Spawn([]byte("b")), ErrBusy, "processing request")
	_, err = m.CopyResponse(buf)
	assert.ErrorIs(t, err, ErrNotReady)

	m.Spin()
	_, err = m.CopyResponse(buf)
	assert.ErrorIs(t, err, ErrNotReady)

	m.Spin()
	assert.ErrorIs(t, m.Spawn([]byte("b")), ErrBusy, "unfetched response")

	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, "re:a", string(buf[:n]))

	require.NoError(t, m.Spawn([]byte("b")))
	assert.Equal(t, 1, calls, "handler only runs from Spin")
}

func TestShortBufferKeepsResponse(t *testing.T) {
	m := NewMultiplexer(slowEcho(0, nil))
	require.NoError(t, m.Spawn([]byte("hello")))
	m.Spin()

	_, err := m.CopyResponse(make([]byte, 3))
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	buf := make([]byte, 8)
	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, "re:hello", string(buf[:n]))
}

func TestSpawnValidatesSize(t *testing.T) {
	m := NewMultiplexer(slowEcho(0, nil))
	assert.ErrorIs(t, m.Spawn(nil), limits.ErrMessageEmpty)
	assert.ErrorIs(t, m.Spawn(make([]byte, limits.MaxUSBMessage+1)), limits.ErrMessageTooLarge)
	assert.NoError(t, m.Spawn(make([]byte, limits.MaxUSBMessage)))
}

func TestSpawnCopiesRequest(t *testing.T) {
	m := NewMultiplexer(slowEcho(0, nil))
	req := []byte("abc")
	require.NoError(t, m.Spawn(req))
	req[0] = 'X'
	m.Spin()

	buf := make([]byte, 16)
	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, "re:abc", string(buf[:n]))
}

func TestCancel(t *testing.T) {
	m := NewMultiplexer(slowEcho(5, nil))
	assert.False(t, m.Cancel(), "nothing to cancel before the loop starts")

	require.NoError(t, m.Spawn([]byte("slow")))
	m.Spin()
	assert.ErrorIs(t, m.Spawn([]byte("x")), ErrBusy)

	assert.True(t, m.Cancel())
	_, err := m.CopyResponse(make([]byte, 16))
	assert.ErrorIs(t, err, ErrNothingRunning)

	// The loop is usable again right away.
	require.NoError(t, m.Spawn([]byte("next")))
	for i := 0; i < 6; i++ {
		m.Spin()
	}
	buf := make([]byte, 16)
	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, "re:next", string(buf[:n]))
}

func TestCancelDropsUnfetchedResponse(t *testing.T) {
	m := NewMultiplexer(slowEcho(0, nil))
	require.NoError(t, m.Spawn([]byte("x")))
	m.Spin()

	assert.True(t, m.Cancel())
	_, err := m.CopyResponse(make([]byte, 16))
	assert.ErrorIs(t, err, ErrNothingRunning)
	assert.NoError(t, m.Spawn([]byte("y")))
}

// transact spawns req, spins until the response is ready and returns it.
func transact(t *testing.T, m *Multiplexer, req []byte) []byte {
	t.Helper()
	require.NoError(t, m.Spawn(req))
	buf := make([]byte, limits.MaxUSBMessage)
	for i := 0; i < 10; i++ {
		m.Spin()
		n, err := m.CopyResponse(buf)
		if err == nil {
			return buf[:n]
		}
		require.ErrorIs(t, err, ErrNotReady)
	}
	t.Fatalf("no response to %q", req[:1])
	return nil
}

func TestDeviceOverMultiplexer(t *testing.T) {
	prompt := pairing.NewPrompt(nil)
	upper := hww.ProcessorFunc(func(req []byte) []byte {
		out := make([]byte, len(req))
		for i, b := range req {
			if b >= 'a' && b <= 'z' {
				b -= 'a' - 'A'
			}
			out[i] = b
		}
		return out
	})
	dev, err := hww.NewDevice(store.NewMemoryStore(nil), prompt, upper, nil)
	require.NoError(t, err)
	m := NewMultiplexer(dev.Process)

	hostKey := crypto.GenerateKey(crypto.SystemRandom{})
	defer hostKey.Wipe()
	hs, err := noise.NewXXHandshake(hostKey, noise.Initiator, nil)
	require.NoError(t, err)
	defer hs.Wipe()

	assert.Equal(t, []byte{hww.StatusSuccess}, transact(t, m, []byte{hww.OpHandshakeInit}))

	msg1, _, err := hs.WriteMessage(nil)
	require.NoError(t, err)
	resp := transact(t, m, append([]byte{hww.OpHandshakeMessage}, msg1...))
	require.Equal(t, hww.StatusSuccess, resp[0])
	_, _, err = hs.ReadMessage(resp[1:])
	require.NoError(t, err)

	msg3, _, err := hs.WriteMessage(nil)
	require.NoError(t, err)
	resp = transact(t, m, append([]byte{hww.OpHandshakeMessage}, msg3...))
	require.Equal(t, []byte{hww.StatusSuccess, hww.VerificationRequired}, resp)

	// The user takes a while; the host keeps polling.
	require.NoError(t, m.Spawn([]byte{hww.OpVerifyPairing}))
	buf := make([]byte, 16)
	for i := 0; i < 3; i++ {
		m.Spin()
		_, err := m.CopyResponse(buf)
		require.ErrorIs(t, err, ErrNotReady)
	}
	prompt.Accept()
	m.Spin()
	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{hww.StatusSuccess}, buf[:n])

	session, err := hs.Session()
	require.NoError(t, err)
	ct, err := session.Encrypt([]byte("hallo"))
	require.NoError(t, err)
	resp = transact(t, m, append([]byte{hww.OpNoiseMessage}, ct...))
	require.Equal(t, hww.StatusSuccess, resp[0])
	pt, err := session.Decrypt(resp[1:])
	require.NoError(t, err)
	assert.Equal(t, []byte("HALLO"), pt)
}

func TestCancelLeavesChannelIntact(t *testing.T) {
	prompt := pairing.NewPrompt(nil)
	dev, err := hww.NewDevice(store.NewMemoryStore(nil), prompt, hww.ProcessorFunc(func(b []byte) []byte { return b }), nil)
	require.NoError(t, err)
	m := NewMultiplexer(dev.Process)

	hostKey := crypto.GenerateKey(crypto.SystemRandom{})
	defer hostKey.Wipe()
	hs, err := noise.NewXXHandshake(hostKey, noise.Initiator, nil)
	require.NoError(t, err)

	transact(t, m, []byte{hww.OpHandshakeInit})
	msg1, _, _ := hs.WriteMessage(nil)
	resp := transact(t, m, append([]byte{hww.OpHandshakeMessage}, msg1...))
	_, _, err = hs.ReadMessage(resp[1:])
	require.NoError(t, err)
	msg3, _, _ := hs.WriteMessage(nil)
	transact(t, m, append([]byte{hww.OpHandshakeMessage}, msg3...))

	require.NoError(t, m.Spawn([]byte{hww.OpVerifyPairing}))
	m.Spin()
	assert.True(t, m.Cancel())
	assert.Equal(t, noise.StateReady, dev.Channel().State())

	// A fresh verification still works on the same session.
	require.NoError(t, m.Spawn([]byte{hww.OpVerifyPairing}))
	m.Spin()
	prompt.Accept()
	m.Spin()
	buf := make([]byte, 4)
	n, err := m.CopyResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{hww.StatusSuccess}, buf[:n])
}
