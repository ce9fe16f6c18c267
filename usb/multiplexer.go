package usb

import (
	"errors"

	"github.com/opd-ai/hwwnoise/crypto"
	"github.com/opd-ai/hwwnoise/executor"
	"github.com/opd-ai/hwwnoise/limits"
)

var (
	// ErrBusy indicates a request is queued, being processed, or its response was not fetched.
	ErrBusy = errors.New("usb: busy")
	// ErrNotReady indicates the current request has not finished yet.
	ErrNotReady = errors.New("usb: response not ready")
	// ErrNothingRunning indicates there is no request and no response.
	ErrNothingRunning = errors.New("usb: nothing running")
	// ErrBufferTooSmall indicates the destination cannot hold the response. The response is kept.
	ErrBufferTooSmall = limits.ErrBufferTooSmall
)

// Handler processes one request. The future is polled from Spin until it completes.
type Handler func(request []byte) executor.Future[[]byte]

type taskState uint8

const (
	awaitRequest taskState = iota
	processing
	awaitFetch
)

func (s taskState) String() string {
	switch s {
	case awaitRequest:
		return "await_request"
	case processing:
		return "processing"
	case awaitFetch:
		return "await_fetch"
	default:
		return "unknown"
	}
}

// task is the long-running loop that moves requests from the inbound slot through the handler
// into the outbound slot, one at a time.
type task struct {
	state   taskState
	wait    executor.Future[struct{}]
	pending executor.Future[[]byte]
}

// Multiplexer connects the USB stack to the request handler. The USB side calls Spawn and
// CopyResponse, the main loop calls Spin. All calls come from the same thread.
type Multiplexer struct {
	handler Handler
	in      executor.Slot[[]byte]
	out     executor.Slot[[]byte]
	task    *task
}

// NewMultiplexer returns a multiplexer feeding handler.
func NewMultiplexer(handler Handler) *Multiplexer {
	return &Multiplexer{handler: handler}
}

func (m *Multiplexer) busy() bool {
	return m.in.IsSet() || m.out.IsSet() || (m.task != nil && m.task.state == processing)
}

// Spawn queues a request for processing. The request is copied.
func (m *Multiplexer) Spawn(request []byte) error {
	if err := limits.ValidateRequest(request); err != nil {
		return err
	}
	if m.busy() {
		return ErrBusy
	}
	m.in.Put(append([]byte(nil), request...))
	return nil
}

// Spin advances the request loop as far as it can go without blocking. The first call starts
// the loop.
func (m *Multiplexer) Spin() {
	if m.task == nil {
		m.task = &task{}
	}
	m.poll(m.task)
}

func (m *Multiplexer) poll(t *task) {
	for {
		switch t.state {
		case awaitRequest:
			if t.wait == nil {
				t.wait = executor.WaitFor(&m.in)
			}
			if _, ok := executor.Spin(t.wait); !ok {
				return
			}
			t.wait = nil
			req, _ := m.in.Take()
			t.pending = m.handler(req)
			t.state = processing
		case processing:
			resp, ok := executor.Spin(t.pending)
			if !ok {
				return
			}
			t.pending = nil
			m.out.Put(resp)
			t.state = awaitFetch
		case awaitFetch:
			if m.out.IsSet() {
				return
			}
			t.state = awaitRequest
		}
	}
}

// CopyResponse moves the finished response into dst and returns its length. dst must hold the
// whole response; nothing is ever truncated.
func (m *Multiplexer) CopyResponse(dst []byte) (int, error) {
	resp, ok := m.out.Peek()
	if !ok {
		if m.busy() {
			return 0, ErrNotReady
		}
		return 0, ErrNothingRunning
	}
	if err := limits.ValidateResponseBuffer(dst, len(resp)); err != nil {
		return 0, err
	}
	n := copy(dst, resp)
	m.out.Clear()
	return n, nil
}

// Cancel abandons whatever is queued, running or waiting to be fetched and restarts the loop.
// It reports false if the loop has not been started yet. Handler state, such as the secure
// channel, is left as it is.
func (m *Multiplexer) Cancel() bool {
	if m.task == nil {
		return false
	}

	crypto.NewPackageLogger("usb", "Cancel").
		WithField("task_state", m.task.state.String()).
		WithField("request_pending", m.in.IsSet()).
		WithField("response_pending", m.out.IsSet()).
		Info("Cancelling request loop")

	m.task = &task{}
	m.in.Clear()
	m.out.Clear()
	return true
}
