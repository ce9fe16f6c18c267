package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxUSBMessage is the largest reassembled HWW request or response (USB_DATA_MAX_LEN).
	MaxUSBMessage = 7609

	// EncryptionOverhead is the ChaCha20-Poly1305 authentication tag added to every
	// transport message.
	EncryptionOverhead = 16

	// StatusOverhead is the status byte prefixed to every response.
	StatusOverhead = 1

	// MaxPlaintextResponse is the largest application reply that still fits a USB
	// response once encrypted and prefixed with the status byte.
	MaxPlaintextResponse = MaxUSBMessage - StatusOverhead - EncryptionOverhead
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrBufferTooSmall indicates a destination buffer cannot hold the data to copy
	ErrBufferTooSmall = errors.New("buffer too small")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateRequest validates a reassembled USB request against MaxUSBMessage.
func ValidateRequest(request []byte) error {
	if len(request) == 0 {
		return ErrMessageEmpty
	}
	if len(request) > MaxUSBMessage {
		return fmt.Errorf("%w: request size %d exceeds limit %d", ErrMessageTooLarge, len(request), MaxUSBMessage)
	}
	return nil
}

// ValidatePlaintextResponse validates an application reply before it is encrypted.
// Empty replies are allowed.
func ValidatePlaintextResponse(response []byte) error {
	if len(response) > MaxPlaintextResponse {
		return fmt.Errorf("%w: response size %d exceeds limit %d", ErrMessageTooLarge, len(response), MaxPlaintextResponse)
	}
	return nil
}

// ValidateResponseBuffer checks that dst can hold a response of size n without truncation.
func ValidateResponseBuffer(dst []byte, n int) error {
	if len(dst) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, n, len(dst))
	}
	return nil
}
