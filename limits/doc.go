// Package limits provides centralized message size constants and validation functions
// for the device's HWW USB API.
//
// # Message Size Hierarchy
//
//   - MaxUSBMessage (7609 bytes): the largest request or response the USB layer
//     reassembles. Every request handed to the multiplexer is validated against it.
//
//   - MaxPlaintextResponse: the largest application reply that fits a response after
//     adding the ChaCha20-Poly1305 tag (16 bytes) and the status byte.
//
// Handshake messages are requests like any other and share the MaxUSBMessage bound.
//
// # Validation Functions
//
//	if err := limits.ValidateRequest(req); err != nil {
//	    // ErrMessageEmpty or ErrMessageTooLarge
//	}
//
// ValidateResponseBuffer reports ErrBufferTooSmall instead of truncating a response.
package limits
