// Package usb multiplexes USB requests onto the device's single processing task.
//
// Exactly one request is in flight at a time:
//
//	Spawn ──▶ [inbound slot] ──Spin──▶ handler future ──Spin──▶ [outbound slot] ──▶ CopyResponse
//
// The USB stack hands over a reassembled request with [Multiplexer.Spawn] and later collects
// the response with [Multiplexer.CopyResponse]. The main loop calls [Multiplexer.Spin] once per
// iteration. A new request is refused with [ErrBusy] until the previous response was fetched.
package usb
