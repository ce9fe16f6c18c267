// Package pairing decides whether a newly seen host may talk to the device.
//
// After a handshake with an unknown host both sides show a short code derived from the
// handshake hash (see [Code]). The user compares them and confirms on the device through a
// [Confirmer]. [Prompt] models the device dialog, which stays open across many polls of the
// device loop; [ConfirmFunc] answers immediately.
package pairing
