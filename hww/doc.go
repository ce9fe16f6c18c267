// Package hww is the device's request dispatcher. Every request starts with an op code:
//
//	'h'            start a handshake (no payload)
//	'H' <message>  next Noise handshake message
//	'v'            confirm the pairing code with the user (no payload)
//	'n' <message>  encrypted application request
//
// Every response starts with a status byte, [StatusSuccess] followed by the payload or the
// lone byte [StatusFailure]. The reply to the final handshake message carries one byte telling
// the host whether pairing verification is still needed.
//
// A [Device] is created with its collaborators and driven by repeatedly polling the future
// returned by [Device.Process]:
//
//	dev, err := hww.NewDevice(st, prompt, processor, hww.NewOptions())
//	if err != nil {
//	    return err
//	}
//	resp := dev.Process(req)
package hww
