// Package hwwnoise is the secure communication core of a hardware signing device.
//
// A host application talks to the device over USB. Every exchange runs through a
// Noise_XX_25519_ChaChaPoly_SHA256 channel with the device as responder, and the first
// connection from an unknown host has to be confirmed by the user on the device before any
// application data flows.
//
// # Packages
//
//	crypto     X25519, key types, secure memory, encrypted records, logging helper
//	noise      the device's Channel state machine and the host-side XXHandshake
//	pairing    pairing code and the user confirmation dialog
//	store      static key and trusted host persistence
//	hww        request dispatcher: op codes, status framing, pairing policy
//	executor   poll-based futures for the device's single processing task
//	usb        one-request-at-a-time multiplexer between USB and the dispatcher
//	limits     USB message size limits
//
// # Wiring a Device
//
//	st, err := store.OpenFileStore(dir, passphrase, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	prompt := pairing.NewPrompt(showOnScreen)
//	dev, err := hww.NewDevice(st, prompt, processor, hww.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mux := usb.NewMultiplexer(dev.Process)
//
//	// Main loop: the USB stack calls mux.Spawn and mux.CopyResponse,
//	// the device loop calls mux.Spin once per iteration.
//	for {
//	    mux.Spin()
//	}
//
// # Host Side
//
// The host drives a [noise.XXHandshake] as initiator through the 'h' and 'H' requests, asks
// for pairing verification with 'v' when the device reports it is required, and then sends
// encrypted 'n' requests through the resulting [noise.HostSession]. The simulator command in
// simulator/cmd does exactly that against an in-process device.
package hwwnoise
