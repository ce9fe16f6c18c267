// Package noise implements the device's secure channel: Noise_XX_25519_ChaChaPoly_SHA256
// built on the flynn/noise library, with the device as responder.
//
// # Channel States
//
// A [Channel] is always in one of three states:
//
//	Nothing ──Init──▶ Initialized ──Handshake (msg 3)──▶ Ready
//	   ▲                   │                               │
//	   └──── Reset / handshake failure ◀───────────────────┘
//
// Init is valid in any state and starts over. Handshake is only valid while Initialized;
// Encrypt, Decrypt and the session accessors only while Ready. Calling them in another state
// returns [ErrWrongState].
//
// # Message Flow
//
//	Host (initiator)                       Device (responder)
//	────────────────                       ──────────────────
//	-> e
//	                                       <- e, ee, s, es
//	-> s, se
//	[Ready, pairing verification required]
//
// The prologue is the protocol name itself ([ProtocolName]).
//
// # Pairing Gate
//
// Every completed handshake starts with the pairing gate closed: Encrypt and Decrypt return
// [ErrPairingVerificationRequired] until [Channel.SetPairingVerified] is called. Deciding
// whether the remote static key is already trusted is left to the caller.
//
// # Error Handling
//
// All handshake and AEAD failures surface as the single opaque [ErrNoise] so the host learns
// nothing about which check failed. A failed handshake message aborts the attempt; the host
// restarts from Init. A failed transport message keeps the session but burns its nonce.
//
// # Host Side
//
// [XXHandshake] drives either role message by message and hands out a [HostSession] for the
// transport phase. The host application (and the tests) use it as the initiator.
package noise
