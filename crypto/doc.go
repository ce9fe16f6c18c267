// Package crypto implements the cryptographic building blocks of the device's secure channel.
//
// # Core Types
//
//   - [PrivateKey]: a clamped Curve25519 scalar that its owner wipes with Wipe.
//   - [PublicKey]: a Curve25519 point, compared in constant time.
//   - [SharedSecret]: the output of [ComputeShared].
//   - [Random32]: the injected randomness capability used for every key the device creates.
//
// # Key Agreement
//
// [X25519] implements the flynn/noise DHFunc interface so the Noise handshake draws its
// ephemeral keys from the same Random32 as the static key:
//
//	src := crypto.SystemRandom{}
//	key := crypto.GenerateKey(src)
//	defer key.Wipe()
//	pub, err := key.PublicKey()
//
// Generated keys are clamped (k[0] &= 248; k[31] &= 127; k[31] |= 64). A low-order
// peer point is reported as [ErrLowOrderPoint] and never turned into an all-zero secret.
//
// # Storage
//
// [EncryptedKeyStore] keeps named records (the device's static key, the trusted peer list)
// encrypted at rest with AES-256-GCM under a PBKDF2-derived key, written atomically.
//
// # Logging
//
// [LoggerHelper] wraps logrus with the package/function fields every package of this
// module logs with. Private key material is never logged.
package crypto
