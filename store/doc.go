// Package store holds what the device remembers across sessions: its Noise static key and the
// static keys of hosts the user has paired with.
//
// [FileStore] keeps both as encrypted records on disk; [MemoryStore] keeps them in RAM. The
// trust list is bounded to [MaxTrustedPeers] entries, oldest first.
package store
