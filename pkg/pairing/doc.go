// Package pairing turns a user-entered pairing code into the symmetric
// session key shared by client and host.
//
// # Pairing Code
//
// The pairing code is a short decimal string (at most 6 digits) shown on the
// host and typed into the client. It is never persisted; entering a new code
// replaces the derived key immediately.
//
// # Key Derivation
//
// The session key is SHA-256 over the raw code bytes:
//
//	key = SHA-256(code)
//
// There is no salt and no iteration count. The code only lives for the
// duration of a pairing and the threat model is a local-network eavesdropper,
// not offline attack on a stored credential. DeriveHardened offers a PBKDF2
// variant for deployments that configure it on both peers.
package pairing
