// Package envelope implements the authenticated, encrypted command envelope.
//
// # Wire Format
//
//	{"iv":"<hex 16 bytes>","ciphertext":"<base64>","hmac":"<hex 32 bytes>"}
//
// # Construction (encrypt-then-MAC)
//
//  1. Serialize the plaintext message to JSON:
//     {"command":...,"data":{...},"timestamp":<epoch ms>,"nonce":"..."}
//  2. Pick a fresh random 16-byte IV.
//  3. Encrypt with AES-256-CBC, PKCS#7 padding, under the session key.
//  4. HMAC-SHA256 under the same key over hex(iv) || base64(ciphertext).
//
// Decoding verifies the MAC in constant time before anything is decrypted.
// A MAC mismatch is ErrAuthenticationFailed; a plaintext that fails to
// decrypt or parse after successful authentication is ErrMalformedPlaintext.
//
// Timestamp and nonce make every plaintext unique. Freshness checks against
// them are the receiver's policy; the sender keeps no replay state.
package envelope
