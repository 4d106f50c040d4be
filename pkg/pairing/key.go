package pairing

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the session key size in bytes (AES-256 / HMAC-SHA256).
const KeySize = sha256.Size

// DefaultHardenedIterations is the PBKDF2 iteration count used when
// DeriveHardened is called with a non-positive count.
const DefaultHardenedIterations = 100_000

// Key is the symmetric session key derived from a pairing code.
type Key [KeySize]byte

// Derive returns SHA-256 of the code's raw bytes.
// Any input, including one rejected by ParseCode, yields a key.
func Derive(code Code) Key {
	return Key(sha256.Sum256(code.Bytes()))
}

// DeriveHardened derives a key with PBKDF2-HMAC-SHA256.
// Both peers must use the same salt and iteration count.
func DeriveHardened(code Code, salt []byte, iterations int) Key {
	if iterations <= 0 {
		iterations = DefaultHardenedIterations
	}
	var k Key
	copy(k[:], pbkdf2.Key(code.Bytes(), salt, iterations, KeySize, sha256.New))
	return k
}

// Bytes returns the key as a byte slice.
func (k *Key) Bytes() []byte {
	return k[:]
}

// Fingerprint returns a short identifier for the key, safe to log.
//
// The fingerprint is the first 64 bits (16 hex chars) of SHA-256(key).
func (k *Key) Fingerprint() string {
	sum := sha256.Sum256(k[:])
	return hex.EncodeToString(sum[:8])
}

// Equal reports whether two keys are identical.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return *k == *other
}

// Zero overwrites the key material.
func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}
