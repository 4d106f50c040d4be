package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lanremote/lanremote-go/pkg/pairing"
)

// IVSize is the size of the CBC initialization vector in bytes.
const IVSize = aes.BlockSize

// MACSize is the size of the HMAC-SHA256 tag in bytes.
const MACSize = sha256.Size

// Envelope errors.
var (
	// ErrNoKey indicates encoding or decoding was attempted without a session key.
	ErrNoKey = errors.New("no session key")

	// ErrSerialization indicates the plaintext message could not be serialized.
	ErrSerialization = errors.New("message serialization failed")

	// ErrAuthenticationFailed indicates the envelope MAC did not verify.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrMalformedPlaintext indicates an authenticated envelope whose plaintext
	// could not be decrypted or parsed.
	ErrMalformedPlaintext = errors.New("malformed plaintext")

	// ErrMalformedEnvelope indicates the wire bytes are not an envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is the wire form of an encrypted command.
type Envelope struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	HMAC       string `json:"hmac"`
}

// Encode encrypts and authenticates msg under key.
func Encode(key *pairing.Key, msg *Message) (*Envelope, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	plaintext, err := msg.marshal()
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	env := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}
	env.HMAC = hex.EncodeToString(computeMAC(key, env.IV, env.Ciphertext))
	return env, nil
}

// Decode authenticates env under key and returns the decrypted message.
// The MAC is checked before any decryption is attempted.
func Decode(key *pairing.Key, env *Envelope) (*Message, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	if env == nil {
		return nil, ErrAuthenticationFailed
	}

	tag, err := hex.DecodeString(env.HMAC)
	if err != nil || len(tag) != MACSize {
		return nil, ErrAuthenticationFailed
	}
	if !hmac.Equal(tag, computeMAC(key, env.IV, env.Ciphertext)) {
		return nil, ErrAuthenticationFailed
	}

	iv, err := hex.DecodeString(env.IV)
	if err != nil || len(iv) != IVSize {
		return nil, fmt.Errorf("%w: invalid IV", ErrMalformedPlaintext)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ciphertext encoding", ErrMalformedPlaintext)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrMalformedPlaintext, len(ciphertext))
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlaintext, err)
	}
	return parseMessage(plaintext)
}

// Marshal returns the wire JSON of env.
func Marshal(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Unmarshal parses wire JSON into an Envelope.
// All three fields must be present.
func Unmarshal(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.IV == "" || env.Ciphertext == "" || env.HMAC == "" {
		return nil, fmt.Errorf("%w: missing field", ErrMalformedEnvelope)
	}
	return &env, nil
}

// computeMAC returns HMAC-SHA256(key, ivText || ciphertextText).
func computeMAC(key *pairing.Key, ivText, ciphertextText string) []byte {
	mac := hmac.New(sha256.New, key.Bytes())
	mac.Write([]byte(ivText))
	mac.Write([]byte(ciphertextText))
	return mac.Sum(nil)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
