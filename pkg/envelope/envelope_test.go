package envelope

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanremote/lanremote-go/pkg/pairing"
)

func clickMessage() *Message {
	return &Message{
		Command:   "click",
		Data:      json.RawMessage(`{"button":"left"}`),
		Timestamp: 1700000000000,
		Nonce:     "ab12cd",
	}
}

func TestRoundTrip(t *testing.T) {
	key := pairing.Derive("4821")

	msgs := []*Message{
		clickMessage(),
		{Command: "mouse_move_relative", Data: json.RawMessage(`{"x":-3,"y":12}`), Timestamp: 1, Nonce: "00"},
		{Command: "type_text", Data: json.RawMessage(`{"text":"héllo \"world\""}`), Timestamp: 1700000000001, Nonce: "ffeedd"},
		{Command: "ping", Data: json.RawMessage(`{}`), Timestamp: 42, Nonce: "n"},
		// Exactly one block of plaintext and longer payloads.
		{Command: "type_text", Data: json.RawMessage(`{"text":"` + strings.Repeat("a", 500) + `"}`), Timestamp: 7, Nonce: "x"},
	}

	for _, msg := range msgs {
		t.Run(msg.Command, func(t *testing.T) {
			env, err := Encode(&key, msg)
			require.NoError(t, err)

			got, err := Decode(&key, env)
			require.NoError(t, err)
			assert.Equal(t, msg, got)
		})
	}
}

func TestDataBytesPreserved(t *testing.T) {
	key := pairing.Derive("4821")

	for _, data := range []string{
		`{"button": "left"}`,
		"{\n  \"x\": 1.50,\n  \"y\": -2\n}",
		`{"text":"a<b>&c"}`,
	} {
		msg := &Message{Command: "click", Data: json.RawMessage(data), Timestamp: 9, Nonce: "cafe"}

		env, err := Encode(&key, msg)
		require.NoError(t, err)

		got, err := Decode(&key, env)
		require.NoError(t, err)
		assert.Equal(t, data, string(got.Data))
	}
}

func TestMissingDataBecomesEmptyObject(t *testing.T) {
	key := pairing.Derive("4821")

	for _, plaintext := range []string{
		`{"command":"ping","timestamp":1,"nonce":"a"}`,
		`{"command":"ping","data":null,"timestamp":1,"nonce":"a"}`,
	} {
		got, err := Decode(&key, sealRaw(t, &key, []byte(plaintext)))
		require.NoError(t, err)
		assert.Equal(t, "{}", string(got.Data))
	}
}

func TestPairingScenario(t *testing.T) {
	key := pairing.Derive("4821")
	msg := clickMessage()

	env, err := Encode(&key, msg)
	require.NoError(t, err)

	got, err := Decode(&key, env)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	wrong := pairing.Derive("4822")
	_, err = Decode(&wrong, env)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.NotErrorIs(t, err, ErrMalformedPlaintext)
}

func TestIVFreshness(t *testing.T) {
	key := pairing.Derive("4821")
	msg := clickMessage()

	a, err := Encode(&key, msg)
	require.NoError(t, err)
	b, err := Encode(&key, msg)
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
	assert.NotEqual(t, a.HMAC, b.HMAC)
}

func TestEnvelopeShape(t *testing.T) {
	key := pairing.Derive("4821")
	env, err := Encode(&key, clickMessage())
	require.NoError(t, err)

	iv, err := hex.DecodeString(env.IV)
	require.NoError(t, err)
	assert.Len(t, iv, IVSize)

	tag, err := hex.DecodeString(env.HMAC)
	require.NoError(t, err)
	assert.Len(t, tag, MACSize)

	ct, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	require.NoError(t, err)
	assert.Zero(t, len(ct)%16)
}

func TestTamperDetection(t *testing.T) {
	key := pairing.Derive("4821")
	env, err := Encode(&key, clickMessage())
	require.NoError(t, err)

	iv, _ := hex.DecodeString(env.IV)
	ct, _ := base64.StdEncoding.DecodeString(env.Ciphertext)

	t.Run("IV", func(t *testing.T) {
		for i := 0; i < len(iv)*8; i++ {
			flipped := append([]byte(nil), iv...)
			flipped[i/8] ^= 1 << (i % 8)
			tampered := *env
			tampered.IV = hex.EncodeToString(flipped)

			_, err := Decode(&key, &tampered)
			if !assert.ErrorIs(t, err, ErrAuthenticationFailed, "bit %d", i) {
				return
			}
		}
	})

	t.Run("Ciphertext", func(t *testing.T) {
		for i := 0; i < len(ct)*8; i++ {
			flipped := append([]byte(nil), ct...)
			flipped[i/8] ^= 1 << (i % 8)
			tampered := *env
			tampered.Ciphertext = base64.StdEncoding.EncodeToString(flipped)

			_, err := Decode(&key, &tampered)
			if !assert.ErrorIs(t, err, ErrAuthenticationFailed, "bit %d", i) {
				return
			}
		}
	})

	t.Run("HMAC", func(t *testing.T) {
		tag, _ := hex.DecodeString(env.HMAC)
		tag[0] ^= 0x80
		tampered := *env
		tampered.HMAC = hex.EncodeToString(tag)

		_, err := Decode(&key, &tampered)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("HMACNotHex", func(t *testing.T) {
		tampered := *env
		tampered.HMAC = "zz"
		_, err := Decode(&key, &tampered)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestNoKey(t *testing.T) {
	_, err := Encode(nil, clickMessage())
	assert.ErrorIs(t, err, ErrNoKey)

	key := pairing.Derive("4821")
	env, err := Encode(&key, clickMessage())
	require.NoError(t, err)
	_, err = Decode(nil, env)
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestEncodeSerializationFailure(t *testing.T) {
	key := pairing.Derive("4821")

	tests := []struct {
		name string
		msg  *Message
	}{
		{"Nil", nil},
		{"EmptyCommand", &Message{Data: json.RawMessage(`{}`), Timestamp: 1, Nonce: "a"}},
		{"MissingTimestamp", &Message{Command: "click", Nonce: "a"}},
		{"MissingNonce", &Message{Command: "click", Timestamp: 1}},
		{"InvalidData", &Message{Command: "click", Data: json.RawMessage(`{"x":`), Timestamp: 1, Nonce: "a"}},
		{"ArrayData", &Message{Command: "click", Data: json.RawMessage(`[1,2]`), Timestamp: 1, Nonce: "a"}},
		{"StringData", &Message{Command: "click", Data: json.RawMessage(`"left"`), Timestamp: 1, Nonce: "a"}},
		{"NullData", &Message{Command: "click", Data: json.RawMessage(`null`), Timestamp: 1, Nonce: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(&key, tt.msg)
			assert.ErrorIs(t, err, ErrSerialization)
		})
	}
}

// sealRaw builds an authentic envelope around arbitrary plaintext bytes.
func sealRaw(t *testing.T, key *pairing.Key, plaintext []byte) *Envelope {
	t.Helper()
	env, err := Encode(key, &Message{Command: "x", Data: json.RawMessage(`{}`), Timestamp: 1, Nonce: "a"})
	require.NoError(t, err)

	// Re-encrypt the chosen plaintext under the envelope's IV and re-MAC it.
	iv, _ := hex.DecodeString(env.IV)
	padded := pkcs7Pad(plaintext, 16)
	ct := make([]byte, len(padded))
	block := mustCipher(t, key)
	cbcEncrypt(block, iv, ct, padded)

	env.Ciphertext = base64.StdEncoding.EncodeToString(ct)
	env.HMAC = hex.EncodeToString(computeMAC(key, env.IV, env.Ciphertext))
	return env
}

func TestMalformedPlaintext(t *testing.T) {
	key := pairing.Derive("4821")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"NotJSON", "click left"},
		{"MissingNonce", `{"command":"click","data":{},"timestamp":1}`},
		{"MissingTimestamp", `{"command":"click","data":{},"nonce":"a"}`},
		{"MissingCommand", `{"data":{},"timestamp":1,"nonce":"a"}`},
		{"ArrayData", `{"command":"click","data":[1,2],"timestamp":1,"nonce":"a"}`},
		{"NumberData", `{"command":"click","data":7,"timestamp":1,"nonce":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := sealRaw(t, &key, []byte(tt.plaintext))
			_, err := Decode(&key, env)
			assert.ErrorIs(t, err, ErrMalformedPlaintext)
			assert.NotErrorIs(t, err, ErrAuthenticationFailed)
		})
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	key := pairing.Derive("4821")
	env, err := Encode(&key, clickMessage())
	require.NoError(t, err)

	data, err := Marshal(env)
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "iv")
	assert.Contains(t, fields, "ciphertext")
	assert.Contains(t, fields, "hmac")

	parsed, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)

	_, err = Unmarshal([]byte(`{"iv":"00"}`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = Unmarshal([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestPKCS7(t *testing.T) {
	for n := 0; n <= 33; n++ {
		data := []byte(strings.Repeat("z", n))
		padded := pkcs7Pad(data, 16)
		require.Zero(t, len(padded)%16)
		require.Greater(t, len(padded), n)

		out, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}

	_, err := pkcs7Unpad([]byte{1, 2, 3}, 16)
	assert.Error(t, err)

	bad := make([]byte, 16)
	bad[15] = 17
	_, err = pkcs7Unpad(bad, 16)
	assert.Error(t, err)
}
