package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/lanremote/lanremote-go/pkg/pairing"
)

func mustCipher(t *testing.T, key *pairing.Key) cipher.Block {
	t.Helper()
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	return block
}

func cbcEncrypt(block cipher.Block, iv, dst, src []byte) {
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(dst, src)
}
