// Package vault seals and opens byte payloads with AES-128-CBC.
//
// The sealed form is base64 text: base64(AES-CBC(PKCS#7(plaintext))).
// It is used for whole document files and for individual log columns.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/roach88/talkdb/internal/keys"
)

// ErrDecrypt is returned when a payload cannot be decoded, decrypted or
// unpadded. A wrong key usually surfaces here as a padding failure.
var ErrDecrypt = errors.New("vault: decrypt failed")

// Box seals and opens payloads under one key.
// A Box is safe for concurrent use.
type Box struct {
	block cipher.Block
	iv    []byte
}

// New returns a Box keyed by k, using k.IV() as the IV.
func New(k keys.Key) *Box {
	block, err := aes.NewCipher(k.Bytes())
	if err != nil {
		// keys.Key is always 16 bytes
		panic(fmt.Sprintf("vault: %v", err))
	}
	return &Box{block: block, iv: k.IV()}
}

// ForName derives the key for a logical name and returns its Box.
func ForName(name string) *Box {
	return New(keys.Derive(name))
}

// Seal encrypts plaintext and returns it base64 encoded.
func (b *Box) Seal(plaintext []byte) string {
	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(b.block, b.iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out)
}

// Open reverses Seal.
func (b *Box) Open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecrypt, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrDecrypt, len(raw))
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(b.block, b.iv).CryptBlocks(out, raw)
	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty block")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, errors.New("bad padding")
	}
	for _, c := range data[len(data)-n:] {
		if int(c) != n {
			return nil, errors.New("bad padding")
		}
	}
	return data[:len(data)-n], nil
}
