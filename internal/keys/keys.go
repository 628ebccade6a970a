// Package keys derives per-store encryption keys from logical names.
//
// Derivation is deterministic and pure: the same logical name always
// yields the same 16-byte key, which lets a store be reopened without any
// persisted key material.
package keys

import (
	"crypto/md5"
	"encoding/hex"
)

// Size is the key length in bytes (AES-128).
const Size = md5.Size

// Key is a derived AES-128 key.
type Key [Size]byte

// Derive returns the MD5 digest of the UTF-8 bytes of name.
func Derive(name string) Key {
	return Key(md5.Sum([]byte(name)))
}

// IV returns the initialization vector paired with k.
// Existing files were written with the key bytes doubling as the IV, so
// this must stay equal to the key to keep them readable.
func (k Key) IV() []byte {
	iv := make([]byte, Size)
	copy(iv, k[:])
	return iv
}

// Bytes returns a copy of the raw key bytes.
func (k Key) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, k[:])
	return b
}

// Hex returns the lowercase hex form, used as the passphrase for
// database-level encryption.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

// String never prints key material.
func (k Key) String() string {
	return "keys.Key(redacted)"
}
