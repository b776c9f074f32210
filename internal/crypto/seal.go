package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	saltSize = 16
	keySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var sealInfo = []byte("sigflow private key v1")

// deriveSealKey stretches the passphrase with Argon2id, then expands it with
// HKDF-SHA256 into an AES-256 key bound to sealInfo.
func deriveSealKey(passphrase, salt []byte) ([]byte, error) {
	root := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, keySize)

	r := hkdf.New(sha256.New, root, salt, sealInfo)
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf derive: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under a key derived from passphrase.
// The output layout is [salt | nonce | ciphertext | tag]. aad must be
// presented again to Open.
func Seal(passphrase, plaintext, aad []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, aad), nil
}

// Open decrypts data produced by Seal.
func Open(passphrase, sealed, aad []byte) ([]byte, error) {
	if len(sealed) < saltSize {
		return nil, fmt.Errorf("sealed data too short")
	}
	salt, rest := sealed[:saltSize], sealed[saltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, fmt.Errorf("sealed data too short")
	}
	nonce, ct := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("aes gcm decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(passphrase, salt []byte) (cipher.AEAD, error) {
	key, err := deriveSealKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes gcm: %w", err)
	}
	return gcm, nil
}
