package crypto

import (
	"crypto/ed25519"
	"fmt"
	"io"
)

// GenerateEd25519Key creates a new Ed25519 key pair.
func GenerateEd25519Key(random io.Reader) (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return priv, nil
}

// SignEd25519 signs data with key. Ed25519 hashes internally.
func SignEd25519(key ed25519.PrivateKey, data []byte) ([]byte, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 sign: bad private key length %d", len(key))
	}
	return ed25519.Sign(key, data), nil
}

func VerifyEd25519(pub ed25519.PublicKey, data, signature []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, data, signature)
}
