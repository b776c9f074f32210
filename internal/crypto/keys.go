package crypto

import (
	gocrypto "crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
)

// MarshalPublicKey encodes a public key in PKIX DER format.
func MarshalPublicKey(pub gocrypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return der, nil
}

// UnmarshalPublicKey decodes a PKIX DER-encoded RSA, ECDSA or Ed25519 public key.
func UnmarshalPublicKey(der []byte) (gocrypto.PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	switch parsed.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return parsed, nil
	default:
		return nil, fmt.Errorf("unsupported public key type %T", parsed)
	}
}

// MarshalPrivateKey encodes a private key in PKCS8 DER format.
func MarshalPrivateKey(key gocrypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return der, nil
}

// UnmarshalPrivateKey decodes a PKCS8 DER-encoded RSA, ECDSA or Ed25519 private key.
func UnmarshalPrivateKey(der []byte) (gocrypto.Signer, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	switch key := parsed.(type) {
	case *rsa.PrivateKey:
		return key, nil
	case *ecdsa.PrivateKey:
		return key, nil
	case ed25519.PrivateKey:
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported private key type %T", parsed)
	}
}

// Fingerprint returns the hex SHA-256 of the PKIX encoding of pub, truncated
// to 16 bytes.
func Fingerprint(pub gocrypto.PublicKey) (string, error) {
	der, err := MarshalPublicKey(pub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:16]), nil
}
