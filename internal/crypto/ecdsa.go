package crypto

import (
	gocrypto "crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"io"
)

// CurveForBits maps a key length to the NIST curve of that size.
func CurveForBits(bits int) (elliptic.Curve, error) {
	switch bits {
	case 256:
		return elliptic.P256(), nil
	case 384:
		return elliptic.P384(), nil
	case 521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("unsupported ec key length: %d (must be 256, 384 or 521)", bits)
	}
}

// GenerateECDSAKey creates a new ECDSA key pair on the curve of the given size.
func GenerateECDSAKey(random io.Reader, bits int) (*ecdsa.PrivateKey, error) {
	curve, err := CurveForBits(bits)
	if err != nil {
		return nil, err
	}
	key, err := ecdsa.GenerateKey(curve, random)
	if err != nil {
		return nil, fmt.Errorf("generate ecdsa key: %w", err)
	}
	return key, nil
}

// SignECDSA signs the digest of data with key. Returns the ASN.1 DER-encoded signature.
func SignECDSA(random io.Reader, key *ecdsa.PrivateKey, hash gocrypto.Hash, data []byte) ([]byte, error) {
	digest, err := Digest(hash, data)
	if err != nil {
		return nil, err
	}
	sig, err := ecdsa.SignASN1(random, key, digest)
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	return sig, nil
}

// VerifyECDSA verifies an ASN.1 DER-encoded ECDSA signature against data.
func VerifyECDSA(pub *ecdsa.PublicKey, hash gocrypto.Hash, data, signature []byte) bool {
	digest, err := Digest(hash, data)
	if err != nil {
		return false
	}
	return ecdsa.VerifyASN1(pub, digest, signature)
}
