package crypto

import (
	gocrypto "crypto"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"io"
)

// GenerateRSAKey creates a new RSA key pair with a modulus of the given size.
func GenerateRSAKey(random io.Reader, bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return key, nil
}

// SignRSA signs the digest of data with key using PKCS #1 v1.5, or RSASSA-PSS
// when pss is set. PKCS #1 v1.5 signatures are deterministic.
func SignRSA(random io.Reader, key *rsa.PrivateKey, hash gocrypto.Hash, data []byte, pss bool) ([]byte, error) {
	digest, err := Digest(hash, data)
	if err != nil {
		return nil, err
	}

	var sig []byte
	if pss {
		sig, err = rsa.SignPSS(random, key, hash, digest, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	} else {
		sig, err = rsa.SignPKCS1v15(nil, key, hash, digest)
	}
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

// VerifyRSA reports whether signature is a valid signature of data by pub.
func VerifyRSA(pub *rsa.PublicKey, hash gocrypto.Hash, data, signature []byte, pss bool) bool {
	digest, err := Digest(hash, data)
	if err != nil {
		return false
	}
	if pss {
		return rsa.VerifyPSS(pub, hash, digest, signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}) == nil
	}
	return rsa.VerifyPKCS1v15(pub, hash, digest, signature) == nil
}

// Digest hashes data with h.
func Digest(h gocrypto.Hash, data []byte) ([]byte, error) {
	if !h.Available() {
		return nil, fmt.Errorf("hash function %v is not available", h)
	}
	hh := h.New()
	hh.Write(data)
	return hh.Sum(nil), nil
}
