package provider

import (
	"bytes"
	gocrypto "crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/glinharesb/sigflow/internal/crypto"
	"github.com/glinharesb/sigflow/internal/keystore"
	"github.com/glinharesb/sigflow/internal/sigerr"
)

// SoftwareName is the name the software provider registers under.
const SoftwareName = "SW"

type scheme struct {
	name string
	key  keystore.KeyAlgorithm
	hash gocrypto.Hash
	pss  bool
}

var schemes = map[string]scheme{}

func init() {
	for _, s := range []scheme{
		{"SHA1withRSA", keystore.AlgorithmRSA, gocrypto.SHA1, false},
		{"SHA224withRSA", keystore.AlgorithmRSA, gocrypto.SHA224, false},
		{"SHA256withRSA", keystore.AlgorithmRSA, gocrypto.SHA256, false},
		{"SHA384withRSA", keystore.AlgorithmRSA, gocrypto.SHA384, false},
		{"SHA512withRSA", keystore.AlgorithmRSA, gocrypto.SHA512, false},
		{"SHA256withRSA/PSS", keystore.AlgorithmRSA, gocrypto.SHA256, true},
		{"SHA256withECDSA", keystore.AlgorithmEC, gocrypto.SHA256, false},
		{"SHA384withECDSA", keystore.AlgorithmEC, gocrypto.SHA384, false},
		{"SHA512withECDSA", keystore.AlgorithmEC, gocrypto.SHA512, false},
		{"Ed25519", keystore.AlgorithmEd25519, 0, false},
	} {
		schemes[strings.ToUpper(s.name)] = s
	}
}

// SignatureAlgorithms lists the signature algorithm names the software provider supports.
func SignatureAlgorithms() []string {
	names := make([]string, 0, len(schemes))
	for _, s := range schemes {
		names = append(names, s.name)
	}
	sort.Strings(names)
	return names
}

// Software implements Provider on top of the Go standard library primitives.
type Software struct {
	random io.Reader
}

func NewSoftware() *Software {
	return &Software{random: rand.Reader}
}

func (s *Software) Name() string {
	return SoftwareName
}

func (s *Software) GenerateKeyPair(algorithm string, bits int, random io.Reader) (keystore.KeyPair, error) {
	alg, err := keystore.ParseKeyAlgorithm(algorithm)
	if err != nil {
		return keystore.KeyPair{}, err
	}
	if random == nil {
		random = s.random
	}

	var key gocrypto.Signer
	switch alg {
	case keystore.AlgorithmRSA:
		key, err = crypto.GenerateRSAKey(random, bits)
	case keystore.AlgorithmEC:
		key, err = crypto.GenerateECDSAKey(random, bits)
	case keystore.AlgorithmEd25519:
		if bits != 255 && bits != 256 {
			err = fmt.Errorf("unsupported ed25519 key length: %d (must be 256)", bits)
			break
		}
		key, err = crypto.GenerateEd25519Key(random)
	}
	if err != nil {
		return keystore.KeyPair{}, fmt.Errorf("%w: %w", sigerr.ErrProvider, err)
	}
	return keystore.NewKeyPair(alg, bits, key)
}

func (s *Software) NewSignatureContext(algorithm string) (SignatureContext, error) {
	sc, ok := schemes[strings.ToUpper(strings.TrimSpace(algorithm))]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support signature algorithm %q", sigerr.ErrProvider, SoftwareName, algorithm)
	}
	return &signatureContext{scheme: sc, random: s.random}, nil
}

type mode int

const (
	modeNone mode = iota
	modeSign
	modeVerify
)

type signatureContext struct {
	scheme scheme
	random io.Reader

	mode     mode
	signer   gocrypto.Signer
	verifier gocrypto.PublicKey
	buf      bytes.Buffer
}

func (c *signatureContext) Algorithm() string {
	return c.scheme.name
}

func (c *signatureContext) InitSign(key gocrypto.Signer) error {
	if key == nil {
		return fmt.Errorf("%w: init sign: nil private key", sigerr.ErrMissingKey)
	}
	if !c.acceptsPrivate(key) {
		return fmt.Errorf("%w: init sign: %T is not a key for %s", sigerr.ErrProvider, key, c.scheme.name)
	}
	c.mode = modeSign
	c.signer = key
	c.verifier = nil
	c.buf.Reset()
	return nil
}

func (c *signatureContext) InitVerify(key gocrypto.PublicKey) error {
	if key == nil {
		return fmt.Errorf("%w: init verify: nil public key", sigerr.ErrMissingKey)
	}
	if !c.acceptsPublic(key) {
		return fmt.Errorf("%w: init verify: %T is not a key for %s", sigerr.ErrProvider, key, c.scheme.name)
	}
	c.mode = modeVerify
	c.verifier = key
	c.signer = nil
	c.buf.Reset()
	return nil
}

func (c *signatureContext) Update(data []byte) error {
	if c.mode == modeNone {
		return fmt.Errorf("%w: %s: update before init", sigerr.ErrProvider, c.scheme.name)
	}
	c.buf.Write(data)
	return nil
}

func (c *signatureContext) Sign() ([]byte, error) {
	if c.mode != modeSign {
		return nil, fmt.Errorf("%w: %s: not initialized for signing", sigerr.ErrProvider, c.scheme.name)
	}
	defer c.buf.Reset()

	data := c.buf.Bytes()
	var (
		sig []byte
		err error
	)
	switch key := c.signer.(type) {
	case *rsa.PrivateKey:
		sig, err = crypto.SignRSA(c.random, key, c.scheme.hash, data, c.scheme.pss)
	case *ecdsa.PrivateKey:
		sig, err = crypto.SignECDSA(c.random, key, c.scheme.hash, data)
	case ed25519.PrivateKey:
		sig, err = crypto.SignEd25519(key, data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sigerr.ErrProvider, err)
	}
	return sig, nil
}

func (c *signatureContext) Verify(signature []byte) (bool, error) {
	if c.mode != modeVerify {
		return false, fmt.Errorf("%w: %s: not initialized for verification", sigerr.ErrProvider, c.scheme.name)
	}
	defer c.buf.Reset()

	data := c.buf.Bytes()
	switch key := c.verifier.(type) {
	case *rsa.PublicKey:
		return crypto.VerifyRSA(key, c.scheme.hash, data, signature, c.scheme.pss), nil
	case *ecdsa.PublicKey:
		return crypto.VerifyECDSA(key, c.scheme.hash, data, signature), nil
	case ed25519.PublicKey:
		return crypto.VerifyEd25519(key, data, signature), nil
	}
	return false, nil
}

func (c *signatureContext) acceptsPrivate(key gocrypto.Signer) bool {
	switch key.(type) {
	case *rsa.PrivateKey:
		return c.scheme.key == keystore.AlgorithmRSA
	case *ecdsa.PrivateKey:
		return c.scheme.key == keystore.AlgorithmEC
	case ed25519.PrivateKey:
		return c.scheme.key == keystore.AlgorithmEd25519
	}
	return false
}

func (c *signatureContext) acceptsPublic(key gocrypto.PublicKey) bool {
	switch key.(type) {
	case *rsa.PublicKey:
		return c.scheme.key == keystore.AlgorithmRSA
	case *ecdsa.PublicKey:
		return c.scheme.key == keystore.AlgorithmEC
	case ed25519.PublicKey:
		return c.scheme.key == keystore.AlgorithmEd25519
	}
	return false
}
