package keystore

import (
	"crypto"
	"fmt"
	"strings"
	"time"

	"github.com/glinharesb/sigflow/internal/sigerr"
)

// KeyAlgorithm represents the asymmetric algorithm a key pair was generated for.
type KeyAlgorithm int

const (
	AlgorithmRSA KeyAlgorithm = iota + 1
	AlgorithmEC
	AlgorithmEd25519
)

func (a KeyAlgorithm) String() string {
	switch a {
	case AlgorithmRSA:
		return "RSA"
	case AlgorithmEC:
		return "EC"
	case AlgorithmEd25519:
		return "Ed25519"
	default:
		return "UNKNOWN"
	}
}

// ParseKeyAlgorithm resolves a key algorithm name, ignoring case.
// "ECDSA" is accepted as an alias of "EC".
func ParseKeyAlgorithm(name string) (KeyAlgorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "RSA":
		return AlgorithmRSA, nil
	case "EC", "ECDSA":
		return AlgorithmEC, nil
	case "ED25519":
		return AlgorithmEd25519, nil
	case "":
		return 0, fmt.Errorf("%w: empty key algorithm", sigerr.ErrInvalidArgument)
	default:
		return 0, fmt.Errorf("%w: no such key algorithm %q", sigerr.ErrProvider, name)
	}
}

// KeyPair is the matched output of one key generation. It is never mutated.
type KeyPair struct {
	algorithm KeyAlgorithm
	bits      int
	private   crypto.Signer
	public    crypto.PublicKey
	createdAt time.Time
}

// NewKeyPair wraps a freshly generated private key. The public half is taken
// from the private key itself so the two cannot come from different generations.
func NewKeyPair(algorithm KeyAlgorithm, bits int, private crypto.Signer) (KeyPair, error) {
	if private == nil {
		return KeyPair{}, fmt.Errorf("%w: key pair without private key", sigerr.ErrMissingKey)
	}
	return KeyPair{
		algorithm: algorithm,
		bits:      bits,
		private:   private,
		public:    private.Public(),
		createdAt: time.Now(),
	}, nil
}

func (k KeyPair) Algorithm() KeyAlgorithm { return k.algorithm }
func (k KeyPair) Bits() int { return k.bits }
func (k KeyPair) Private() crypto.Signer { return k.private }
func (k KeyPair) Public() crypto.PublicKey { return k.public }
func (k KeyPair) CreatedAt() time.Time { return k.createdAt }
