package storage

import (
	gocrypto "crypto"
	"fmt"
	"io"

	"github.com/glinharesb/sigflow/internal/crypto"
	"github.com/glinharesb/sigflow/internal/sigerr"
)

// Codec reads and writes keys and signatures. With a Passphrase set, private
// keys are written sealed; sealed and plain private keys are both readable.
type Codec struct {
	Passphrase []byte
}

func (c Codec) WritePrivateKey(w io.Writer, key gocrypto.PrivateKey) error {
	if key == nil {
		return fmt.Errorf("%w: write private key", sigerr.ErrMissingKey)
	}
	der, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return fmt.Errorf("%w: %w", sigerr.ErrProvider, err)
	}

	if len(c.Passphrase) == 0 {
		return WriteObject(w, KindPrivateKey, der)
	}
	sealed, err := crypto.Seal(c.Passphrase, der, []byte(KindSealedPrivateKey.TypeURL()))
	if err != nil {
		return fmt.Errorf("seal private key: %w", err)
	}
	return WriteObject(w, KindSealedPrivateKey, sealed)
}

func (c Codec) ReadPrivateKey(r io.Reader) (gocrypto.Signer, error) {
	kind, payload, err := ReadObject(r, KindPrivateKey, KindSealedPrivateKey)
	if err != nil {
		return nil, err
	}

	der := payload
	if kind == KindSealedPrivateKey {
		if len(c.Passphrase) == 0 {
			return nil, fmt.Errorf("%w: private key is sealed and no passphrase is configured", sigerr.ErrInvalidArgument)
		}
		der, err = crypto.Open(c.Passphrase, payload, []byte(KindSealedPrivateKey.TypeURL()))
		if err != nil {
			return nil, fmt.Errorf("%w: unseal private key: %w", sigerr.ErrInvalidArgument, err)
		}
	}

	key, err := crypto.UnmarshalPrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sigerr.ErrTypeMismatch, err)
	}
	return key, nil
}

func (c Codec) WritePublicKey(w io.Writer, key gocrypto.PublicKey) error {
	if key == nil {
		return fmt.Errorf("%w: write public key", sigerr.ErrMissingKey)
	}
	der, err := crypto.MarshalPublicKey(key)
	if err != nil {
		return fmt.Errorf("%w: %w", sigerr.ErrProvider, err)
	}
	return WriteObject(w, KindPublicKey, der)
}

func (c Codec) ReadPublicKey(r io.Reader) (gocrypto.PublicKey, error) {
	_, der, err := ReadObject(r, KindPublicKey)
	if err != nil {
		return nil, err
	}
	key, err := crypto.UnmarshalPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sigerr.ErrTypeMismatch, err)
	}
	return key, nil
}

// WriteSignature writes the raw signature bytes as the envelope payload.
func (c Codec) WriteSignature(w io.Writer, signature []byte) error {
	return WriteObject(w, KindSignature, signature)
}

func (c Codec) ReadSignature(r io.Reader) ([]byte, error) {
	_, sig, err := ReadObject(r, KindSignature)
	if err != nil {
		return nil, err
	}
	return sig, nil
}
