package workflow

import (
	gocrypto "crypto"
	"io"
	"path/filepath"

	"github.com/glinharesb/sigflow/internal/storage"
)

// Files names the on-disk locations a workflow reads and writes.
type Files struct {
	Message    string
	Signature  string
	PublicKey  string
	PrivateKey string
}

// In resolves relative paths against dir.
func (f Files) In(dir string) Files {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) || dir == "" {
			return p
		}
		return filepath.Join(dir, p)
	}
	return Files{
		Message:    join(f.Message),
		Signature:  join(f.Signature),
		PublicKey:  join(f.PublicKey),
		PrivateKey: join(f.PrivateKey),
	}
}

// SignFile reads the message file under policy and writes its signature to
// the signature file.
func (w *Workflow) SignFile(files Files, policy storage.ReadPolicy) ([]byte, error) {
	msg, err := storage.ReadAll(files.Message, policy)
	if err != nil {
		return nil, err
	}

	var sig []byte
	err = storage.WriteFile(files.Signature, func(out io.Writer) error {
		var serr error
		sig, serr = w.Sign(msg, out)
		return serr
	})
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// VerifyFiles rereads the message and signature files and verifies them
// with the current public key. Only the message read follows policy; a
// signature file that cannot be read is always an error.
func (w *Workflow) VerifyFiles(files Files, policy storage.ReadPolicy) (bool, error) {
	msg, err := storage.ReadAll(files.Message, policy)
	if err != nil {
		return false, err
	}

	var ok bool
	err = storage.ReadFile(files.Signature, func(r io.Reader) error {
		var verr error
		ok, verr = w.Verify(msg, r)
		return verr
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// SaveKeys writes the public and private keys to their files. An empty path
// is treated as an absent sink.
func (w *Workflow) SaveKeys(files Files) error {
	if err := saveTo(files.PublicKey, w.SavePublicKey); err != nil {
		return err
	}
	return saveTo(files.PrivateKey, w.SavePrivateKey)
}

func saveTo(path string, save func(io.Writer) error) error {
	if path == "" {
		return save(nil)
	}
	return storage.WriteFile(path, save)
}

// LoadPublicKey reads a public key file without installing the key.
func (w *Workflow) LoadPublicKey(path string) (gocrypto.PublicKey, error) {
	var key gocrypto.PublicKey
	err := storage.ReadFile(path, func(r io.Reader) error {
		var rerr error
		key, rerr = w.ReadPublicKey(r)
		return rerr
	})
	return key, err
}

// LoadPrivateKey reads a private key file without installing the key.
func (w *Workflow) LoadPrivateKey(path string) (gocrypto.Signer, error) {
	var key gocrypto.Signer
	err := storage.ReadFile(path, func(r io.Reader) error {
		var rerr error
		key, rerr = w.ReadPrivateKey(r)
		return rerr
	})
	return key, err
}
