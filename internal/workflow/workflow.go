// Package workflow drives one signature lifecycle: key generation, signing,
// persisting and reloading keys, and verification.
//
// A Workflow is not safe for concurrent use. Callers that share one must
// serialize access.
package workflow

import (
	"bytes"
	gocrypto "crypto"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/glinharesb/sigflow/internal/audit"
	"github.com/glinharesb/sigflow/internal/crypto"
	"github.com/glinharesb/sigflow/internal/keystore"
	"github.com/glinharesb/sigflow/internal/provider"
	"github.com/glinharesb/sigflow/internal/sigerr"
	"github.com/glinharesb/sigflow/internal/storage"
)

// State is the position of a workflow in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateKeysGenerated
	StateSigned
	StateVerified
	StateVerificationFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateKeysGenerated:
		return "KEYS_GENERATED"
	case StateSigned:
		return "SIGNED"
	case StateVerified:
		return "VERIFIED"
	case StateVerificationFailed:
		return "VERIFICATION_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Params select the algorithms a workflow is constructed with.
type Params struct {
	KeyAlgorithm       string
	KeyLength          int
	SignatureAlgorithm string
	// Provider names the provider the signature algorithm is taken from.
	// Empty selects the registry default.
	Provider string
}

type Option func(*Workflow)

// WithRegistry sets the providers to generate keys and signature contexts
// from. Keys always come from the registry's default provider.
func WithRegistry(r *provider.Registry) Option {
	return func(w *Workflow) { w.registry = r }
}

// WithRandom sets the randomness source for key generation.
func WithRandom(r io.Reader) Option {
	return func(w *Workflow) { w.random = r }
}

func WithAudit(l *audit.Logger) Option {
	return func(w *Workflow) { w.audit = l }
}

// WithPassphrase seals private keys written by SavePrivateKey and unseals
// them in ReadPrivateKey.
func WithPassphrase(passphrase []byte) Option {
	return func(w *Workflow) { w.codec.Passphrase = passphrase }
}

// state carries only what is valid in the current phase: signature is nil
// until the first successful Sign.
type state struct {
	phase     State
	signature []byte
}

type Workflow struct {
	params   Params
	registry *provider.Registry
	random   io.Reader
	audit    *audit.Logger
	codec    storage.Codec

	keys  *keystore.Material
	sig   provider.SignatureContext
	state state
}

// New generates a key pair and instantiates the signature algorithm. On any
// failure no workflow is returned.
//
// A non-positive key length is logged and passed through; the provider is
// the one that rejects it.
func New(p Params, opts ...Option) (*Workflow, error) {
	if strings.TrimSpace(p.KeyAlgorithm) == "" {
		return nil, fmt.Errorf("%w: key algorithm is required", sigerr.ErrInvalidArgument)
	}
	if strings.TrimSpace(p.SignatureAlgorithm) == "" {
		return nil, fmt.Errorf("%w: signature algorithm is required", sigerr.ErrInvalidArgument)
	}
	if p.KeyLength <= 0 {
		slog.Warn("invalid key length, deferring to provider", "key_length", p.KeyLength)
	}

	w := &Workflow{
		params:   p,
		registry: provider.DefaultRegistry(),
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(w)
	}

	gen := w.registry.Default()
	if gen == nil {
		return nil, fmt.Errorf("%w: no providers registered", sigerr.ErrProvider)
	}
	pair, err := gen.GenerateKeyPair(p.KeyAlgorithm, p.KeyLength, w.random)
	if err != nil {
		w.audit.Log("Generate", "", audit.StatusError, map[string]string{"error": err.Error()})
		return nil, fmt.Errorf("generate key pair: %w", err)
	}

	sig, err := w.registry.NewSignatureContext(p.SignatureAlgorithm, p.Provider)
	if err != nil {
		w.audit.Log("Generate", "", audit.StatusError, map[string]string{"error": err.Error()})
		return nil, fmt.Errorf("signature context: %w", err)
	}

	w.keys = keystore.NewMaterial(pair)
	w.sig = sig
	w.state = state{phase: StateKeysGenerated}

	w.audit.Log("Generate", w.Fingerprint(), audit.StatusOK, map[string]string{
		"key_algorithm":       pair.Algorithm().String(),
		"key_length":          strconv.Itoa(pair.Bits()),
		"signature_algorithm": sig.Algorithm(),
	})
	return w, nil
}

// Sign signs message with the current private key in one update and writes
// the signature envelope to sink.
func (w *Workflow) Sign(message []byte, sink io.Writer) ([]byte, error) {
	priv := w.keys.Private()
	if priv == nil {
		return nil, fmt.Errorf("%w: sign: no private key", sigerr.ErrMissingKey)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: sign: no signature sink", sigerr.ErrMissingSink)
	}

	sig, err := w.sign(priv, message)
	if err != nil {
		w.audit.Log("Sign", w.Fingerprint(), audit.StatusError, map[string]string{"error": err.Error()})
		return nil, err
	}
	if err := w.codec.WriteSignature(sink, sig); err != nil {
		w.audit.Log("Sign", w.Fingerprint(), audit.StatusError, map[string]string{"error": err.Error()})
		return nil, err
	}

	w.state = state{phase: StateSigned, signature: sig}
	w.audit.Log("Sign", w.Fingerprint(), audit.StatusOK, map[string]string{"message_bytes": strconv.Itoa(len(message))})
	slog.Debug("message signed", "message_bytes", len(message), "signature_bytes", len(sig))
	return bytes.Clone(sig), nil
}

func (w *Workflow) sign(priv gocrypto.Signer, message []byte) ([]byte, error) {
	if err := w.sig.InitSign(priv); err != nil {
		return nil, err
	}
	if err := w.sig.Update(message); err != nil {
		return nil, err
	}
	return w.sig.Sign()
}

// Verify decodes a signature envelope from signature and checks it against
// message with the current public key. A signature that does not match is
// (false, nil); errors are reserved for I/O, decoding and key-state failures.
func (w *Workflow) Verify(message []byte, signature io.Reader) (bool, error) {
	if signature == nil {
		return false, fmt.Errorf("%w: verify: no signature source", sigerr.ErrMissingSource)
	}
	sig, err := w.codec.ReadSignature(signature)
	if err != nil {
		w.audit.Log("Verify", w.Fingerprint(), audit.StatusError, map[string]string{"error": err.Error()})
		return false, err
	}
	return w.VerifyBytes(message, sig)
}

// VerifyBytes checks raw signature bytes against message.
func (w *Workflow) VerifyBytes(message, signature []byte) (bool, error) {
	pub := w.keys.Public()
	if pub == nil {
		return false, fmt.Errorf("%w: verify: no public key", sigerr.ErrMissingKey)
	}

	ok, err := w.verify(pub, message, signature)
	if err != nil {
		w.audit.Log("Verify", w.Fingerprint(), audit.StatusError, map[string]string{"error": err.Error()})
		return false, err
	}

	if ok {
		w.state.phase = StateVerified
		w.audit.Log("Verify", w.Fingerprint(), audit.StatusOK, nil)
	} else {
		w.state.phase = StateVerificationFailed
		w.audit.Log("Verify", w.Fingerprint(), audit.StatusFailed, nil)
	}
	return ok, nil
}

func (w *Workflow) verify(pub gocrypto.PublicKey, message, signature []byte) (bool, error) {
	if err := w.sig.InitVerify(pub); err != nil {
		return false, err
	}
	if err := w.sig.Update(message); err != nil {
		return false, err
	}
	return w.sig.Verify(signature)
}

// SavePrivateKey writes the current private key to sink. With neither a sink
// nor a key it does nothing; with only one of them it fails.
func (w *Workflow) SavePrivateKey(sink io.Writer) error {
	key := w.keys.Private()
	if err := checkSave("private", sink, key != nil); err != nil || sink == nil {
		return err
	}
	return w.logSave("private", w.codec.WritePrivateKey(sink, key))
}

// SavePublicKey writes the current public key to sink, under the same rules
// as SavePrivateKey.
func (w *Workflow) SavePublicKey(sink io.Writer) error {
	key := w.keys.Public()
	if err := checkSave("public", sink, key != nil); err != nil || sink == nil {
		return err
	}
	return w.logSave("public", w.codec.WritePublicKey(sink, key))
}

func checkSave(which string, sink io.Writer, haveKey bool) error {
	switch {
	case sink == nil && !haveKey:
		return nil
	case sink == nil:
		return fmt.Errorf("%w: save %s key: no sink", sigerr.ErrMissingSink, which)
	case !haveKey:
		return fmt.Errorf("%w: save %s key: no key", sigerr.ErrMissingKey, which)
	}
	return nil
}

func (w *Workflow) logSave(which string, err error) error {
	status := audit.StatusOK
	if err != nil {
		status = audit.StatusError
	}
	w.audit.Log("SaveKey", w.Fingerprint(), status, map[string]string{"key": which})
	return err
}

// ReadPrivateKey decodes a private key from source. The result is not
// installed; use SetPrivateKey for that.
func (w *Workflow) ReadPrivateKey(source io.Reader) (gocrypto.Signer, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: read private key", sigerr.ErrMissingSource)
	}
	key, err := w.codec.ReadPrivateKey(source)
	w.logRead("private", err)
	return key, err
}

// ReadPublicKey decodes a public key from source. The result is not
// installed; use SetPublicKey for that.
func (w *Workflow) ReadPublicKey(source io.Reader) (gocrypto.PublicKey, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: read public key", sigerr.ErrMissingSource)
	}
	key, err := w.codec.ReadPublicKey(source)
	w.logRead("public", err)
	return key, err
}

func (w *Workflow) logRead(which string, err error) {
	meta := map[string]string{"key": which}
	status := audit.StatusOK
	if err != nil {
		status = audit.StatusError
		meta["error"] = err.Error()
	}
	w.audit.Log("ReadKey", w.Fingerprint(), status, meta)
}

func (w *Workflow) PrivateKey() gocrypto.Signer {
	return w.keys.Private()
}

func (w *Workflow) PublicKey() gocrypto.PublicKey {
	return w.keys.Public()
}

// SetPrivateKey installs the key Sign uses. Passing nil disables signing.
func (w *Workflow) SetPrivateKey(key gocrypto.Signer) {
	w.keys.SetPrivate(key)
}

// SetPublicKey installs the key Verify uses.
func (w *Workflow) SetPublicKey(key gocrypto.PublicKey) {
	w.keys.SetPublic(key)
}

// KeyPair returns the pair generated at construction, regardless of setters.
func (w *Workflow) KeyPair() keystore.KeyPair {
	return w.keys.Pair()
}

// Signature returns the last signature produced by Sign, or nil.
func (w *Workflow) Signature() []byte {
	return bytes.Clone(w.state.signature)
}

func (w *Workflow) State() State {
	return w.state.phase
}

func (w *Workflow) Params() Params {
	return w.params
}

// SignatureAlgorithm returns the canonical name of the signature algorithm in use.
func (w *Workflow) SignatureAlgorithm() string {
	return w.sig.Algorithm()
}

// Fingerprint identifies the current public key, or is empty without one.
func (w *Workflow) Fingerprint() string {
	pub := w.keys.Public()
	if pub == nil {
		return ""
	}
	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return ""
	}
	return fp
}
