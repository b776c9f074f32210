// Package provider is the narrow contract between the signing workflow and
// the library that implements the primitives. Providers are selected by name,
// the way a JCA provider is.
package provider

import (
	"crypto"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/glinharesb/sigflow/internal/keystore"
	"github.com/glinharesb/sigflow/internal/sigerr"
)

// Provider generates key pairs and creates signature contexts.
type Provider interface {
	Name() string
	GenerateKeyPair(algorithm string, bits int, random io.Reader) (keystore.KeyPair, error)
	NewSignatureContext(algorithm string) (SignatureContext, error)
}

// SignatureContext accumulates message bytes and produces or checks a
// signature. A context is initialized for either signing or verifying;
// re-initializing discards buffered data.
type SignatureContext interface {
	Algorithm() string
	InitSign(key crypto.Signer) error
	InitVerify(key crypto.PublicKey) error
	Update(data []byte) error
	// Sign finalizes the signature over everything passed to Update and
	// resets the buffer.
	Sign() ([]byte, error)
	// Verify reports whether signature matches the buffered data. A
	// non-matching or malformed signature is false with a nil error.
	Verify(signature []byte) (bool, error)
}

// Registry maps provider names to providers. The first registered provider is
// the default.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	def       Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry returns a registry holding only the software provider.
func DefaultRegistry() *Registry {
	return NewRegistry(NewSoftware())
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[strings.ToUpper(p.Name())] = p
	if r.def == nil {
		r.def = p
	}
}

// Lookup returns the named provider, or the default one when name is empty.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.def == nil {
			return nil, fmt.Errorf("%w: no providers registered", sigerr.ErrProvider)
		}
		return r.def, nil
	}
	p, ok := r.providers[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: no such provider %q", sigerr.ErrProvider, name)
	}
	return p, nil
}

// Default returns the default provider, or nil for an empty registry.
func (r *Registry) Default() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// NewSignatureContext instantiates algorithm from the named provider, or from
// the default provider when providerName is empty.
func (r *Registry) NewSignatureContext(algorithm, providerName string) (SignatureContext, error) {
	p, err := r.Lookup(providerName)
	if err != nil {
		return nil, err
	}
	return p.NewSignatureContext(algorithm)
}
