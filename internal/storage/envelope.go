// Package storage persists key material and signatures.
//
// Every persisted object is a protobuf google.protobuf.Any whose type URL
// names what the payload is. Readers state which kinds they accept and the
// tag is checked before the payload is decoded, so a signature file can never
// be read back as a key.
package storage

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/glinharesb/sigflow/internal/sigerr"
)

const typeURLPrefix = "type.sigflow.dev/sigflow.v1."

// Kind discriminates persisted objects.
type Kind int

const (
	KindPrivateKey Kind = iota + 1
	KindSealedPrivateKey
	KindPublicKey
	KindSignature
)

func (k Kind) String() string {
	switch k {
	case KindPrivateKey:
		return "PrivateKey"
	case KindSealedPrivateKey:
		return "SealedPrivateKey"
	case KindPublicKey:
		return "PublicKey"
	case KindSignature:
		return "Signature"
	default:
		return "UNKNOWN"
	}
}

// TypeURL is the discriminator written alongside the payload.
func (k Kind) TypeURL() string {
	return typeURLPrefix + k.String()
}

func kindFromTypeURL(url string) (Kind, bool) {
	name, ok := strings.CutPrefix(url, typeURLPrefix)
	if !ok {
		return 0, false
	}
	for _, k := range []Kind{KindPrivateKey, KindSealedPrivateKey, KindPublicKey, KindSignature} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Encode wraps payload in an envelope tagged with kind.
func Encode(kind Kind, payload []byte) ([]byte, error) {
	env := &anypb.Any{TypeUrl: kind.TypeURL(), Value: payload}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// Decode unwraps an envelope and returns its payload if its kind is one of want.
func Decode(data []byte, want ...Kind) (Kind, []byte, error) {
	var env anypb.Any
	if err := proto.Unmarshal(data, &env); err != nil {
		return 0, nil, fmt.Errorf("%w: not a sigflow envelope: %w", sigerr.ErrTypeMismatch, err)
	}

	kind, ok := kindFromTypeURL(env.GetTypeUrl())
	if !ok {
		return 0, nil, fmt.Errorf("%w: unknown envelope type %q", sigerr.ErrTypeMismatch, env.GetTypeUrl())
	}
	if len(want) > 0 && !slices.Contains(want, kind) {
		return 0, nil, fmt.Errorf("%w: got %s, want %v", sigerr.ErrTypeMismatch, kind, want)
	}
	return kind, env.GetValue(), nil
}

// WriteObject encodes payload as kind and writes it to w.
func WriteObject(w io.Writer, kind Kind, payload []byte) error {
	if w == nil {
		return fmt.Errorf("%w: write %s", sigerr.ErrMissingSink, kind)
	}
	data, err := Encode(kind, payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", sigerr.ErrIOFailure, kind, err)
	}
	return nil
}

// ReadObject reads r to the end and decodes it as one of want.
func ReadObject(r io.Reader, want ...Kind) (Kind, []byte, error) {
	if r == nil {
		return 0, nil, fmt.Errorf("%w: read %v", sigerr.ErrMissingSource, want)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %v: %w", sigerr.ErrIOFailure, want, err)
	}
	return Decode(data, want...)
}
