package provider

import (
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/glinharesb/sigflow/internal/keystore"
	"github.com/glinharesb/sigflow/internal/sigerr"
)

func generate(t *testing.T, algorithm string, bits int) keystore.KeyPair {
	t.Helper()
	pair, err := NewSoftware().GenerateKeyPair(algorithm, bits, rand.Reader)
	if err != nil {
		t.Fatalf("generate %s/%d: %v", algorithm, bits, err)
	}
	return pair
}

func signVerify(t *testing.T, ctx SignatureContext, pair keystore.KeyPair, msg []byte) bool {
	t.Helper()
	if err := ctx.InitSign(pair.Private()); err != nil {
		t.Fatalf("init sign: %v", err)
	}
	if err := ctx.Update(msg); err != nil {
		t.Fatalf("update: %v", err)
	}
	sig, err := ctx.Sign()
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := ctx.InitVerify(pair.Public()); err != nil {
		t.Fatalf("init verify: %v", err)
	}
	if err := ctx.Update(msg); err != nil {
		t.Fatalf("update: %v", err)
	}
	ok, err := ctx.Verify(sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return ok
}

func TestSoftwareAlgorithms(t *testing.T) {
	tests := []struct {
		keyAlg string
		bits   int
		sigAlg string
	}{
		{"RSA", 1024, "SHA1withRSA"},
		{"RSA", 1024, "SHA224withRSA"},
		{"RSA", 1024, "SHA256withRSA"},
		{"RSA", 1024, "SHA384withRSA"},
		{"RSA", 1024, "SHA512withRSA"},
		{"RSA", 2048, "SHA256withRSA/PSS"},
		{"EC", 256, "SHA256withECDSA"},
		{"EC", 384, "SHA384withECDSA"},
		{"EC", 521, "SHA512withECDSA"},
		{"Ed25519", 256, "Ed25519"},
	}

	for _, tt := range tests {
		t.Run(tt.sigAlg, func(t *testing.T) {
			pair := generate(t, tt.keyAlg, tt.bits)
			ctx, err := NewSoftware().NewSignatureContext(tt.sigAlg)
			if err != nil {
				t.Fatalf("new context: %v", err)
			}
			if !signVerify(t, ctx, pair, []byte("message")) {
				t.Fatal("valid signature rejected")
			}
			if !signVerify(t, ctx, pair, nil) {
				t.Fatal("signature over empty message rejected")
			}
		})
	}
}

func TestSignatureAlgorithmCaseInsensitive(t *testing.T) {
	ctx, err := NewSoftware().NewSignatureContext("sha1WITHrsa")
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	if ctx.Algorithm() != "SHA1withRSA" {
		t.Fatalf("algorithm: got %s", ctx.Algorithm())
	}
}

func TestUnsupportedSignatureAlgorithm(t *testing.T) {
	_, err := NewSoftware().NewSignatureContext("MD5withRSA")
	if !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	for _, tt := range []struct {
		alg  string
		bits int
	}{
		{"RSA", 0},
		{"RSA", -1},
		{"EC", 128},
		{"Ed25519", 512},
	} {
		_, err := NewSoftware().GenerateKeyPair(tt.alg, tt.bits, rand.Reader)
		if !errors.Is(err, sigerr.ErrProvider) {
			t.Fatalf("%s/%d: expected ErrProvider, got %v", tt.alg, tt.bits, err)
		}
	}
}

func TestGeneratePairsAreDistinct(t *testing.T) {
	a := generate(t, "EC", 256)
	b := generate(t, "EC", 256)

	ctx, _ := NewSoftware().NewSignatureContext("SHA256withECDSA")
	ctx.InitSign(a.Private())
	ctx.Update([]byte("data"))
	sig, _ := ctx.Sign()

	ctx.InitVerify(b.Public())
	ctx.Update([]byte("data"))
	ok, err := ctx.Verify(sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("signature should not verify under another pair's public key")
	}
}

func TestKeyAlgorithmMismatch(t *testing.T) {
	pair := generate(t, "EC", 256)
	ctx, _ := NewSoftware().NewSignatureContext("SHA1withRSA")

	if err := ctx.InitSign(pair.Private()); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("init sign: expected ErrProvider, got %v", err)
	}
	if err := ctx.InitVerify(pair.Public()); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("init verify: expected ErrProvider, got %v", err)
	}
}

func TestNilKeys(t *testing.T) {
	ctx, _ := NewSoftware().NewSignatureContext("SHA1withRSA")
	if err := ctx.InitSign(nil); !errors.Is(err, sigerr.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if err := ctx.InitVerify(nil); !errors.Is(err, sigerr.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestUninitializedContext(t *testing.T) {
	ctx, _ := NewSoftware().NewSignatureContext("SHA1withRSA")

	if err := ctx.Update([]byte("x")); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("update: expected ErrProvider, got %v", err)
	}
	if _, err := ctx.Sign(); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("sign: expected ErrProvider, got %v", err)
	}
	if _, err := ctx.Verify(nil); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("verify: expected ErrProvider, got %v", err)
	}
}

func TestSignAfterInitVerifyFails(t *testing.T) {
	pair := generate(t, "RSA", 1024)
	ctx, _ := NewSoftware().NewSignatureContext("SHA1withRSA")
	ctx.InitVerify(pair.Public())

	if _, err := ctx.Sign(); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestMalformedSignatureIsFalse(t *testing.T) {
	pair := generate(t, "RSA", 1024)
	ctx, _ := NewSoftware().NewSignatureContext("SHA1withRSA")
	ctx.InitVerify(pair.Public())
	ctx.Update([]byte("data"))

	ok, err := ctx.Verify([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("malformed signature should not be an error: %v", err)
	}
	if ok {
		t.Fatal("malformed signature should not verify")
	}
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	p, err := r.Lookup("")
	if err != nil || p.Name() != SoftwareName {
		t.Fatalf("default lookup: %v, %v", p, err)
	}
	if _, err := r.Lookup("sw"); err != nil {
		t.Fatalf("lookup is case-insensitive: %v", err)
	}
	if _, err := r.Lookup("BC"); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("unknown provider: expected ErrProvider, got %v", err)
	}
	if _, err := r.NewSignatureContext("SHA1withRSA", "BC"); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("unknown provider: expected ErrProvider, got %v", err)
	}
}

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }
func (s stubProvider) GenerateKeyPair(string, int, io.Reader) (keystore.KeyPair, error) {
	return keystore.KeyPair{}, errors.New("stub")
}
func (s stubProvider) NewSignatureContext(string) (SignatureContext, error) {
	return nil, errors.New("stub")
}

func TestRegistryFirstIsDefault(t *testing.T) {
	r := NewRegistry(NewSoftware(), stubProvider{"STUB"})
	if r.Default().Name() != SoftwareName {
		t.Fatalf("default: got %s", r.Default().Name())
	}
	if _, err := r.NewSignatureContext("SHA1withRSA", "stub"); err == nil || err.Error() != "stub" {
		t.Fatalf("named provider should be used, got %v", err)
	}
}

func TestEmptyRegistry(t *testing.T) {
	if _, err := NewRegistry().Lookup(""); !errors.Is(err, sigerr.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestSignatureAlgorithmsListed(t *testing.T) {
	names := SignatureAlgorithms()
	if len(names) != 10 {
		t.Fatalf("expected 10 algorithms, got %d", len(names))
	}
}
