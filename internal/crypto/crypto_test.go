package crypto

import (
	"bytes"
	gocrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func TestRSASignVerify(t *testing.T) {
	key, err := GenerateRSAKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	for _, h := range []gocrypto.Hash{gocrypto.SHA1, gocrypto.SHA224, gocrypto.SHA256, gocrypto.SHA384, gocrypto.SHA512} {
		data := []byte("test message for signing")
		sig, err := SignRSA(rand.Reader, key, h, data, false)
		if err != nil {
			t.Fatalf("%v sign: %v", h, err)
		}
		if !VerifyRSA(&key.PublicKey, h, data, sig, false) {
			t.Fatalf("%v: valid signature rejected", h)
		}
	}
}

func TestRSAPKCS1v15Deterministic(t *testing.T) {
	key, _ := GenerateRSAKey(rand.Reader, 1024)
	data := []byte("same data")

	s1, _ := SignRSA(rand.Reader, key, gocrypto.SHA1, data, false)
	s2, _ := SignRSA(rand.Reader, key, gocrypto.SHA1, data, false)
	if !bytes.Equal(s1, s2) {
		t.Fatal("PKCS #1 v1.5 signatures of the same data should be identical")
	}
}

func TestRSAPSSSignVerify(t *testing.T) {
	key, _ := GenerateRSAKey(rand.Reader, 2048)
	data := []byte("pss message")

	sig, err := SignRSA(rand.Reader, key, gocrypto.SHA256, data, true)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifyRSA(&key.PublicKey, gocrypto.SHA256, data, sig, true) {
		t.Fatal("valid PSS signature rejected")
	}
	if VerifyRSA(&key.PublicKey, gocrypto.SHA256, data, sig, false) {
		t.Fatal("PSS signature should not verify as PKCS #1 v1.5")
	}
}

func TestRSARejectsZeroLength(t *testing.T) {
	if _, err := GenerateRSAKey(rand.Reader, 0); err == nil {
		t.Fatal("0-bit rsa key should fail")
	}
}

func TestRSAVerifyWrongData(t *testing.T) {
	key, _ := GenerateRSAKey(rand.Reader, 1024)
	sig, _ := SignRSA(rand.Reader, key, gocrypto.SHA256, []byte("original"), false)

	if VerifyRSA(&key.PublicKey, gocrypto.SHA256, []byte("tampered"), sig, false) {
		t.Fatal("tampered data should not verify")
	}
}

func TestECDSASignVerify(t *testing.T) {
	for _, bits := range []int{256, 384, 521} {
		key, err := GenerateECDSAKey(rand.Reader, bits)
		if err != nil {
			t.Fatalf("generate P-%d key: %v", bits, err)
		}

		data := []byte("test message")
		sig, err := SignECDSA(rand.Reader, key, gocrypto.SHA256, data)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if !VerifyECDSA(&key.PublicKey, gocrypto.SHA256, data, sig) {
			t.Fatalf("P-%d: valid signature rejected", bits)
		}
	}
}

func TestECDSAUnsupportedLength(t *testing.T) {
	if _, err := GenerateECDSAKey(rand.Reader, 1024); err == nil {
		t.Fatal("1024-bit ec key should fail")
	}
}

func TestECDSAVerifyWrongKey(t *testing.T) {
	key1, _ := GenerateECDSAKey(rand.Reader, 256)
	key2, _ := GenerateECDSAKey(rand.Reader, 256)

	sig, _ := SignECDSA(rand.Reader, key1, gocrypto.SHA256, []byte("data"))
	if VerifyECDSA(&key2.PublicKey, gocrypto.SHA256, []byte("data"), sig) {
		t.Fatal("wrong key should not verify")
	}
}

func TestEd25519SignVerify(t *testing.T) {
	key, err := GenerateEd25519Key(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	sig, err := SignEd25519(key, []byte("data"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	pub := key.Public().(ed25519.PublicKey)
	if !VerifyEd25519(pub, []byte("data"), sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifyEd25519(pub, []byte("other"), sig) {
		t.Fatal("tampered data should not verify")
	}
}

func TestPrivateKeyMarshalRoundTrip(t *testing.T) {
	rsaKey, _ := GenerateRSAKey(rand.Reader, 1024)
	ecKey, _ := GenerateECDSAKey(rand.Reader, 256)
	edKey, _ := GenerateEd25519Key(rand.Reader)

	for _, key := range []gocrypto.Signer{rsaKey, ecKey, edKey} {
		der, err := MarshalPrivateKey(key)
		if err != nil {
			t.Fatalf("marshal %T: %v", key, err)
		}
		recovered, err := UnmarshalPrivateKey(der)
		if err != nil {
			t.Fatalf("unmarshal %T: %v", key, err)
		}

		type equaler interface{ Equal(gocrypto.PrivateKey) bool }
		if !key.(equaler).Equal(recovered) {
			t.Fatalf("%T: recovered key differs", key)
		}
	}
}

func TestPublicKeyMarshalRoundTrip(t *testing.T) {
	key, _ := GenerateRSAKey(rand.Reader, 1024)
	der, err := MarshalPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}

	pub, err := UnmarshalPublicKey(der)
	if err != nil {
		t.Fatalf("unmarshal public key: %v", err)
	}
	if !key.PublicKey.Equal(pub) {
		t.Fatal("recovered public key differs")
	}
}

func TestUnmarshalPrivateKeyGarbage(t *testing.T) {
	if _, err := UnmarshalPrivateKey([]byte("not der")); err == nil {
		t.Fatal("garbage should not parse")
	}
}

func TestFingerprintStable(t *testing.T) {
	key, _ := GenerateECDSAKey(rand.Reader, 256)
	other, _ := GenerateECDSAKey(rand.Reader, 256)

	f1, err := Fingerprint(&key.PublicKey)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	f2, _ := Fingerprint(key.Public())
	f3, _ := Fingerprint(&other.PublicKey)

	if f1 != f2 {
		t.Fatal("fingerprint of the same key should be stable")
	}
	if f1 == f3 {
		t.Fatal("different keys should have different fingerprints")
	}
	if len(f1) != 32 {
		t.Fatalf("fingerprint length: got %d, want 32", len(f1))
	}
}

func TestSealOpen(t *testing.T) {
	pass := []byte("correct horse")
	plaintext := []byte("pkcs8 bytes")
	aad := []byte("type.sigflow.dev/sigflow.v1.SealedPrivateKey")

	sealed, err := Seal(pass, plaintext, aad)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	got, err := Open(pass, sealed, aad)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("plaintext mismatch: got %q, want %q", got, plaintext)
	}
}

func TestSealWrongPassphrase(t *testing.T) {
	sealed, _ := Seal([]byte("right"), []byte("secret"), nil)
	if _, err := Open([]byte("wrong"), sealed, nil); err == nil {
		t.Fatal("open with wrong passphrase should fail")
	}
}

func TestSealWrongAAD(t *testing.T) {
	sealed, _ := Seal([]byte("pass"), []byte("secret"), []byte("a"))
	if _, err := Open([]byte("pass"), sealed, []byte("b")); err == nil {
		t.Fatal("open with wrong AAD should fail")
	}
}

func TestSealEmptyPassphrase(t *testing.T) {
	if _, err := Seal(nil, []byte("secret"), nil); err == nil {
		t.Fatal("empty passphrase should fail")
	}
}

func TestOpenTooShort(t *testing.T) {
	if _, err := Open([]byte("pass"), []byte("short"), nil); err == nil {
		t.Fatal("short input should fail")
	}
}

func TestSealUniqueOutput(t *testing.T) {
	s1, _ := Seal([]byte("pass"), []byte("same"), nil)
	s2, _ := Seal([]byte("pass"), []byte("same"), nil)
	if bytes.Equal(s1, s2) {
		t.Fatal("two seals of the same data should differ (random salt and nonce)")
	}
}

// Benchmarks

func BenchmarkRSA1024SignSHA1(b *testing.B) {
	key, _ := GenerateRSAKey(rand.Reader, 1024)
	data := []byte("benchmark data for signing")
	b.ResetTimer()
	for b.Loop() {
		SignRSA(rand.Reader, key, gocrypto.SHA1, data, false)
	}
}

func BenchmarkRSA1024VerifySHA1(b *testing.B) {
	key, _ := GenerateRSAKey(rand.Reader, 1024)
	data := []byte("benchmark data for signing")
	sig, _ := SignRSA(rand.Reader, key, gocrypto.SHA1, data, false)
	b.ResetTimer()
	for b.Loop() {
		VerifyRSA(&key.PublicKey, gocrypto.SHA1, data, sig, false)
	}
}

func BenchmarkECDSAP256Sign(b *testing.B) {
	key, _ := GenerateECDSAKey(rand.Reader, 256)
	data := []byte("benchmark data for signing")
	b.ResetTimer()
	for b.Loop() {
		SignECDSA(rand.Reader, key, gocrypto.SHA256, data)
	}
}
