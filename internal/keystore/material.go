package keystore

import "crypto"

// Material holds the keys a workflow currently signs and verifies with.
// It starts as the halves of one KeyPair; the setters let callers install
// reloaded or foreign keys explicitly. Not safe for concurrent use.
type Material struct {
	pair    KeyPair
	private crypto.Signer
	public  crypto.PublicKey
}

func NewMaterial(pair KeyPair) *Material {
	return &Material{
		pair:    pair,
		private: pair.Private(),
		public:  pair.Public(),
	}
}

// Pair returns the originally generated key pair, unaffected by the setters.
func (m *Material) Pair() KeyPair {
	return m.pair
}

func (m *Material) Private() crypto.Signer {
	return m.private
}

func (m *Material) Public() crypto.PublicKey {
	return m.public
}

// SetPrivate replaces the signing key. A nil key leaves the material unable to sign.
func (m *Material) SetPrivate(key crypto.Signer) {
	m.private = key
}

// SetPublic replaces the verification key.
func (m *Material) SetPublic(key crypto.PublicKey) {
	m.public = key
}

// Matched reports whether the current public key is the public half of the
// current private key.
func (m *Material) Matched() bool {
	if m.private == nil || m.public == nil {
		return false
	}
	pub, ok := m.private.Public().(interface{ Equal(crypto.PublicKey) bool })
	return ok && pub.Equal(m.public)
}
