package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

func init() {
	Register(ed25519Suite{})
}

type ed25519Suite struct{}

func (ed25519Suite) Algorithm() Algorithm { return AlgEd25519 }

func (ed25519Suite) GenerateKey() (Signer, []byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: ed25519 key generation failed: %w", err)
	}
	return &ed25519Signer{priv: priv}, []byte(priv), nil
}

func (ed25519Suite) SignerFromPrivateKey(privateKeyBytes []byte) (Signer, error) {
	if len(privateKeyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("crypto: invalid ed25519 private key size %d", len(privateKeyBytes))
	}
	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(priv, privateKeyBytes)
	return &ed25519Signer{priv: priv}, nil
}

func (ed25519Suite) Verifier() Verifier { return ed25519Verifier{} }

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

func (s *ed25519Signer) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

func (s *ed25519Signer) PublicKeyBytes() ([]byte, error) {
	pub, ok := s.priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("crypto: unexpected ed25519 public key type")
	}
	return []byte(pub), nil
}

func (s *ed25519Signer) Algorithm() Algorithm { return AlgEd25519 }

type ed25519Verifier struct{}

func (ed25519Verifier) Verify(pubKey, data, signature []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("crypto: invalid ed25519 public key size %d", len(pubKey))
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), data, signature) {
		return ErrInvalidSignature
	}
	return nil
}
