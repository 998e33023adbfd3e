// Package pqc wires the post-quantum signing algorithms ("pq2025" and the
// deprecated "pq-dilithium") into pkg/crypto's suite registry. It is kept
// separate from pkg/crypto so that a binary with no post-quantum
// requirement can avoid the circl dependency entirely by not importing
// this package.
package pqc

import (
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"

	"github.com/hai-ai/jacs-go/pkg/crypto"
)

// schemeNames maps a JACS algorithm tag to the name circl's scheme
// registry looks it up by.
var schemeNames = map[crypto.Algorithm]string{
	crypto.AlgPQ2025:      "ML-DSA-87",
	crypto.AlgPQDilithium: "Dilithium3",
}

func init() {
	for alg, name := range schemeNames {
		scheme := schemes.ByName(name)
		if scheme == nil {
			// Should never happen for the names above; skip rather than
			// panic so a circl version mismatch degrades to
			// ErrUnsupportedAlgorithm instead of crashing the process.
			continue
		}
		crypto.Register(&suite{alg: alg, scheme: scheme})
	}
}

type suite struct {
	alg    crypto.Algorithm
	scheme sign.Scheme
}

func (s *suite) Algorithm() crypto.Algorithm { return s.alg }

func (s *suite) GenerateKey() (crypto.Signer, []byte, error) {
	pub, priv, err := s.scheme.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("pqc: %s key generation failed: %w", s.alg, err)
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("pqc: %s private key encoding failed: %w", s.alg, err)
	}
	return &pqSigner{scheme: s.scheme, alg: s.alg, priv: priv, pub: pub}, privBytes, nil
}

func (s *suite) SignerFromPrivateKey(privateKeyBytes []byte) (crypto.Signer, error) {
	priv, err := s.scheme.UnmarshalBinaryPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("pqc: %s private key decoding failed: %w", s.alg, err)
	}
	pub := priv.Public().(sign.PublicKey)
	return &pqSigner{scheme: s.scheme, alg: s.alg, priv: priv, pub: pub}, nil
}

func (s *suite) Verifier() crypto.Verifier {
	return &pqVerifier{scheme: s.scheme, alg: s.alg}
}

type pqSigner struct {
	scheme sign.Scheme
	alg    crypto.Algorithm
	priv   sign.PrivateKey
	pub    sign.PublicKey
}

func (s *pqSigner) Sign(data []byte) ([]byte, error) {
	return s.scheme.Sign(s.priv, data, nil), nil
}

func (s *pqSigner) PublicKeyBytes() ([]byte, error) {
	b, err := s.pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("pqc: %s public key encoding failed: %w", s.alg, err)
	}
	return b, nil
}

func (s *pqSigner) Algorithm() crypto.Algorithm { return s.alg }

type pqVerifier struct {
	scheme sign.Scheme
	alg    crypto.Algorithm
}

func (v *pqVerifier) Verify(pubKey, data, signature []byte) error {
	pub, err := v.scheme.UnmarshalBinaryPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("%w: %v", crypto.ErrInvalidKey, err)
	}
	if !v.scheme.Verify(pub, data, signature, nil) {
		return crypto.ErrInvalidSignature
	}
	return nil
}
