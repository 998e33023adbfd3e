package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/hai-ai/jacs-go/pkg/observability"
)

// Signer produces a detached signature over data for a single key pair.
type Signer interface {
	// Sign returns a raw (non-encoded) signature over data.
	Sign(data []byte) ([]byte, error)
	// PublicKeyBytes returns the encoding of the public key exactly as it
	// is stored in jacsSignature.publicKey (base64 of the encoding named
	// by the suite's documentation — raw bytes for Ed25519/PQC, SPKI DER
	// for RSA).
	PublicKeyBytes() ([]byte, error)
	// Algorithm reports the tag this signer signs under.
	Algorithm() Algorithm
}

// Verifier checks a detached signature against a public key encoding.
type Verifier interface {
	// Verify reports whether signature is a valid signature over data
	// under the public key encoded in pubKey (same encoding Signer's
	// PublicKeyBytes produces for this algorithm).
	Verify(pubKey, data, signature []byte) error
}

// Suite bundles key generation, signing and verification for a single
// Algorithm. Suites are registered at init time by each algorithm's file in
// this package (and by pkg/crypto/pqc for the post-quantum tags), keeping
// the dispatch table in Register closed over concrete implementations the
// rest of the package never needs to import directly.
type Suite interface {
	Algorithm() Algorithm
	// GenerateKey creates a fresh key pair and returns a ready-to-use
	// Signer plus the raw private key bytes, suitable for envelope
	// encryption by pkg/kms.
	GenerateKey() (signer Signer, privateKeyBytes []byte, err error)
	// SignerFromPrivateKey reconstructs a Signer from the bytes returned
	// by a prior GenerateKey call (or from a decrypted key envelope).
	SignerFromPrivateKey(privateKeyBytes []byte) (Signer, error)
	Verifier() Verifier
}

var (
	registryMu sync.RWMutex
	registry   = map[Algorithm]Suite{}
)

// Register installs suite under its own Algorithm tag. Called from each
// algorithm implementation's init(); a later Register call for the same
// tag replaces the earlier one, which lets tests install fakes.
func Register(suite Suite) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[suite.Algorithm()] = suite
}

// SuiteFor looks up the registered Suite for alg.
func SuiteFor(alg Algorithm) (Suite, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	return s, nil
}

// GenerateKey creates a new key pair for alg.
func GenerateKey(alg Algorithm) (Signer, []byte, error) {
	s, err := SuiteFor(alg)
	if err != nil {
		return nil, nil, err
	}
	signer, privateKeyBytes, err := s.GenerateKey()
	if err != nil {
		return nil, nil, err
	}
	return wrapDeprecated(signer), privateKeyBytes, nil
}

// SignerFromPrivateKey reconstructs a Signer for alg from raw key bytes.
func SignerFromPrivateKey(alg Algorithm, privateKeyBytes []byte) (Signer, error) {
	s, err := SuiteFor(alg)
	if err != nil {
		return nil, err
	}
	signer, err := s.SignerFromPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, err
	}
	return wrapDeprecated(signer), nil
}

// Verify checks signature over data under pubKey for alg.
func Verify(alg Algorithm, pubKey, data, signature []byte) error {
	s, err := SuiteFor(alg)
	if err != nil {
		return err
	}
	if alg.Deprecated() {
		observability.LogAdvisory("crypto: verifying signature under deprecated algorithm",
			observability.CryptoOperation(string(alg), "verify", keyHashForAdvisory(pubKey))...)
	}
	return s.Verifier().Verify(pubKey, data, signature)
}

// wrapDeprecated wraps signer so every Sign call through it emits an
// observability advisory when its algorithm is deprecated (spec.md §4.2:
// "pq-dilithium" emits a deprecation signal on every signer/verifier call).
// Non-deprecated algorithms pass through unwrapped.
func wrapDeprecated(signer Signer) Signer {
	if !signer.Algorithm().Deprecated() {
		return signer
	}
	return &deprecatedSigner{inner: signer}
}

type deprecatedSigner struct {
	inner Signer
}

func (d *deprecatedSigner) Sign(data []byte) ([]byte, error) {
	pubKey, _ := d.inner.PublicKeyBytes()
	observability.LogAdvisory("crypto: signing under deprecated algorithm",
		observability.CryptoOperation(string(d.inner.Algorithm()), "sign", keyHashForAdvisory(pubKey))...)
	return d.inner.Sign(data)
}

func (d *deprecatedSigner) PublicKeyBytes() ([]byte, error) {
	return d.inner.PublicKeyBytes()
}

func (d *deprecatedSigner) Algorithm() Algorithm {
	return d.inner.Algorithm()
}

// keyHashForAdvisory returns a short hex SHA-256 prefix of pubKey for the
// advisory's key_hash attribute, never the key material itself.
func keyHashForAdvisory(pubKey []byte) string {
	if len(pubKey) == 0 {
		return ""
	}
	sum := sha256.Sum256(pubKey)
	return hex.EncodeToString(sum[:])[:16]
}
