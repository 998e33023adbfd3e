package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
)

func init() {
	Register(rsaPSSSuite{})
}

// rsaKeyBits is the modulus size used when generating new RSA-PSS keys.
// Existing keys of any size continue to verify; this only bounds what
// GenerateKey produces going forward.
const rsaKeyBits = 3072

type rsaPSSSuite struct{}

func (rsaPSSSuite) Algorithm() Algorithm { return AlgRSAPSS }

func (rsaPSSSuite) GenerateKey() (Signer, []byte, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: rsa key generation failed: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: rsa private key encoding failed: %w", err)
	}
	return &rsaPSSSigner{priv: priv}, der, nil
}

func (rsaPSSSuite) SignerFromPrivateKey(privateKeyBytes []byte) (Signer, error) {
	key, err := x509.ParsePKCS8PrivateKey(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("crypto: rsa private key decoding failed: %w", err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("crypto: private key is not RSA")
	}
	return &rsaPSSSigner{priv: priv}, nil
}

func (rsaPSSSuite) Verifier() Verifier { return rsaPSSVerifier{} }

var pssOptions = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthEqualsHash,
	Hash:       crypto.SHA256,
}

type rsaPSSSigner struct {
	priv *rsa.PrivateKey
}

func (s *rsaPSSSigner) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPSS(rand.Reader, s.priv, crypto.SHA256, digest[:], pssOptions)
	if err != nil {
		return nil, fmt.Errorf("crypto: rsa-pss signing failed: %w", err)
	}
	return sig, nil
}

func (s *rsaPSSSigner) PublicKeyBytes() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&s.priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: rsa public key encoding failed: %w", err)
	}
	return der, nil
}

func (s *rsaPSSSigner) Algorithm() Algorithm { return AlgRSAPSS }

type rsaPSSVerifier struct{}

func (rsaPSSVerifier) Verify(pubKey, data, signature []byte) error {
	key, err := x509.ParsePKIXPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	rsaPub, ok := key.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: not an RSA public key", ErrInvalidKey)
	}
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPSS(rsaPub, crypto.SHA256, digest[:], signature, pssOptions); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
