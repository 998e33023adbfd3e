package jacs

import (
	"encoding/pem"
	"fmt"
	"os"

	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
	"github.com/hai-ai/jacs-go/pkg/kms"
)

// privateKeyPEMType is the PEM block type JACS writes for an unencrypted
// private key file, per spec.md §4.2 ("PEM plaintext when no password").
// The wrapped bytes are whatever the matching crypto.Suite's
// SignerFromPrivateKey expects — DER for RSA-PSS, raw encoding for
// Ed25519 and the post-quantum suites — so the PEM layer only ever
// base64-frames an algorithm-specific payload, never reinterprets it.
const privateKeyPEMType = "JACS PRIVATE KEY"

// WritePrivateKeyFile persists privateKeyBytes at path: plaintext PEM when
// password is empty, or a pkg/kms envelope (itself then PEM-framed so the
// file stays text) when one is supplied.
func WritePrivateKeyFile(path string, password string, privateKeyBytes []byte) error {
	payload := privateKeyBytes
	blockType := privateKeyPEMType
	if password != "" {
		if err := crypto.ValidatePassword(password); err != nil {
			return fmt.Errorf("jacs: write private key: %w", err)
		}
		sealed, err := kms.SealPrivateKey(password, privateKeyBytes)
		if err != nil {
			return fmt.Errorf("jacs: seal private key: %w", err)
		}
		payload = sealed
		blockType = "JACS ENCRYPTED PRIVATE KEY"
	}

	block := &pem.Block{Type: blockType, Bytes: payload}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}

// ReadPrivateKeyFile reads a file written by WritePrivateKeyFile (or a
// bare envelope/raw-bytes file from an older layout) and returns the
// algorithm-specific private key bytes, decrypting with password if the
// file is enveloped.
func ReadPrivateKeyFile(path, password string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.KeyNotFound, "jacs: read private key", err)
	}
	return decodePrivateKeyBytes(raw, password)
}

func decodePrivateKeyBytes(raw []byte, password string) ([]byte, error) {
	payload := raw
	if block, _ := pem.Decode(raw); block != nil {
		payload = block.Bytes
	}

	if kms.IsEnvelope(payload) {
		if password == "" {
			return nil, jacserr.New(jacserr.WrongPassword, "jacs: private key is password-protected but no password configured")
		}
		opened, err := kms.OpenPrivateKey(password, payload)
		if err != nil {
			return nil, jacserr.Wrap(jacserr.WrongPassword, "jacs: decrypt private key envelope", err)
		}
		return opened, nil
	}
	return payload, nil
}
