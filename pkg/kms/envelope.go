// Package kms manages at-rest encryption for JACS key material: the
// password-protected private-key envelope format.
package kms

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// envelopeMagic identifies a JACS private-key envelope. The trailing digit
// is a format version baked into the magic itself so an older reader fails
// fast instead of misinterpreting a newer layout.
var envelopeMagic = []byte("JACSKEY1")

const (
	envelopeSaltSize  = 16
	envelopeNonceSize = chacha20poly1305.NonceSize

	// argon2Time, argon2Memory and argon2Threads are the Argon2id
	// parameters used to derive the envelope's encryption key from a
	// password. Changing these later does not affect decryption of
	// existing envelopes, since OpenPrivateKey reads the parameters stored
	// inline; SealPrivateKey always writes new envelopes with the constants
	// below.
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = chacha20poly1305.KeySize
)

// ErrEnvelopeMagic is returned when data does not begin with the expected
// JACS private-key envelope magic.
var ErrEnvelopeMagic = fmt.Errorf("kms: not a jacs private key envelope")

// ErrEnvelopeTooShort is returned when data is truncated before the fixed
// header and nonce can be read.
var ErrEnvelopeTooShort = fmt.Errorf("kms: envelope truncated")

// SealPrivateKey encrypts privateKey under a key derived from password via
// Argon2id, returning a self-describing binary envelope:
//
//	magic(8) | argon2Time(4) | argon2Memory(4) | argon2Threads(1) |
//	salt(16) | nonce(12) | ciphertext
//
// The envelope is what JACS persists at jacs_agent_private_key_filename
// when the key is password protected.
func SealPrivateKey(password string, privateKey []byte) ([]byte, error) {
	salt := make([]byte, envelopeSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("kms: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("kms: init aead: %w", err)
	}

	nonce := make([]byte, envelopeNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("kms: generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, privateKey, envelopeMagic)

	var buf bytes.Buffer
	buf.Write(envelopeMagic)
	writeUint32(&buf, argon2Time)
	writeUint32(&buf, argon2Memory)
	buf.WriteByte(argon2Threads)
	buf.Write(salt)
	buf.Write(nonce)
	buf.Write(ciphertext)
	return buf.Bytes(), nil
}

// OpenPrivateKey reverses SealPrivateKey, returning the plaintext private
// key bytes. Returns ErrEnvelopeMagic if data is not a JACS envelope, and a
// generic error (never revealing which part failed) if the password is
// wrong or the envelope has been tampered with.
func OpenPrivateKey(password string, data []byte) ([]byte, error) {
	headerLen := len(envelopeMagic) + 4 + 4 + 1 + envelopeSaltSize + envelopeNonceSize
	if len(data) < headerLen {
		return nil, ErrEnvelopeTooShort
	}
	if !bytes.Equal(data[:len(envelopeMagic)], envelopeMagic) {
		return nil, ErrEnvelopeMagic
	}

	r := bytes.NewReader(data[len(envelopeMagic):])
	argTime, _ := readUint32(r)
	argMemory, _ := readUint32(r)
	argThreads, _ := r.ReadByte()

	salt := make([]byte, envelopeSaltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, ErrEnvelopeTooShort
	}
	nonce := make([]byte, envelopeNonceSize)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, ErrEnvelopeTooShort
	}

	ciphertext := data[headerLen:]

	key := argon2.IDKey([]byte(password), salt, argTime, argMemory, argThreads, argon2KeyLen)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("kms: init aead: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, envelopeMagic)
	if err != nil {
		return nil, fmt.Errorf("kms: decrypt private key envelope: %w", err)
	}
	return plaintext, nil
}

// IsEnvelope reports whether data begins with the JACS private-key
// envelope magic, letting callers distinguish a protected key file from a
// raw (unprotected) one without attempting a decrypt.
func IsEnvelope(data []byte) bool {
	return len(data) >= len(envelopeMagic) && bytes.Equal(data[:len(envelopeMagic)], envelopeMagic)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func readUint32(r *bytes.Reader) (uint32, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}
