package crypto

import "errors"

var (
	// ErrInvalidSignature is returned by a Verifier when the signature
	// does not validate, as opposed to a malformed-input error.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	// ErrInvalidKey is returned when a public or private key encoding is
	// structurally malformed for the algorithm in question.
	ErrInvalidKey = errors.New("crypto: invalid key encoding")
)
