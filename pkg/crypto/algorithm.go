// Package crypto implements the JACS signing suite: a multi-algorithm
// Signer/Verifier abstraction dispatched by an explicit algorithm tag,
// never by runtime type reflection, so a document signed under one
// algorithm can always be routed to the matching verifier even when the
// verifying process never loaded that algorithm's package.
package crypto

import "fmt"

// Algorithm identifies a signing scheme by the tag JACS persists in
// jacsSignature.algorithm. New algorithms are added by defining a new
// constant and registering a Suite for it; existing tags are never
// reassigned to a different scheme.
type Algorithm string

const (
	// AlgEd25519 is the default signing algorithm: RFC 8032 Ed25519.
	AlgEd25519 Algorithm = "ring-Ed25519"

	// AlgRSAPSS is RSA-PSS with SHA-256 and MGF1(SHA-256), matching the
	// salt-length-equals-hash-length convention.
	AlgRSAPSS Algorithm = "RSA-PSS"

	// AlgPQ2025 is the post-quantum signing algorithm introduced in 2025:
	// ML-DSA-87 (FIPS 204), the NIST-standardized successor to Dilithium.
	AlgPQ2025 Algorithm = "pq2025"

	// AlgPQDilithium is CRYSTALS-Dilithium3, retained for documents signed
	// before the FIPS 204 migration. Deprecated: new signatures should use
	// AlgPQ2025.
	AlgPQDilithium Algorithm = "pq-dilithium"
)

// ErrUnsupportedAlgorithm is returned when a document names an algorithm
// tag this build has no Suite registered for.
var ErrUnsupportedAlgorithm = fmt.Errorf("crypto: unsupported algorithm")

// Deprecated reports whether alg is still accepted for verification but
// should no longer be used to sign new documents.
func (a Algorithm) Deprecated() bool {
	return a == AlgPQDilithium
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	return string(a)
}
