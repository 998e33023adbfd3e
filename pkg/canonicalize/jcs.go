// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme)
// compliant serialization for deterministic hashing and signing of JACS
// documents, headers, agreements, and signed strings.
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"
)

// JCS returns the RFC 8785 canonical JSON representation of v.
//
// v is first marshaled with the standard encoder (so struct json tags,
// omitempty, and custom MarshalJSON implementations are respected), then
// transformed into canonical form: object members sorted lexicographically
// by UTF-16 code unit, numbers rendered per ECMA-262 Section 7.1.12.1, and
// no insignificant whitespace.
func JCS(v interface{}) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: marshal failed: %w", err)
	}

	canonical, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: jcs transform failed: %w", err)
	}
	return canonical, nil
}

// JCSString returns the JCS canonical form as a string.
func JCSString(v interface{}) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CanonicalHash returns the lowercase hex SHA-256 digest of the canonical
// JSON representation of v. This is the digest algorithm behind jacsSha256,
// jacsAgreementHash, and every other content-hash field.
func CanonicalHash(v interface{}) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes computes the SHA-256 digest of raw bytes and returns it hex
// encoded.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StripFields returns a shallow copy of doc with the named top-level keys
// removed. Callers must strip the signature/hash fields a document carries
// BEFORE canonicalizing for signing or verification — canonicalizing first
// and stripping the resulting bytes second produces a different digest,
// since the member set of the object changes the canonical byte stream.
func StripFields(doc map[string]interface{}, fields ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	drop := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		drop[f] = struct{}{}
	}
	for k, v := range doc {
		if _, skip := drop[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of m sorted lexicographically, the same order
// JCS renders object members in. Useful when building an insertion-ordered
// display of a canonicalized map without re-canonicalizing it.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
