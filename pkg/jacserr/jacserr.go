// Package jacserr defines the structured error taxonomy every JACS
// operation returns through, so callers can switch on a stable Kind
// instead of matching error strings.
package jacserr

import "fmt"

// Kind is a stable, documented error category. New values may be added;
// existing ones are never repurposed.
type Kind string

const (
	MalformedJSON     Kind = "malformed_json"
	SchemaViolation   Kind = "schema_violation"
	RawImmutable      Kind = "raw_immutable"
	DocumentTooLarge  Kind = "document_too_large"
	InvalidSignature  Kind = "invalid_signature"
	HashMismatch      Kind = "hash_mismatch"
	UnknownAlgorithm  Kind = "unknown_algorithm"
	KeyHashMismatch   Kind = "key_hash_mismatch"
	WrongPassword     Kind = "wrong_password"
	WeakPassword      Kind = "weak_password"
	CorruptKey        Kind = "corrupt_key"
	AgentNotLoaded    Kind = "agent_not_loaded"
	ConfigNotFound    Kind = "config_not_found"
	KeyNotFound       Kind = "key_not_found"
	NotFound          Kind = "not_found"
	AgreementDrift    Kind = "agreement_drift"
	NotASigner        Kind = "not_a_signer"
	DuplicateSigner   Kind = "duplicate_signature"
	DNSUnvalidated    Kind = "dns_unvalidated"
	DNSRequired       Kind = "dns_required"
	RemoteUnavailable Kind = "remote_unavailable"
	AgentNotTrusted   Kind = "agent_not_trusted"
)

// Error is the structured error every package in this module returns.
// It carries a stable Kind for programmatic handling, a human-readable
// Detail, and an optional wrapped cause for %w-chaining.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns a Kind-tagged error with no wrapped cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap returns a Kind-tagged error wrapping cause, or nil if cause is nil.
func Wrap(kind Kind, detail string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// Is reports whether err is a *Error of the given Kind, unwrapping
// through any chain of wrapped causes.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		break
	}
	return false
}
