// Package observability provides JACS-specific instrumentation helpers.
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JACS semantic convention attributes.
var (
	// Document attributes
	AttrDocumentID      = attribute.Key("jacs.document.id")
	AttrDocumentVersion = attribute.Key("jacs.document.version")
	AttrDocumentType    = attribute.Key("jacs.document.type")
	AttrOperation       = attribute.Key("jacs.document.operation")

	// Signature attributes
	AttrSignerID  = attribute.Key("jacs.signature.agent_id")
	AttrAlgorithm = attribute.Key("jacs.signature.algorithm")
	AttrOutcome   = attribute.Key("jacs.signature.outcome")

	// Resolver attributes
	AttrResolverStrategy  = attribute.Key("jacs.resolver.strategy")
	AttrResolverOutcome   = attribute.Key("jacs.resolver.outcome")
	AttrResolverLatencyMs = attribute.Key("jacs.resolver.latency_ms")

	// Agreement attributes
	AttrAgreementHash  = attribute.Key("jacs.agreement.hash")
	AttrAgreementStatus = attribute.Key("jacs.agreement.status")
	AttrSignerCount    = attribute.Key("jacs.agreement.signer_count")

	// Crypto attributes
	AttrCryptoAlgorithm = attribute.Key("jacs.crypto.algorithm")
	AttrCryptoOperation = attribute.Key("jacs.crypto.operation")
	AttrCryptoKeyHash   = attribute.Key("jacs.crypto.key_hash")
)

// DocumentOperation builds attributes for a create/update/verify call over
// one document version.
func DocumentOperation(jacsID, jacsVersion, jacsType, operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrDocumentID.String(jacsID),
		AttrDocumentVersion.String(jacsVersion),
		AttrDocumentType.String(jacsType),
		AttrOperation.String(operation),
	}
}

// SignatureOperation builds attributes for a sign or verify-signature
// step.
func SignatureOperation(agentID, algorithm, outcome string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSignerID.String(agentID),
		AttrAlgorithm.String(algorithm),
		AttrOutcome.String(outcome),
	}
}

// ResolverOperation builds attributes for one key-resolution strategy
// attempt in pkg/resolver's chain.
func ResolverOperation(strategy, outcome string, latencyMs float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrResolverStrategy.String(strategy),
		AttrResolverOutcome.String(outcome),
		AttrResolverLatencyMs.Float64(latencyMs),
	}
}

// AgreementOperation builds attributes for an agreement status
// transition.
func AgreementOperation(agreementHash, status string, signerCount int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrAgreementHash.String(agreementHash),
		AttrAgreementStatus.String(status),
		AttrSignerCount.Int64(signerCount),
	}
}

// CryptoOperation builds attributes for a raw crypto.Suite operation
// (key generation, sign, verify) outside the document engine, e.g. key
// rotation tooling.
func CryptoOperation(algorithm, operation, keyHash string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCryptoAlgorithm.String(algorithm),
		AttrCryptoOperation.String(operation),
		AttrCryptoKeyHash.String(keyHash),
	}
}

// LogAdvisory emits a structured warning-level log entry for a condition
// worth flagging (e.g. signing or verifying under a deprecated algorithm)
// without interrupting the call that triggered it. Unlike AddSpanEvent,
// this does not require an active span in scope, so callers deep in a
// library call chain (pkg/crypto's Sign/Verify) that have no context.Context
// to thread can still surface the advisory.
func LogAdvisory(msg string, attrs ...attribute.KeyValue) {
	args := make([]any, 0, len(attrs)*2)
	for _, a := range attrs {
		args = append(args, string(a.Key), a.Value.Emit())
	}
	slog.Default().Warn(msg, args...)
}

// SpanFromContext extracts the active span from ctx.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds a named event to the active span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records err, if any, against the active span.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
}
