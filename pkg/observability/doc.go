// Package observability provides OpenTelemetry tracing and metrics for
// a JACS installation. It implements production-ready observability
// following cloud-native best practices.
//
// # Tracing and metrics
//
// Initialize at application startup, typically from
// pkg/config.Observability's sink selection:
//
//	p, err := observability.New(ctx, observability.FromObservabilitySink(cfg.Observability.Tracing, ""))
//	defer p.Shutdown(ctx)
//
// Track an operation end-to-end:
//
//	ctx, finish := p.TrackOperation(ctx, "document.create", observability.DocumentOperation(id, version, jacsType, "create")...)
//	defer finish(err)
//
// Create spans manually:
//
//	ctx, span := p.StartSpan(ctx, "operation_name")
//	defer span.End()
//
// jacs.go supplies JACS's own semantic attribute helpers
// (DocumentOperation, SignatureOperation, ResolverOperation,
// AgreementOperation, CryptoOperation) on top of the generic Provider.
package observability
