package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hai-ai/jacs-go/pkg/canonicalize"
	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// Report is the structured result of Verify, per spec.md §4.3.b: a
// boolean plus a report carrying the signer ID and any errors, never a
// thrown exception.
type Report struct {
	Valid    bool
	SignerID string
	Errors   []string
}

func (r *Report) fail(kind jacserr.Kind, detail string) (*Report, error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", kind, detail))
	return r, nil
}

// Verify implements spec.md §4.3.b. resolver may be nil, in which case
// only the embedded public key is trusted — equivalent to key-resolution
// strategy 2 alone.
func (e *Engine) Verify(ctx context.Context, doc map[string]interface{}, resolver KeyResolver) (*Report, error) {
	report := &Report{}

	expectedHash, _ := doc["jacsSha256"].(string)
	if expectedHash == "" {
		return report.fail(jacserr.HashMismatch, "jacsSha256 missing")
	}
	hashStripped := canonicalize.StripFields(doc, header.HashCoveredFields()...)
	actualHash, err := canonicalize.CanonicalHash(hashStripped)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "verify: canonicalization failed", err)
	}
	if actualHash != expectedHash {
		return report.fail(jacserr.HashMismatch, fmt.Sprintf("jacsSha256 mismatch: expected %s, got %s", expectedHash, actualHash))
	}

	sigRaw, ok := doc["jacsSignature"].(map[string]interface{})
	if !ok {
		return report.fail(jacserr.InvalidSignature, "jacsSignature missing or malformed")
	}
	agentID, _ := sigRaw["agentID"].(string)
	report.SignerID = agentID

	pubKey, alg, sigBytes, err := e.resolveAndDecode(ctx, sigRaw, resolver)
	if err != nil {
		return report.fail(jacserr.KeyHashMismatch, err.Error())
	}

	sigStripped := canonicalize.StripFields(doc, header.SignatureCoveredFields()...)
	payload, err := canonicalize.JCS(sigStripped)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "verify: canonicalization failed", err)
	}
	if err := crypto.Verify(crypto.Algorithm(alg), pubKey, payload, sigBytes); err != nil {
		return report.fail(jacserr.InvalidSignature, "signature verification failed: "+err.Error())
	}

	if agreementRaw, ok := doc["jacsAgreement"].(map[string]interface{}); ok {
		if errs := verifyAgreementSignatures(agreementRaw); len(errs) > 0 {
			for _, e := range errs {
				report.Errors = append(report.Errors, e)
			}
			return report, nil
		}
	}

	report.Valid = true
	return report, nil
}

// resolveAndDecode resolves the signer's public key (preferring resolver
// over the embedded key, per spec.md §4.9's strategy chain) and decodes
// the signature fields needed to verify.
func (e *Engine) resolveAndDecode(ctx context.Context, sigRaw map[string]interface{}, resolver KeyResolver) (pubKey []byte, algorithm string, sig []byte, err error) {
	agentID, _ := sigRaw["agentID"].(string)
	pubKeyHash, _ := sigRaw["publicKeyHash"].(string)
	algorithm, _ = sigRaw["algorithm"].(string)
	if algorithm == "" {
		return nil, "", nil, fmt.Errorf("signature missing algorithm")
	}

	embeddedB64, _ := sigRaw["publicKey"].(string)
	embedded, err := decodeBase64(embeddedB64)
	if err != nil {
		return nil, "", nil, fmt.Errorf("signature publicKey is not valid base64: %w", err)
	}

	sigB64, _ := sigRaw["signature"].(string)
	sig, err = decodeBase64(sigB64)
	if err != nil {
		return nil, "", nil, fmt.Errorf("signature value is not valid base64: %w", err)
	}

	if resolver != nil {
		resolved, rerr := resolver.Resolve(ctx, agentID, pubKeyHash, embedded)
		if rerr != nil {
			return nil, "", nil, fmt.Errorf("key resolution failed: %w", rerr)
		}
		return resolved, algorithm, sig, nil
	}
	if pubKeyHash != "" && hashHex(embedded) != pubKeyHash {
		return nil, "", nil, fmt.Errorf("embedded publicKey does not match publicKeyHash")
	}
	return embedded, algorithm, sig, nil
}

// verifyAgreementSignatures re-verifies every signer over the frozen
// agreement domain, per spec.md §4.3.b step 5's deep-verification pass.
func verifyAgreementSignatures(agreement map[string]interface{}) []string {
	expectedHash, _ := agreement["jacsAgreementHash"].(string)
	domain := canonicalize.StripFields(agreement, "jacsAgreementHash", "signatures")
	actualHash, err := canonicalize.CanonicalHash(domain)
	if err != nil {
		return []string{"agreement: canonicalization failed: " + err.Error()}
	}
	if expectedHash != "" && actualHash != expectedHash {
		return []string{fmt.Sprintf("agreement: jacsAgreementHash mismatch: expected %s, got %s", expectedHash, actualHash)}
	}

	sigsRaw, _ := agreement["signatures"].([]interface{})
	if len(sigsRaw) == 0 {
		return nil
	}
	payload, err := canonicalize.JCS(domain)
	if err != nil {
		return []string{"agreement: canonicalization failed: " + err.Error()}
	}

	var errs []string
	for _, raw := range sigsRaw {
		sig, ok := raw.(map[string]interface{})
		if !ok {
			errs = append(errs, "agreement: signature entry is not an object")
			continue
		}
		alg, _ := sig["algorithm"].(string)
		pubKeyB64, _ := sig["publicKey"].(string)
		sigB64, _ := sig["signature"].(string)
		pubKey, err := decodeBase64(pubKeyB64)
		if err != nil {
			errs = append(errs, "agreement: invalid publicKey encoding")
			continue
		}
		sigBytes, err := decodeBase64(sigB64)
		if err != nil {
			errs = append(errs, "agreement: invalid signature encoding")
			continue
		}
		if err := crypto.Verify(crypto.Algorithm(alg), pubKey, payload, sigBytes); err != nil {
			agentID, _ := sig["agentID"].(string)
			errs = append(errs, fmt.Sprintf("agreement: invalid signature from %s", agentID))
		}
	}
	return errs
}

// VerifyByID implements spec.md §4.3.d: load by "jacsId:jacsVersion" and
// run Verify.
func (e *Engine) VerifyByID(ctx context.Context, ref string, resolver KeyResolver) (*Report, error) {
	jacsID, jacsVersion, err := splitRef(ref)
	if err != nil {
		return nil, err
	}
	if e.Storage == nil {
		return nil, jacserr.New(jacserr.NotFound, "verifyByID: no storage adapter configured")
	}
	data, err := e.Storage.Get(ctx, jacsID, jacsVersion)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.NotFound, fmt.Sprintf("verifyByID: no document %s", ref), err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "verifyByID: stored document is not valid JSON", err)
	}
	return e.Verify(ctx, doc, resolver)
}

func splitRef(ref string) (jacsID, jacsVersion string, err error) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:], nil
		}
	}
	return "", "", fmt.Errorf(`verifyByID: expected "jacsId:jacsVersion", got %q`, ref)
}
