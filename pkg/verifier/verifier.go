// Package verifier provides offline JACS document verification.
//
// This package is intentionally minimal with ZERO server, database, or
// network dependencies. It is designed to be buildable and auditable as a
// standalone verification tool that a third party can run against a single
// JSON file without trusting anything but the cryptographic primitives
// (the registered crypto.Suite implementations, SHA-256, and RFC 8785
// canonicalization) and the JACS document format itself.
//
// Trust model: the verifier checks that signatures are cryptographically
// valid and that content hashes match. It does NOT decide whether a
// signer's key should be trusted — pass a TrustChecker (typically backed
// by pkg/trust) if that policy decision is in scope for the caller.
package verifier

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hai-ai/jacs-go/pkg/canonicalize"
	"github.com/hai-ai/jacs-go/pkg/crypto"
)

// VerifierVersion is reported in every VerifyReport for audit trail
// purposes; bump it whenever a check is added, removed, or changes
// semantics.
const VerifierVersion = "1.0.0"

// VerifyReport is the structured result of offline verification.
type VerifyReport struct {
	Document    string        `json:"document"`
	Verified    bool          `json:"verified"`
	Timestamp   time.Time     `json:"timestamp"`
	Checks      []CheckResult `json:"checks"`
	Summary     string        `json:"summary"`
	IssueCount  int           `json:"issueCount"`
	VerifierVer string        `json:"verifierVersion"`
}

// CheckResult is the outcome of a single verification check.
type CheckResult struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// TrustChecker decides whether a public key is an acceptable signer for an
// agent ID. Implementations typically wrap pkg/trust.Store, but the
// verifier never imports it directly, keeping this package's dependency
// surface to crypto and canonicalize only.
type TrustChecker interface {
	IsTrusted(agentID string, publicKey []byte) (bool, error)
}

// VerifyDocumentFile reads path as a JSON document and verifies it. trust
// may be nil, in which case the trusted-signer check is skipped and only
// cryptographic and structural checks run.
func VerifyDocumentFile(path string, trust TrustChecker) (*VerifyReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verifier: read document: %w", err)
	}
	report, err := VerifyDocumentBytes(data, trust)
	if err != nil {
		return nil, err
	}
	report.Document = path
	return report, nil
}

// VerifyDocumentBytes verifies a JSON-encoded JACS document held entirely
// in memory.
func VerifyDocumentBytes(data []byte, trust TrustChecker) (*VerifyReport, error) {
	report := &VerifyReport{
		Verified:    true,
		Timestamp:   time.Now().UTC(),
		VerifierVer: VerifierVersion,
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		report.Verified = false
		report.IssueCount = 1
		report.Checks = []CheckResult{{Name: "well_formed_json", Pass: false, Reason: err.Error()}}
		report.Summary = "FAIL: document is not valid JSON"
		return report, nil
	}

	report.addCheck(checkStructure(doc))
	report.addCheck(checkContentHash(doc))
	report.addCheck(checkSignature(doc, "jacsSignature", trust))
	report.addCheck(checkRegistration(doc, trust))
	report.addChecks(checkFileHashes(doc))
	report.addChecks(checkAgreement(doc, trust))
	report.addCheck(checkVersionLineage(doc))

	failed := 0
	for _, c := range report.Checks {
		if !c.Pass {
			failed++
		}
	}
	report.IssueCount = failed
	if failed > 0 {
		report.Verified = false
		report.Summary = fmt.Sprintf("FAIL: %d/%d checks failed", failed, len(report.Checks))
	} else {
		report.Summary = fmt.Sprintf("PASS: %d/%d checks passed", len(report.Checks), len(report.Checks))
	}
	return report, nil
}

func (r *VerifyReport) addCheck(c CheckResult) {
	r.Checks = append(r.Checks, c)
}

func (r *VerifyReport) addChecks(cs []CheckResult) {
	r.Checks = append(r.Checks, cs...)
}

// --- Check implementations ---

func checkStructure(doc map[string]interface{}) CheckResult {
	required := []string{"jacsId", "jacsVersion", "jacsType"}
	var missing []string
	for _, field := range required {
		if _, ok := doc[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return CheckResult{Name: "structure", Pass: false, Reason: fmt.Sprintf("missing required fields: %v", missing)}
	}
	return CheckResult{Name: "structure", Pass: true, Detail: "required header fields present"}
}

// checkContentHash verifies invariant 1: jacsSha256 equals the SHA-256 of
// the document canonicalized with jacsSha256 itself removed.
func checkContentHash(doc map[string]interface{}) CheckResult {
	expected, _ := doc["jacsSha256"].(string)
	if expected == "" {
		return CheckResult{Name: "content_hash", Pass: false, Reason: "missing jacsSha256"}
	}
	stripped := canonicalize.StripFields(doc, "jacsSha256")
	actual, err := canonicalize.CanonicalHash(stripped)
	if err != nil {
		return CheckResult{Name: "content_hash", Pass: false, Reason: err.Error()}
	}
	if actual != expected {
		return CheckResult{Name: "content_hash", Pass: false, Reason: fmt.Sprintf("hash mismatch: expected %s, got %s", expected, actual)}
	}
	return CheckResult{Name: "content_hash", Pass: true, Detail: "jacsSha256 verified"}
}

// checkSignature verifies the detached signature under signatureField
// (normally "jacsSignature") against the document with that field's own
// signing domain stripped before canonicalization (see stripFields below).
func checkSignature(doc map[string]interface{}, signatureField string, trust TrustChecker) CheckResult {
	name := "signature:" + signatureField
	raw, ok := doc[signatureField]
	if !ok {
		return CheckResult{Name: name, Pass: true, Detail: "not present, skipped"}
	}
	sigBlock, ok := raw.(map[string]interface{})
	if !ok {
		return CheckResult{Name: name, Pass: false, Reason: "signature field is not an object"}
	}

	alg, agentID, pubKey, sig, err := extractSignature(sigBlock)
	if err != nil {
		return CheckResult{Name: name, Pass: false, Reason: err.Error()}
	}

	// jacsSignature covers the document minus itself and jacsSha256 (per
	// the data model's invariant 2 — neither exists yet at sign time).
	// jacsRegistration covers the document minus only itself — the
	// registrar countersigns the document as already signed and hashed.
	stripFields := []string{"jacsSignature", "jacsSha256"}
	if signatureField == "jacsRegistration" {
		stripFields = []string{"jacsRegistration"}
	}
	stripped := canonicalize.StripFields(doc, stripFields...)
	payload, err := canonicalize.JCS(stripped)
	if err != nil {
		return CheckResult{Name: name, Pass: false, Reason: fmt.Sprintf("canonicalization failed: %v", err)}
	}

	if err := crypto.Verify(crypto.Algorithm(alg), pubKey, payload, sig); err != nil {
		return CheckResult{Name: name, Pass: false, Reason: fmt.Sprintf("cryptographic verification failed: %v", err)}
	}

	if trust != nil && agentID != "" {
		trusted, err := trust.IsTrusted(agentID, pubKey)
		if err != nil {
			return CheckResult{Name: name, Pass: false, Reason: fmt.Sprintf("trust lookup failed: %v", err)}
		}
		if !trusted {
			return CheckResult{Name: name, Pass: false, Reason: fmt.Sprintf("signer %s is not in the trust store", agentID)}
		}
	}

	return CheckResult{Name: name, Pass: true, Detail: fmt.Sprintf("valid %s signature from %s", alg, agentID)}
}

// checkRegistration verifies the countersignature an agent registrar
// attaches to jacsRegistration, present only on agent documents.
func checkRegistration(doc map[string]interface{}, trust TrustChecker) CheckResult {
	if _, ok := doc["jacsRegistration"]; !ok {
		return CheckResult{Name: "signature:jacsRegistration", Pass: true, Detail: "not present, skipped"}
	}
	return checkSignature(doc, "jacsRegistration", trust)
}

func extractSignature(sigBlock map[string]interface{}) (algorithm, agentID string, pubKey, sig []byte, err error) {
	algorithm, _ = sigBlock["algorithm"].(string)
	if algorithm == "" {
		return "", "", nil, nil, fmt.Errorf("signature missing algorithm")
	}
	agentID, _ = sigBlock["agentID"].(string)

	pubKeyB64, _ := sigBlock["publicKey"].(string)
	if pubKeyB64 == "" {
		return "", "", nil, nil, fmt.Errorf("signature missing publicKey")
	}
	pubKey, err = base64.StdEncoding.DecodeString(pubKeyB64)
	if err != nil {
		return "", "", nil, nil, fmt.Errorf("invalid publicKey encoding: %w", err)
	}

	sigB64, _ := sigBlock["signature"].(string)
	if sigB64 == "" {
		return "", "", nil, nil, fmt.Errorf("signature missing signature value")
	}
	sig, err = base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return "", "", nil, nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	return algorithm, agentID, pubKey, sig, nil
}

// checkFileHashes verifies every entry of jacsFiles carries a sha256
// digest matching the SHA-256 of its base64-decoded content.
func checkFileHashes(doc map[string]interface{}) []CheckResult {
	raw, ok := doc["jacsFiles"]
	if !ok {
		return []CheckResult{{Name: "file_hashes", Pass: true, Detail: "no jacsFiles present"}}
	}
	files, ok := raw.([]interface{})
	if !ok {
		return []CheckResult{{Name: "file_hashes", Pass: false, Reason: "jacsFiles is not an array"}}
	}

	var results []CheckResult
	for i, f := range files {
		entry, ok := f.(map[string]interface{})
		if !ok {
			results = append(results, CheckResult{Name: fmt.Sprintf("file_hash[%d]", i), Pass: false, Reason: "file entry is not an object"})
			continue
		}
		expected, _ := entry["sha256"].(string)
		if expected == "" {
			results = append(results, CheckResult{Name: fmt.Sprintf("file_hash[%d]", i), Pass: false, Reason: "missing sha256"})
			continue
		}
		contentB64, hasContent := entry["content"].(string)
		if !hasContent {
			results = append(results, CheckResult{Name: fmt.Sprintf("file_hash[%d]", i), Pass: false, Reason: "missing content field"})
			continue
		}
		content, err := base64.StdEncoding.DecodeString(contentB64)
		if err != nil {
			results = append(results, CheckResult{Name: fmt.Sprintf("file_hash[%d]", i), Pass: false, Reason: "invalid content encoding: " + err.Error()})
			continue
		}
		actual := canonicalize.HashBytes(content)
		if actual != expected {
			results = append(results, CheckResult{
				Name: fmt.Sprintf("file_hash[%d]", i), Pass: false,
				Reason: fmt.Sprintf("hash mismatch: expected %s, got %s", expected, actual),
			})
			continue
		}
		results = append(results, CheckResult{Name: fmt.Sprintf("file_hash[%d]", i), Pass: true, Detail: "content hash verified"})
	}
	if len(results) == 0 {
		results = append(results, CheckResult{Name: "file_hashes", Pass: true, Detail: "jacsFiles is empty"})
	}
	return results
}

// checkAgreement verifies jacsAgreementHash and every signer's signature
// over the frozen agreement content domain, when an agreement is present.
func checkAgreement(doc map[string]interface{}, trust TrustChecker) []CheckResult {
	raw, ok := doc["jacsAgreement"]
	if !ok {
		return []CheckResult{{Name: "agreement", Pass: true, Detail: "no jacsAgreement present"}}
	}
	agreement, ok := raw.(map[string]interface{})
	if !ok {
		return []CheckResult{{Name: "agreement", Pass: false, Reason: "jacsAgreement is not an object"}}
	}

	var results []CheckResult

	expectedHash, _ := agreement["jacsAgreementHash"].(string)
	if expectedHash != "" {
		domain := canonicalize.StripFields(agreement, "jacsAgreementHash", "signatures")
		actualHash, err := canonicalize.CanonicalHash(domain)
		if err != nil {
			results = append(results, CheckResult{Name: "agreement_hash", Pass: false, Reason: err.Error()})
		} else if actualHash != expectedHash {
			results = append(results, CheckResult{
				Name: "agreement_hash", Pass: false,
				Reason: fmt.Sprintf("hash mismatch: expected %s, got %s", expectedHash, actualHash),
			})
		} else {
			results = append(results, CheckResult{Name: "agreement_hash", Pass: true, Detail: "agreement content hash verified"})
		}
	}

	sigsRaw, ok := agreement["signatures"].([]interface{})
	if !ok || len(sigsRaw) == 0 {
		results = append(results, CheckResult{Name: "agreement_signatures", Pass: true, Detail: "no signatures yet"})
		return results
	}

	domain := canonicalize.StripFields(agreement, "jacsAgreementHash", "signatures")
	payload, err := canonicalize.JCS(domain)
	if err != nil {
		return append(results, CheckResult{Name: "agreement_signatures", Pass: false, Reason: err.Error()})
	}

	for i, s := range sigsRaw {
		sigBlock, ok := s.(map[string]interface{})
		if !ok {
			results = append(results, CheckResult{Name: fmt.Sprintf("agreement_signature[%d]", i), Pass: false, Reason: "signature entry is not an object"})
			continue
		}
		alg, agentID, pubKey, sig, err := extractSignature(sigBlock)
		if err != nil {
			results = append(results, CheckResult{Name: fmt.Sprintf("agreement_signature[%d]", i), Pass: false, Reason: err.Error()})
			continue
		}
		if err := crypto.Verify(crypto.Algorithm(alg), pubKey, payload, sig); err != nil {
			results = append(results, CheckResult{Name: fmt.Sprintf("agreement_signature[%d]", i), Pass: false, Reason: err.Error()})
			continue
		}
		if trust != nil {
			trusted, err := trust.IsTrusted(agentID, pubKey)
			if err != nil {
				results = append(results, CheckResult{Name: fmt.Sprintf("agreement_signature[%d]", i), Pass: false, Reason: err.Error()})
				continue
			}
			if !trusted {
				results = append(results, CheckResult{Name: fmt.Sprintf("agreement_signature[%d]", i), Pass: false, Reason: fmt.Sprintf("signer %s is not in the trust store", agentID)})
				continue
			}
		}
		results = append(results, CheckResult{Name: fmt.Sprintf("agreement_signature[%d]", i), Pass: true, Detail: fmt.Sprintf("valid signature from %s", agentID)})
	}
	return results
}

// checkVersionLineage performs structural checks on the jacsVersion family
// of fields, without requiring access to prior document versions.
func checkVersionLineage(doc map[string]interface{}) CheckResult {
	version, _ := doc["jacsVersion"].(string)
	if version == "" {
		return CheckResult{Name: "version_lineage", Pass: false, Reason: "jacsVersion missing or empty"}
	}
	return CheckResult{Name: "version_lineage", Pass: true, Detail: "version fields structurally present"}
}
