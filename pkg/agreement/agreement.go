// Package agreement implements the JACS multi-party agreement overlay:
// a frozen set of required signers collecting signatures over a document
// domain whose hash is fixed the moment the agreement is created.
package agreement

import (
	"context"
	"time"

	"github.com/hai-ai/jacs-go/pkg/canonicalize"
	"github.com/hai-ai/jacs-go/pkg/document"
	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

const defaultFieldName = "jacsAgreement"
const defaultHashFieldName = "jacsAgreementHash"

// Status is the result of Check: who is required, who has signed, who is
// still pending, and whether every required signer has signed.
type Status struct {
	Required []string
	Signed   []SignedBy
	Pending  []string
	Complete bool
}

// SignedBy is one entry of Status.Signed.
type SignedBy struct {
	AgentID string
	Date    time.Time
}

// CreateAgreement implements spec.md §4.5's create step: attach a frozen
// jacsAgreement overlay to doc, freeze jacsAgreementHash over the
// agreement domain with an empty signatures array, then re-sign and
// re-hash the enclosing document.
func CreateAgreement(ctx context.Context, eng *document.Engine, doc map[string]interface{}, agentIDs []string, question, agreeContext string, opts document.CreateOptions) (map[string]interface{}, error) {
	if len(agentIDs) == 0 {
		return nil, jacserr.New(jacserr.MalformedJSON, "createAgreement: agentIDs must not be empty")
	}

	agreement := header.Agreement{
		AgentIDs:   agentIDs,
		Question:   question,
		Context:    agreeContext,
		Signatures: []header.Signature{},
	}

	agreementMap, err := toMap(agreement)
	if err != nil {
		return nil, err
	}
	hash, err := canonicalize.CanonicalHash(canonicalize.StripFields(agreementMap, "signatures"))
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "createAgreement: canonicalization failed", err)
	}
	agreementMap["jacsAgreementHash"] = hash

	jacsID, _ := doc["jacsId"].(string)
	jacsVersion, _ := doc["jacsVersion"].(string)
	content := stripHeaderFields(doc)
	content[defaultFieldName] = agreementMap
	content[defaultHashFieldName] = hash

	if jacsID == "" || jacsVersion == "" {
		return eng.Create(ctx, content, opts)
	}
	return eng.Update(ctx, jacsID, jacsVersion, content, opts)
}

// SignAgreement implements spec.md §4.5's sign step: append eng's
// signature over the frozen agreement domain, then re-sign and re-hash
// the enclosing document.
func SignAgreement(ctx context.Context, eng *document.Engine, doc map[string]interface{}, opts document.CreateOptions) (map[string]interface{}, error) {
	agreementRaw, ok := doc[defaultFieldName].(map[string]interface{})
	if !ok {
		return nil, jacserr.New(jacserr.MalformedJSON, "signAgreement: no jacsAgreement present")
	}

	domain := canonicalize.StripFields(agreementRaw, "jacsAgreementHash", "signatures")
	actualHash, err := canonicalize.CanonicalHash(domain)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "signAgreement: canonicalization failed", err)
	}
	expectedHash, _ := agreementRaw["jacsAgreementHash"].(string)
	if expectedHash == "" || actualHash != expectedHash {
		return nil, jacserr.New(jacserr.AgreementDrift, "signAgreement: locally computed agreement hash differs from jacsAgreementHash")
	}

	agentIDs, _ := toStringSlice(agreementRaw["agentIDs"])
	if !contains(agentIDs, eng.AgentID) {
		return nil, jacserr.New(jacserr.NotASigner, "signAgreement: agent is not among the agreement's required signers")
	}

	existingSigs, _ := agreementRaw["signatures"].([]interface{})
	for _, raw := range existingSigs {
		sig, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if sig["agentID"] == eng.AgentID {
			return nil, jacserr.New(jacserr.DuplicateSigner, "signAgreement: agent has already signed this agreement")
		}
	}

	payload, err := canonicalize.JCS(domain)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "signAgreement: canonicalization failed", err)
	}
	sigBytes, err := eng.Signer.Sign(payload)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.InvalidSignature, "signAgreement: signing failed", err)
	}
	pubKey, err := eng.Signer.PublicKeyBytes()
	if err != nil {
		return nil, jacserr.Wrap(jacserr.CorruptKey, "signAgreement: could not read public key", err)
	}

	newSig := map[string]interface{}{
		"agentID":       eng.AgentID,
		"agentVersion":  eng.AgentVersion,
		"date":          time.Now().UTC().Format(time.RFC3339),
		"signature":     encodeBase64(sigBytes),
		"publicKey":     encodeBase64(pubKey),
		"publicKeyHash": hashHex(pubKey),
		"algorithm":     string(eng.Signer.Algorithm()),
		"fields":        canonicalize.SortedKeys(domain),
	}
	// Signatures are appended, never re-sorted: the agreement overlay
	// preserves the order signers actually signed in.
	appended := append([]interface{}{}, existingSigs...)
	appended = append(appended, newSig)
	agreementRaw["signatures"] = appended

	jacsID, _ := doc["jacsId"].(string)
	jacsVersion, _ := doc["jacsVersion"].(string)
	content := stripHeaderFields(doc)
	content[defaultFieldName] = agreementRaw
	content[defaultHashFieldName] = expectedHash

	return eng.Update(ctx, jacsID, jacsVersion, content, opts)
}

// CheckAgreement implements spec.md §4.5's check step.
func CheckAgreement(doc map[string]interface{}) (*Status, error) {
	agreementRaw, ok := doc[defaultFieldName].(map[string]interface{})
	if !ok {
		return nil, jacserr.New(jacserr.MalformedJSON, "checkAgreement: no jacsAgreement present")
	}
	agentIDs, _ := toStringSlice(agreementRaw["agentIDs"])
	sigsRaw, _ := agreementRaw["signatures"].([]interface{})

	signedSet := make(map[string]time.Time, len(sigsRaw))
	var signed []SignedBy
	for _, raw := range sigsRaw {
		sig, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		agentID, _ := sig["agentID"].(string)
		dateStr, _ := sig["date"].(string)
		date, _ := time.Parse(time.RFC3339, dateStr)
		signedSet[agentID] = date
		signed = append(signed, SignedBy{AgentID: agentID, Date: date})
	}

	var pending []string
	for _, id := range agentIDs {
		if _, ok := signedSet[id]; !ok {
			pending = append(pending, id)
		}
	}

	return &Status{
		Required: agentIDs,
		Signed:   signed,
		Pending:  pending,
		Complete: len(pending) == 0,
	}, nil
}

func stripHeaderFields(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	delete(out, "jacsSignature")
	delete(out, "jacsSha256")
	delete(out, "jacsRegistration")
	delete(out, defaultFieldName)
	delete(out, defaultHashFieldName)
	return out
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func toStringSlice(v interface{}) ([]string, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out, true
}
