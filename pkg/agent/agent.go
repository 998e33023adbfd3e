// Package agent implements the JACS agent engine: an agent document is the
// root-of-trust attestation an identity carries — a fresh key pair whose
// public half is embedded in the document and whose private half the
// caller stores (plain or enveloped via pkg/kms), with the document
// self-signed by that same key pair.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hai-ai/jacs-go/pkg/canonicalize"
	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/document"
	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// Contact is one entry of jacsContacts.
type Contact struct {
	ContactType string `json:"contactType"`
	Identifier  string `json:"identifier"`
}

// Service is one entry of jacsServices; shape is caller-defined beyond the
// reserved fields, so it travels as a free-form map.
type Service map[string]interface{}

// Profile is the agent-specific payload merged into the document alongside
// the reserved jacs* header fields.
type Profile struct {
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	JacsAgentType   string    `json:"jacsAgentType"`
	JacsAgentDomain string    `json:"jacsAgentDomain,omitempty"`
	JacsServices    []Service `json:"jacsServices,omitempty"`
	JacsContacts    []Contact `json:"jacsContacts,omitempty"`
}

// GeneratedKey is returned by CreateAgent alongside the document: the raw
// private key bytes the caller is responsible for persisting (plain or
// sealed via kms.SealPrivateKey), since the document engine never writes
// key material to storage itself.
type GeneratedKey struct {
	Algorithm       crypto.Algorithm
	PrivateKeyBytes []byte
}

// CreateAgent implements spec.md §4.4: generate a fresh key pair, embed its
// public half in a new jacsType="agent" document, and self-sign it so the
// document's jacsSignature.agentID equals the document's own jacsId.
func CreateAgent(ctx context.Context, eng *document.Engine, alg crypto.Algorithm, profile Profile, opts document.CreateOptions) (map[string]interface{}, *GeneratedKey, error) {
	signer, privateKeyBytes, err := crypto.GenerateKey(alg)
	if err != nil {
		return nil, nil, jacserr.Wrap(jacserr.UnknownAlgorithm, "createAgent: key generation failed", err)
	}

	id := uuid.NewString()

	eng.Signer = signer
	eng.AgentID = id

	content, err := profileToContent(profile)
	if err != nil {
		return nil, nil, err
	}

	opts.JacsType = "agent"
	opts.PresetJacsID = id

	doc, err := eng.Create(ctx, content, opts)
	if err != nil {
		return nil, nil, err
	}

	return doc, &GeneratedKey{Algorithm: alg, PrivateKeyBytes: privateKeyBytes}, nil
}

// VerifyAgent runs spec.md §4.3.b against an agent document using the key
// embedded in the document itself — the check certifies the document has
// not been tampered with since the owner signed it, independent of any
// external trust decision.
func VerifyAgent(ctx context.Context, eng *document.Engine, doc map[string]interface{}) (*document.Report, error) {
	return eng.Verify(ctx, doc, nil)
}

// UpdateAgent runs spec.md §4.3.c with agent-schema validation, identical
// to document.Engine.Update but pinned to jacsType="agent".
func UpdateAgent(ctx context.Context, eng *document.Engine, jacsID, jacsVersion string, profile Profile, opts document.CreateOptions) (map[string]interface{}, error) {
	content, err := profileToContent(profile)
	if err != nil {
		return nil, err
	}
	opts.JacsType = "agent"
	return eng.Update(ctx, jacsID, jacsVersion, content, opts)
}

// SignAgent countersigns externalAgent's document with eng's key pair,
// producing a jacsRegistration signature — a registrar-style attestation
// distinct from the document's own jacsSignature. Per the registration
// signing domain, only jacsRegistration itself is stripped before
// canonicalizing, leaving the target's jacsSignature and jacsSha256 inside
// the signed bytes: the registrar attests to the document as already
// signed and hashed by its owner.
func SignAgent(eng *document.Engine, externalAgent map[string]interface{}) error {
	stripped := canonicalize.StripFields(externalAgent, header.RegistrationCoveredFields()...)
	payload, err := canonicalize.JCS(stripped)
	if err != nil {
		return jacserr.Wrap(jacserr.MalformedJSON, "signAgent: canonicalization failed", err)
	}

	sig, err := eng.Signer.Sign(payload)
	if err != nil {
		return jacserr.Wrap(jacserr.InvalidSignature, "signAgent: signing failed", err)
	}
	pubKey, err := eng.Signer.PublicKeyBytes()
	if err != nil {
		return jacserr.Wrap(jacserr.CorruptKey, "signAgent: could not read public key", err)
	}

	externalAgent["jacsRegistration"] = registrationSignature(eng, sig, pubKey, stripped)
	return nil
}

func registrationSignature(eng *document.Engine, sig, pubKey []byte, stripped map[string]interface{}) header.Signature {
	return header.Signature{
		AgentID:       eng.AgentID,
		AgentVersion:  eng.AgentVersion,
		Date:          time.Now().UTC(),
		Signature:     encodeBase64(sig),
		PublicKey:     encodeBase64(pubKey),
		PublicKeyHash: hashHex(pubKey),
		Algorithm:     string(eng.Signer.Algorithm()),
		Fields:        canonicalize.SortedKeys(stripped),
	}
}

func profileToContent(p Profile) (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "agent: profile serialization failed", err)
	}
	var content map[string]interface{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "agent: profile deserialization failed", err)
	}
	return content, nil
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
