// Package document implements the JACS document engine: create, verify,
// update, and verify-by-id over a JSON value, coordinating the
// canonicalizer, crypto suite, header engine, and schema validator.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hai-ai/jacs-go/pkg/attachment"
	"github.com/hai-ai/jacs-go/pkg/canonicalize"
	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
	"github.com/hai-ai/jacs-go/pkg/schema"
	"github.com/hai-ai/jacs-go/pkg/storage"
)

// KeyResolver turns a signature's (agentID, publicKeyHash) pair into a
// trusted public key; the embedded key is only one of its candidates.
// pkg/resolver.Chain satisfies this interface by duck typing; this
// package never imports pkg/resolver directly, so a caller that only
// needs local trust-store resolution doesn't pull in DNS/HTTP/Redis.
type KeyResolver interface {
	Resolve(ctx context.Context, agentID, publicKeyHash string, embeddedPublicKey []byte) ([]byte, error)
}

// Engine is a document-engine handle: one signer bound to one key pair,
// one storage backend, one schema validator. Per spec.md §5's
// concurrency model, callers that need independent key material use
// independent Engines rather than sharing one across agents.
type Engine struct {
	Signer       crypto.Signer
	AgentID      string
	AgentVersion string
	Storage      storage.Store
	Validator    *schema.Validator

	// Blobs, when set, persists the content of any FileInput with
	// Embed == false. Left nil, non-embedded attachments are hashed into
	// their jacsFiles record but their bytes are not retained anywhere —
	// fine for callers that already hold the file elsewhere and only
	// want JACS's integrity record.
	Blobs attachment.Store
}

// CreateOptions carries every optional input to Create/Update.
type CreateOptions struct {
	JacsType       string
	JacsLevel      header.Level
	CustomSchema   []byte
	Files          []FileInput
	Embeddings     []header.Embedding
	OutputFilename string
	NoSave         bool

	// PresetJacsID, when non-empty, overrides the freshly generated
	// jacsId — used by the agent engine, whose documents are
	// self-referential: the signature's agentID must equal the
	// document's own jacsId, which has to be known before signing.
	PresetJacsID string
}

func (o CreateOptions) jacsType() string {
	if o.JacsType == "" {
		return "message"
	}
	return o.JacsType
}

func (o CreateOptions) jacsLevel() header.Level {
	if o.JacsLevel == "" {
		return header.LevelArtifact
	}
	return o.JacsLevel
}

// Create implements spec.md §4.3.a.
func (e *Engine) Create(ctx context.Context, content map[string]interface{}, opts CreateOptions) (map[string]interface{}, error) {
	h := header.NewHeader(opts.jacsType(), opts.jacsLevel())

	doc, err := mergeHeader(content, h)
	if err != nil {
		return nil, err
	}
	if opts.PresetJacsID != "" {
		doc["jacsId"] = opts.PresetJacsID
	}

	if err := e.applyAttachments(ctx, doc, opts); err != nil {
		return nil, err
	}

	if err := e.validate(doc, opts); err != nil {
		return nil, err
	}

	if err := e.signAndHash(doc); err != nil {
		return nil, err
	}

	if err := e.persist(ctx, doc, opts); err != nil {
		return nil, err
	}

	return doc, nil
}

// Update implements spec.md §4.3.c.
func (e *Engine) Update(ctx context.Context, jacsID, jacsVersion string, content map[string]interface{}, opts CreateOptions) (map[string]interface{}, error) {
	if e.Storage == nil {
		return nil, jacserr.New(jacserr.NotFound, "update: no storage adapter configured")
	}
	priorData, err := e.Storage.Get(ctx, jacsID, jacsVersion)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.NotFound, fmt.Sprintf("update: no document %s:%s", jacsID, jacsVersion), err)
	}
	var prior map[string]interface{}
	if err := json.Unmarshal(priorData, &prior); err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "update: prior document is not valid JSON", err)
	}

	priorLevel, _ := prior["jacsLevel"].(string)
	if err := header.ValidateRawUpdate(header.Header{JacsLevel: header.Level(priorLevel)}); err != nil {
		return nil, jacserr.Wrap(jacserr.RawImmutable, "update: raw-level documents are immutable", err)
	}

	contentAgreement, hasContentAgreement := content["jacsAgreement"]
	contentAgreementHash := content["jacsAgreementHash"]

	doc, err := mergeHeader(content, header.Header{})
	if err != nil {
		return nil, err
	}
	delete(doc, "jacsAgreement")
	delete(doc, "jacsAgreementHash")

	doc["jacsId"] = prior["jacsId"]
	doc["jacsOriginalVersion"] = prior["jacsOriginalVersion"]
	doc["jacsOriginalDate"] = prior["jacsOriginalDate"]
	doc["jacsPreviousVersion"] = prior["jacsVersion"]
	doc["jacsVersion"] = uuid.NewString()
	doc["jacsVersionDate"] = time.Now().UTC().Format(time.RFC3339)
	if jt, ok := prior["jacsType"]; ok && opts.JacsType == "" {
		doc["jacsType"] = jt
	} else {
		doc["jacsType"] = opts.jacsType()
	}
	if jl, ok := prior["jacsLevel"]; ok && opts.JacsLevel == "" {
		doc["jacsLevel"] = jl
	} else {
		doc["jacsLevel"] = opts.jacsLevel()
	}
	// jacsAgreement is a caller-managed overlay, not ordinary content: a
	// plain content update leaves the prior version's agreement (if any)
	// untouched, but the agreement engine explicitly threads its own
	// jacsAgreement/jacsAgreementHash through content to create or append
	// to it, and that explicit value always wins.
	if hasContentAgreement {
		doc["jacsAgreement"] = contentAgreement
		doc["jacsAgreementHash"] = contentAgreementHash
	} else if agreement, ok := prior["jacsAgreement"]; ok {
		doc["jacsAgreement"] = agreement
		doc["jacsAgreementHash"] = prior["jacsAgreementHash"]
	}

	if err := e.applyAttachments(ctx, doc, opts); err != nil {
		return nil, err
	}
	if err := e.validate(doc, opts); err != nil {
		return nil, err
	}
	if err := e.signAndHash(doc); err != nil {
		return nil, err
	}
	if err := e.persist(ctx, doc, opts); err != nil {
		return nil, err
	}
	return doc, nil
}

// mergeHeader flattens h's JSON-tagged fields on top of content, so the
// reserved jacs* fields live at the same top level as caller content.
func mergeHeader(content map[string]interface{}, h header.Header) (map[string]interface{}, error) {
	doc := make(map[string]interface{}, len(content)+8)
	for k, v := range content {
		doc[k] = v
	}
	hdrBytes, err := json.Marshal(h)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "create: header serialization failed", err)
	}
	var hdrMap map[string]interface{}
	if err := json.Unmarshal(hdrBytes, &hdrMap); err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "create: header deserialization failed", err)
	}
	for k, v := range hdrMap {
		doc[k] = v
	}
	return doc, nil
}

func (e *Engine) validate(doc map[string]interface{}, opts CreateOptions) error {
	if e.Validator == nil {
		return nil
	}
	jacsType, _ := doc["jacsType"].(string)
	if _, err := e.Validator.Validate(jacsType, doc, opts.CustomSchema); err != nil {
		return jacserr.Wrap(jacserr.SchemaViolation, "document failed schema validation", err)
	}
	return nil
}

// signAndHash implements spec.md §4.3.a steps 4–5: sign the document
// minus the signature-covered fields, then hash the document minus only
// the hash field, in that order, so the hash covers the signature.
func (e *Engine) signAndHash(doc map[string]interface{}) error {
	stripped := canonicalize.StripFields(doc, header.SignatureCoveredFields()...)
	payload, err := canonicalize.JCS(stripped)
	if err != nil {
		return jacserr.Wrap(jacserr.MalformedJSON, "sign: canonicalization failed", err)
	}

	sig, err := e.Signer.Sign(payload)
	if err != nil {
		return jacserr.Wrap(jacserr.InvalidSignature, "sign: signing failed", err)
	}
	pubKey, err := e.Signer.PublicKeyBytes()
	if err != nil {
		return jacserr.Wrap(jacserr.CorruptKey, "sign: could not read public key", err)
	}

	sigJSON, err := json.Marshal(header.Signature{
		AgentID:       e.AgentID,
		AgentVersion:  e.AgentVersion,
		Date:          time.Now().UTC(),
		Signature:     encodeBase64(sig),
		PublicKey:     encodeBase64(pubKey),
		PublicKeyHash: hashHex(pubKey),
		Algorithm:     string(e.Signer.Algorithm()),
		Fields:        canonicalize.SortedKeys(stripped),
	})
	if err != nil {
		return jacserr.Wrap(jacserr.MalformedJSON, "sign: signature serialization failed", err)
	}
	var sigMap map[string]interface{}
	if err := json.Unmarshal(sigJSON, &sigMap); err != nil {
		return jacserr.Wrap(jacserr.MalformedJSON, "sign: signature deserialization failed", err)
	}
	doc["jacsSignature"] = sigMap

	hashStripped := canonicalize.StripFields(doc, header.HashCoveredFields()...)
	hash, err := canonicalize.CanonicalHash(hashStripped)
	if err != nil {
		return jacserr.Wrap(jacserr.MalformedJSON, "hash: canonicalization failed", err)
	}
	doc["jacsSha256"] = hash
	return nil
}

func (e *Engine) persist(ctx context.Context, doc map[string]interface{}, opts CreateOptions) error {
	if !opts.NoSave {
		if e.Storage == nil {
			return jacserr.New(jacserr.NotFound, "create: noSave is false but no storage adapter configured")
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return jacserr.Wrap(jacserr.MalformedJSON, "create: document serialization failed", err)
		}
		jacsID, _ := doc["jacsId"].(string)
		jacsVersion, _ := doc["jacsVersion"].(string)
		if err := e.Storage.Put(ctx, jacsID, jacsVersion, data); err != nil {
			return fmt.Errorf("document: persist failed: %w", err)
		}
	}
	if opts.OutputFilename != "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return jacserr.Wrap(jacserr.MalformedJSON, "create: document serialization failed", err)
		}
		if err := os.WriteFile(opts.OutputFilename, data, 0o644); err != nil {
			return fmt.Errorf("document: write output file failed: %w", err)
		}
	}
	return nil
}
