package document

import (
	"context"
	"math"

	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// FileInput is a caller-supplied attachment before it is turned into a
// signed jacsFiles record.
type FileInput struct {
	Filename string
	MimeType string
	Content  []byte
	Embed    bool
}

// applyAttachments computes each file's hash and, per SPEC_FULL.md's
// resolution of spec.md §9's Open Question, always includes the full
// record (filename, mimeType, sha256, embedded, and content when
// present) in the signed domain — never just the raw bytes. A
// non-embedded file's bytes go to e.Blobs, keyed by the same digest
// recorded in jacsFiles, when a blob store is configured.
func (e *Engine) applyAttachments(ctx context.Context, doc map[string]interface{}, opts CreateOptions) error {
	if len(opts.Files) > 0 {
		records := make([]header.FileRecord, 0, len(opts.Files))
		for _, f := range opts.Files {
			rec := header.FileRecord{
				Filename: f.Filename,
				MimeType: f.MimeType,
				SHA256:   hashHex(f.Content),
				Embedded: f.Embed,
			}
			if f.Embed {
				rec.Content = encodeBase64(f.Content)
			} else if e.Blobs != nil {
				if _, err := e.Blobs.Put(ctx, f.Content); err != nil {
					return jacserr.Wrap(jacserr.NotFound, "create: persisting attachment blob failed", err)
				}
			}
			records = append(records, rec)
		}
		doc["jacsFiles"] = records
	}

	if len(opts.Embeddings) > 0 {
		if err := validateEmbeddings(opts.Embeddings); err != nil {
			return err
		}
		doc["jacsEmbedding"] = opts.Embeddings
	}
	return nil
}

// validateEmbeddings enforces the structural contract SPEC_FULL.md adds
// for jacsEmbedding: a non-empty LLM identifier and a non-empty vector
// of finite elements. Embeddings are never computed here — only
// structurally checked, since computing them is a model-calling concern
// out of this engine's scope.
func validateEmbeddings(embeddings []header.Embedding) error {
	for _, e := range embeddings {
		if e.LLM == "" {
			return jacserr.New(jacserr.SchemaViolation, "jacsEmbedding entry missing llm identifier")
		}
		if len(e.Vector) == 0 {
			return jacserr.New(jacserr.SchemaViolation, "jacsEmbedding entry has empty vector")
		}
		for _, v := range e.Vector {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return jacserr.New(jacserr.SchemaViolation, "jacsEmbedding vector contains a non-finite element")
			}
		}
	}
	return nil
}
