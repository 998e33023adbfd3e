// Package jacs materializes the "Agent handle" spec.md §2 describes:
// given a loaded Config, it wires together the crypto suite, storage
// adapter, schema validator, trust store, and key-resolver chain into one
// Handle, then exposes the document/agent/agreement engines as thin
// methods so a caller never has to hand-assemble pkg/document.Engine
// itself. Bindings and CLIs are expected to wrap exactly this handle
// behind whatever calling convention they need (see spec.md §9's note on
// the "loaded agent" singleton being a binding concern, not a core one).
package jacs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hai-ai/jacs-go/pkg/agent"
	"github.com/hai-ai/jacs-go/pkg/agreement"
	"github.com/hai-ai/jacs-go/pkg/attachment"
	"github.com/hai-ai/jacs-go/pkg/config"
	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/document"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
	"github.com/hai-ai/jacs-go/pkg/observability"
	"github.com/hai-ai/jacs-go/pkg/resolver"
	"github.com/hai-ai/jacs-go/pkg/schema"
	"github.com/hai-ai/jacs-go/pkg/storage"
	"github.com/hai-ai/jacs-go/pkg/trust"
)

// Handle is one agent's loaded state: its signing key, its storage
// backend, its schema validator, its local trust store, and its key
// resolver chain. A Handle holds no lock of its own and the engine it
// wraps does not serialize sign/verify calls, so concurrent calls on one
// Handle are not serialized. Two Handles never share mutable state, so
// independent agents load independent Handles.
type Handle struct {
	Config    *config.Config
	Engine    *document.Engine
	Trust     *trust.Store
	Resolver  *resolver.Chain
	Telemetry *observability.Provider
}

// Option customizes Load beyond what Config alone can express — an
// explicit storage.Store (for the "aws"/"hai" backends, whose bucket/DSN
// settings sit outside spec.md §6's configuration table) or an explicit
// attachment.Store for non-embedded file content.
type Option func(*loadState)

type loadState struct {
	store storage.Store
	blobs attachment.Store
}

// WithStorage overrides the storage backend Load would otherwise select
// from cfg.DefaultStorage. Required for "aws" and "hai", which need
// connection details (bucket, DSN, base URL) Config does not carry.
func WithStorage(store storage.Store) Option {
	return func(s *loadState) { s.store = store }
}

// WithBlobs overrides the attachment.Store Load would otherwise root
// under cfg.DataDirectory — e.g. to point non-embedded jacsFiles content
// at the same S3 bucket as an "aws" document storage backend.
func WithBlobs(blobs attachment.Store) Option {
	return func(s *loadState) { s.blobs = blobs }
}

// Load builds a Handle from cfg: it opens the trust store and storage
// backend, reads and (if enveloped) decrypts the signing private key,
// and wires a resolver chain honoring cfg's DNS policy bits.
func Load(cfg *config.Config, opts ...Option) (*Handle, error) {
	state := &loadState{}
	for _, opt := range opts {
		opt(state)
	}

	trustStore, err := trust.Open(cfg.KeyDirectory)
	if err != nil {
		return nil, fmt.Errorf("jacs: open trust store: %w", err)
	}

	store := state.store
	if store == nil {
		store, err = defaultStorage(cfg)
		if err != nil {
			return nil, err
		}
	}

	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("jacs: load schemas: %w", err)
	}

	signer, err := loadSigner(cfg)
	if err != nil {
		return nil, err
	}

	blobs := state.blobs
	if blobs == nil {
		blobs, err = attachment.NewFileStore(filepath.Join(cfg.DataDirectory, "attachments"))
		if err != nil {
			return nil, fmt.Errorf("jacs: open attachment store: %w", err)
		}
	}

	chain := &resolver.Chain{
		Trust:       resolver.TrustAdapter{Store: trustStore},
		DNSStrict:   cfg.DNSStrictBool(),
		DNSRequired: cfg.DNSRequiredBool(),
		KeysBaseURL: cfg.KeysBaseURL,
		APIKey:      cfg.APIKey,
	}

	telemetry, err := observability.New(context.Background(), observability.FromObservabilitySink(cfg.Observability.Tracing, ""))
	if err != nil {
		return nil, fmt.Errorf("jacs: init telemetry: %w", err)
	}

	return &Handle{
		Config: cfg,
		Engine: &document.Engine{
			Signer:       signer,
			AgentID:      cfg.AgentID(),
			AgentVersion: cfg.AgentVersion(),
			Storage:      store,
			Validator:    validator,
			Blobs:        blobs,
		},
		Trust:     trustStore,
		Resolver:  chain,
		Telemetry: telemetry,
	}, nil
}

// defaultStorage selects a storage.Store per cfg.DefaultStorage ("fs" |
// "aws" | "hai"); "aws" and "hai" require WithStorage since their
// connection details are not part of spec.md §6's configuration table.
func defaultStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.DefaultStorage {
	case "", "fs":
		return storage.NewFSStore(cfg.DataDirectory)
	case "aws", "hai":
		return nil, jacserr.New(jacserr.ConfigNotFound,
			fmt.Sprintf("jacs: jacs_default_storage=%q requires jacs.WithStorage(...) with backend-specific connection details", cfg.DefaultStorage))
	default:
		return nil, jacserr.New(jacserr.ConfigNotFound, fmt.Sprintf("jacs: unrecognized jacs_default_storage %q", cfg.DefaultStorage))
	}
}

// loadSigner reads the private key file named by cfg, transparently
// unwrapping PEM framing and (if present) a password envelope, and
// constructs a crypto.Signer under cfg.AgentKeyAlgorithm.
func loadSigner(cfg *config.Config) (crypto.Signer, error) {
	privateKeyBytes, err := ReadPrivateKeyFile(cfg.PrivateKeyPath(), cfg.PrivateKeyPassword)
	if err != nil {
		return nil, err
	}

	signer, err := crypto.SignerFromPrivateKey(crypto.Algorithm(cfg.AgentKeyAlgorithm), privateKeyBytes)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.UnknownAlgorithm, "jacs: construct signer", err)
	}
	return signer, nil
}

// CreateDocument implements spec.md §4.3.a.
func (h *Handle) CreateDocument(ctx context.Context, content map[string]interface{}, opts document.CreateOptions) (map[string]interface{}, error) {
	ctx, finish := h.Telemetry.TrackOperation(ctx, "document.create",
		observability.DocumentOperation("", "", opts.JacsType, "create")...)
	doc, err := h.Engine.Create(ctx, content, opts)
	finish(err)
	return doc, err
}

// UpdateDocument implements spec.md §4.3.c.
func (h *Handle) UpdateDocument(ctx context.Context, jacsID, jacsVersion string, content map[string]interface{}, opts document.CreateOptions) (map[string]interface{}, error) {
	return h.Engine.Update(ctx, jacsID, jacsVersion, content, opts)
}

// VerifyDocument implements spec.md §4.3.b, resolving the signer's public
// key through this Handle's resolver chain.
func (h *Handle) VerifyDocument(ctx context.Context, doc map[string]interface{}) (*document.Report, error) {
	jacsType, _ := doc["jacsType"].(string)
	ctx, finish := h.Telemetry.TrackOperation(ctx, "document.verify",
		observability.DocumentOperation("", "", jacsType, "verify")...)
	report, err := h.Engine.Verify(ctx, doc, h.Resolver)
	finish(err)
	return report, err
}

// VerifyDocumentByID implements spec.md §4.3.d.
func (h *Handle) VerifyDocumentByID(ctx context.Context, ref string) (*document.Report, error) {
	return h.Engine.VerifyByID(ctx, ref, h.Resolver)
}

// CreateAgent implements spec.md §4.4.
func (h *Handle) CreateAgent(ctx context.Context, alg crypto.Algorithm, profile agent.Profile, opts document.CreateOptions) (map[string]interface{}, *agent.GeneratedKey, error) {
	return agent.CreateAgent(ctx, h.Engine, alg, profile, opts)
}

// VerifyAgent implements spec.md §4.4's self-verification.
func (h *Handle) VerifyAgent(ctx context.Context, doc map[string]interface{}) (*document.Report, error) {
	return agent.VerifyAgent(ctx, h.Engine, doc)
}

// UpdateAgent implements spec.md §4.4's updateAgent().
func (h *Handle) UpdateAgent(ctx context.Context, jacsID, jacsVersion string, profile agent.Profile, opts document.CreateOptions) (map[string]interface{}, error) {
	return agent.UpdateAgent(ctx, h.Engine, jacsID, jacsVersion, profile, opts)
}

// SignAgent implements spec.md §4.4's signAgent() registrar countersignature.
func (h *Handle) SignAgent(externalAgent map[string]interface{}) error {
	return agent.SignAgent(h.Engine, externalAgent)
}

// CreateAgreement implements spec.md §4.5.
func (h *Handle) CreateAgreement(ctx context.Context, doc map[string]interface{}, agentIDs []string, question, agreeContext string, opts document.CreateOptions) (map[string]interface{}, error) {
	return agreement.CreateAgreement(ctx, h.Engine, doc, agentIDs, question, agreeContext, opts)
}

// SignAgreement implements spec.md §4.5's signAgreement().
func (h *Handle) SignAgreement(ctx context.Context, doc map[string]interface{}, opts document.CreateOptions) (map[string]interface{}, error) {
	return agreement.SignAgreement(ctx, h.Engine, doc, opts)
}

// CheckAgreement implements spec.md §4.5's checkAgreement().
func (h *Handle) CheckAgreement(doc map[string]interface{}) (*agreement.Status, error) {
	return agreement.CheckAgreement(doc)
}

// SignString implements spec.md §4.6.
func (h *Handle) SignString(data []byte) (string, error) {
	return h.Engine.SignString(data)
}

// SignRequest implements spec.md §4.7.
func (h *Handle) SignRequest(ctx context.Context, payload interface{}) (map[string]interface{}, error) {
	return h.Engine.SignRequest(ctx, payload)
}

// VerifyResponse implements spec.md §4.7.
func (h *Handle) VerifyResponse(ctx context.Context, doc map[string]interface{}) (*document.Response, error) {
	return h.Engine.VerifyResponse(ctx, doc, h.Resolver)
}
