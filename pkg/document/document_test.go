package document

import (
	"context"
	"testing"

	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
	"github.com/hai-ai/jacs-go/pkg/schema"
	"github.com/hai-ai/jacs-go/pkg/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	signer, _, err := crypto.GenerateKey(crypto.AlgEd25519)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	v, err := schema.New()
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return &Engine{
		Signer:    signer,
		AgentID:   "agent-1",
		Storage:   storage.NewMemoryStore(),
		Validator: v,
	}
}

func TestEngine_CreateThenVerifySucceeds(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	doc, err := e.Create(ctx, map[string]interface{}{"content": "hello"}, CreateOptions{JacsType: "message"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	report, err := e.Verify(ctx, doc, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Valid {
		t.Errorf("expected valid document, got errors: %v", report.Errors)
	}
	if report.SignerID != "agent-1" {
		t.Errorf("expected signerId agent-1, got %s", report.SignerID)
	}
}

func TestEngine_TamperedContentFailsHashCheck(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	doc, err := e.Create(ctx, map[string]interface{}{"action": "approve"}, CreateOptions{JacsType: "message"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	doc["action"] = "reject"

	report, err := e.Verify(ctx, doc, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Valid {
		t.Error("expected tampered document to fail verification")
	}
}

func TestEngine_UpdatePreservesLineage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	v1, err := e.Create(ctx, map[string]interface{}{"status": "pending"}, CreateOptions{JacsType: "message"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v2, err := e.Update(ctx, v1["jacsId"].(string), v1["jacsVersion"].(string), map[string]interface{}{"status": "approved"}, CreateOptions{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if v2["jacsId"] != v1["jacsId"] {
		t.Error("jacsId must be preserved across update")
	}
	if v2["jacsOriginalVersion"] != v1["jacsOriginalVersion"] {
		t.Error("jacsOriginalVersion must be preserved across update")
	}
	if v2["jacsPreviousVersion"] != v1["jacsVersion"] {
		t.Error("jacsPreviousVersion must equal prior jacsVersion")
	}
	if v2["jacsVersion"] == v1["jacsVersion"] {
		t.Error("jacsVersion must change on update")
	}

	report, err := e.Verify(ctx, v2, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Valid {
		t.Errorf("expected updated document to verify, got: %v", report.Errors)
	}
}

func TestEngine_RawLevelUpdateWithChangedContentFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	v1, err := e.Create(ctx, map[string]interface{}{"readings": []interface{}{1.0, 2.0, 3.0}}, CreateOptions{JacsType: "message", JacsLevel: header.LevelRaw})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = e.Update(ctx, v1["jacsId"].(string), v1["jacsVersion"].(string), map[string]interface{}{"readings": []interface{}{1.0, 2.0, 4.0}}, CreateOptions{})
	if !jacserr.Is(err, jacserr.RawImmutable) {
		t.Errorf("expected RawImmutable, got %v", err)
	}
}

func TestEngine_RawLevelUpdateWithUnchangedContentStillFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	v1, err := e.Create(ctx, map[string]interface{}{"readings": []interface{}{1.0, 2.0, 3.0}}, CreateOptions{JacsType: "message", JacsLevel: header.LevelRaw})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = e.Update(ctx, v1["jacsId"].(string), v1["jacsVersion"].(string), map[string]interface{}{"readings": []interface{}{1.0, 2.0, 3.0}}, CreateOptions{})
	if !jacserr.Is(err, jacserr.RawImmutable) {
		t.Errorf("expected RawImmutable even for a no-op update, got %v", err)
	}
}

func TestEngine_SignStringVerifyStringRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	data := []byte("hello world")

	sig, err := e.SignString(data)
	if err != nil {
		t.Fatalf("SignString: %v", err)
	}
	pubKey, err := e.Signer.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes: %v", err)
	}
	if err := VerifyString(crypto.AlgEd25519, pubKey, data, sig); err != nil {
		t.Errorf("expected VerifyString to succeed: %v", err)
	}
	if err := VerifyString(crypto.AlgEd25519, pubKey, []byte("tampered"), sig); err == nil {
		t.Error("expected VerifyString to fail on tampered data")
	}
}

func TestEngine_SignRequestVerifyResponseRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	doc, err := e.SignRequest(ctx, map[string]interface{}{"action": "ping"})
	if err != nil {
		t.Fatalf("SignRequest: %v", err)
	}

	resp, err := e.VerifyResponse(ctx, doc, nil)
	if err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
	if resp.SignerID != "agent-1" {
		t.Errorf("expected signerId agent-1, got %s", resp.SignerID)
	}
}

func TestEngine_VerifyByID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	doc, err := e.Create(ctx, map[string]interface{}{"content": "hi"}, CreateOptions{JacsType: "message"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ref := doc["jacsId"].(string) + ":" + doc["jacsVersion"].(string)
	report, err := e.VerifyByID(ctx, ref, nil)
	if err != nil {
		t.Fatalf("VerifyByID: %v", err)
	}
	if !report.Valid {
		t.Errorf("expected valid report, got: %v", report.Errors)
	}
}
