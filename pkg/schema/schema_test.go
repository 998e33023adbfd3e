package schema

import (
	"testing"
	"time"
)

func validMessageDoc() map[string]interface{} {
	return map[string]interface{}{
		"jacsId":              "doc-1",
		"jacsVersion":         "v1",
		"jacsVersionDate":     time.Now().UTC().Format(time.RFC3339),
		"jacsOriginalVersion": "v1",
		"jacsOriginalDate":    time.Now().UTC().Format(time.RFC3339),
		"jacsType":            "message",
		"jacsLevel":           "artifact",
		"content":             "hello",
	}
}

func TestValidate_ValidMessagePasses(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := v.Validate("message", validMessageDoc(), nil); err != nil {
		t.Errorf("expected valid message to pass, got %v", err)
	}
}

func TestValidate_MissingVersionDateFails(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := validMessageDoc()
	delete(doc, "jacsVersionDate")
	if _, err := v.Validate("message", doc, nil); err == nil {
		t.Error("expected missing jacsVersionDate to fail validation")
	}
}

func TestValidate_InvalidLevelFails(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := validMessageDoc()
	doc["jacsLevel"] = "not-a-level"
	if _, err := v.Validate("message", doc, nil); err == nil {
		t.Error("expected invalid jacsLevel to fail validation")
	}
}

func TestValidate_UnknownTypeFallsBackToHeaderSchema(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := validMessageDoc()
	doc["jacsType"] = "custom-widget"
	if _, err := v.Validate("custom-widget", doc, nil); err != nil {
		t.Errorf("expected header-level structural checks to pass for unknown type, got %v", err)
	}
}

func TestValidate_CustomSchemaAppliesOnTopOfBuiltin(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	custom := []byte(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["approvedBy"]
	}`)
	doc := validMessageDoc()
	if _, err := v.Validate("message", doc, custom); err == nil {
		t.Error("expected custom schema's extra required field to fail validation")
	}
	doc["approvedBy"] = "agent-1"
	if _, err := v.Validate("message", doc, custom); err != nil {
		t.Errorf("expected document satisfying custom schema to pass, got %v", err)
	}
}

func TestValidate_CustomSchemaMinVersionRecordsAuditRisk(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	custom := []byte(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"x-jacs-min-schema-version": "99.0.0",
		"type": "object"
	}`)
	risk, err := v.Validate("message", validMessageDoc(), custom)
	if err != nil {
		t.Fatalf("expected document to pass custom schema, got %v", err)
	}
	if risk == "" {
		t.Error("expected a non-empty audit risk for a future min-schema-version")
	}
}

func TestValidate_ViolationErrorListsEveryError(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Missing header fields fail the one "required" keyword together; the
	// bad jacsLevel is a second, separate violation.
	doc := map[string]interface{}{"jacsType": "message", "jacsLevel": "not-a-level"}
	_, err = v.Validate("message", doc, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	ve, ok := err.(*ViolationError)
	if !ok {
		t.Fatalf("expected *ViolationError, got %T", err)
	}
	if len(ve.Violations) < 2 {
		t.Errorf("expected multiple violations for a document with missing fields and a bad jacsLevel, got %d: %v", len(ve.Violations), ve.Violations)
	}
}
