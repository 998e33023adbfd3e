// Package schema validates JACS documents against the built-in draft-07
// JSON Schema set for each jacsType, plus an optional caller-supplied
// custom schema layered on top.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var builtinFS embed.FS

// SchemaSetVersion is the semantic version of the validator's own built-in
// schema set. Custom schemas may declare an "x-jacs-min-schema-version"
// string; if it is newer than SchemaSetVersion the validator can't promise
// it understands everything the custom schema expects and records that as
// an audit risk rather than a hard failure.
const SchemaSetVersion = "1.0.0"

var builtinIDs = map[string]string{
	"header":    "https://jacs.hai.ai/schemas/header.schema.json",
	"signature": "https://jacs.hai.ai/schemas/signature.schema.json",
	"agreement": "https://jacs.hai.ai/schemas/agreement.schema.json",
	"file":      "https://jacs.hai.ai/schemas/file.schema.json",
	"agent":     "https://jacs.hai.ai/schemas/agent.schema.json",
	"message":   "https://jacs.hai.ai/schemas/message.schema.json",
	"task":      "https://jacs.hai.ai/schemas/task.schema.json",
}

// ViolationError collects every schema validation failure for a document,
// per the requirement that SchemaViolation failures list every error
// rather than just the first.
type ViolationError struct {
	JacsType   string
	Violations []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("schema: %s failed validation: %s", e.JacsType, strings.Join(e.Violations, "; "))
}

// Validator compiles the built-in schema set once and validates documents
// against it, optionally layering a caller-supplied custom schema.
type Validator struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	compiled map[string]*jsonschema.Schema
}

// New compiles the embedded built-in schema set. It returns an error only
// if the embedded schemas themselves fail to compile, which would be a
// defect in this package rather than in caller input.
func New() (*Validator, error) {
	v := &Validator{
		compiler: jsonschema.NewCompiler(),
		compiled: make(map[string]*jsonschema.Schema),
	}
	v.compiler.Draft = jsonschema.Draft7

	for name := range builtinIDs {
		data, err := builtinFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("schema: read embedded %s.json: %w", name, err)
		}
		if err := v.compiler.AddResource(builtinIDs[name], strings.NewReader(string(data))); err != nil {
			return nil, fmt.Errorf("schema: add embedded resource %s: %w", name, err)
		}
	}
	for name, id := range builtinIDs {
		compiled, err := v.compiler.Compile(id)
		if err != nil {
			return nil, fmt.Errorf("schema: compile embedded %s.json: %w", name, err)
		}
		v.compiled[name] = compiled
	}
	return v, nil
}

// jacsTypeToSchema maps a document's jacsType to the built-in schema that
// governs it. Unknown types fall back to "header", the minimal structural
// contract every JACS document must satisfy.
func jacsTypeToSchema(jacsType string) string {
	switch jacsType {
	case "agent":
		return "agent"
	case "message", "task":
		return jacsType
	default:
		return "header"
	}
}

// Validate checks doc against the built-in schema for jacsType, and — if
// customSchema is non-empty — against that schema as well. Both sets of
// errors are collected into a single ViolationError so callers see every
// problem at once, per the SchemaViolation contract.
//
// AuditRisk is non-empty when customSchema declares an
// "x-jacs-min-schema-version" newer than SchemaSetVersion: validation
// still proceeds, but the caller should surface the risk rather than
// silently trust full coverage.
func (v *Validator) Validate(jacsType string, doc map[string]interface{}, customSchema []byte) (auditRisk string, err error) {
	builtinName := jacsTypeToSchema(jacsType)
	compiled, ok := v.compiled[builtinName]
	if !ok {
		return "", fmt.Errorf("schema: no built-in schema registered for %q", builtinName)
	}

	var violations []string
	if verr := compiled.Validate(doc); verr != nil {
		violations = append(violations, flattenValidationError(verr)...)
	}

	if len(customSchema) > 0 {
		customViolations, risk, cerr := v.validateCustom(jacsType, doc, customSchema)
		if cerr != nil {
			return "", cerr
		}
		violations = append(violations, customViolations...)
		auditRisk = risk
	}

	if len(violations) > 0 {
		return auditRisk, &ViolationError{JacsType: jacsType, Violations: violations}
	}
	return auditRisk, nil
}

func (v *Validator) validateCustom(jacsType string, doc map[string]interface{}, customSchema []byte) ([]string, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var decoded map[string]interface{}
	if err := json.Unmarshal(customSchema, &decoded); err != nil {
		return nil, "", fmt.Errorf("schema: custom schema is not valid JSON: %w", err)
	}

	risk := checkMinVersion(decoded)

	id := fmt.Sprintf("https://jacs.hai.ai/custom/%s-%p.schema.json", jacsType, customSchema)
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(id, strings.NewReader(string(customSchema))); err != nil {
		return nil, "", fmt.Errorf("schema: load custom schema: %w", err)
	}
	compiled, err := c.Compile(id)
	if err != nil {
		return nil, "", fmt.Errorf("schema: compile custom schema: %w", err)
	}

	var violations []string
	if err := compiled.Validate(doc); err != nil {
		violations = flattenValidationError(err)
	}
	return violations, risk, nil
}

// checkMinVersion compares a decoded custom schema's declared
// "x-jacs-min-schema-version" against SchemaSetVersion and returns a
// human-readable audit risk string when the custom schema expects a newer
// validator than this one, or empty when there is no conflict.
func checkMinVersion(decoded map[string]interface{}) string {
	raw, ok := decoded["x-jacs-min-schema-version"].(string)
	if !ok || raw == "" {
		return ""
	}
	required, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Sprintf("custom schema declares unparseable x-jacs-min-schema-version %q", raw)
	}
	current, err := semver.NewVersion(SchemaSetVersion)
	if err != nil {
		return ""
	}
	if required.GreaterThan(current) {
		return fmt.Sprintf("custom schema requires schema set >= %s, validator has %s", required, current)
	}
	return ""
}

func flattenValidationError(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, fmt.Sprintf("%s: %s", e.InstanceLocation, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
