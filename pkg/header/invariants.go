package header

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRawImmutable is returned when an update targets a jacsLevel="raw"
// document; raw documents accept no update at all.
var ErrRawImmutable = fmt.Errorf("header: raw-level document is immutable")

// NewHeader returns a fresh v1 header: jacsId and jacsVersion are distinct
// UUIDs, jacsOriginalVersion/Date mirror the version fields, and
// jacsPreviousVersion is left empty, matching the data model's "absent on
// v1" rule.
func NewHeader(jacsType string, level Level) Header {
	now := time.Now().UTC()
	id := uuid.NewString()
	version := uuid.NewString()
	return Header{
		JacsID:              id,
		JacsVersion:         version,
		JacsVersionDate:     now,
		JacsOriginalVersion: version,
		JacsOriginalDate:    now,
		JacsType:            jacsType,
		JacsLevel:           level,
	}
}

// NewVersion advances prior into a new version: jacsId,
// jacsOriginalVersion/Date are preserved, jacsPreviousVersion becomes
// prior's jacsVersion, and a fresh jacsVersion/jacsVersionDate is assigned.
// Signature, registration, and hash fields are cleared — the caller
// re-signs and re-hashes the result; agreement fields carry over.
func NewVersion(prior Header) Header {
	now := time.Now().UTC()
	next := prior
	next.JacsPreviousVersion = prior.JacsVersion
	next.JacsVersion = uuid.NewString()
	next.JacsVersionDate = now
	next.JacsSignature = nil
	next.JacsRegistration = nil
	next.JacsSha256 = ""
	return next
}

// ValidateInvariants checks the six numbered invariants from the data
// model that can be checked from the header fields alone (content-level
// checks like hash/signature recomputation live in pkg/document, which
// calls this first as a structural gate).
func ValidateInvariants(h Header) error {
	if h.JacsID == "" {
		return fmt.Errorf("header: jacsId must not be empty")
	}
	if h.JacsVersion == "" {
		return fmt.Errorf("header: jacsVersion must not be empty")
	}
	if h.JacsOriginalVersion == "" {
		return fmt.Errorf("header: jacsOriginalVersion must not be empty")
	}
	if h.JacsType == "" {
		return fmt.Errorf("header: jacsType must not be empty")
	}
	switch h.JacsLevel {
	case LevelRaw, LevelConfig, LevelArtifact, LevelDerived:
	default:
		return fmt.Errorf("header: invalid jacsLevel %q", h.JacsLevel)
	}
	if h.JacsAgreement != nil && len(h.JacsAgreement.AgentIDs) == 0 {
		return fmt.Errorf("header: jacsAgreement.agentIDs must not be empty")
	}
	return nil
}

// ValidateRawUpdate enforces invariant 4: a jacsLevel="raw" document may
// never be updated, full stop — not even by a no-op update that resubmits
// byte-identical content. Raw documents are immutable after creation; a
// caller that wants a new version must create a new document.
func ValidateRawUpdate(prior Header) error {
	if prior.JacsLevel == LevelRaw {
		return ErrRawImmutable
	}
	return nil
}
