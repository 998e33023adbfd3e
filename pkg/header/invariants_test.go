package header

import "testing"

func TestNewHeader_SetsOriginalVersionEqualToVersion(t *testing.T) {
	h := NewHeader("message", LevelArtifact)
	if h.JacsID == "" {
		t.Fatal("expected non-empty jacsId")
	}
	if h.JacsVersion != h.JacsOriginalVersion {
		t.Errorf("expected jacsVersion == jacsOriginalVersion on v1, got %s != %s", h.JacsVersion, h.JacsOriginalVersion)
	}
	if h.JacsPreviousVersion != "" {
		t.Errorf("expected no jacsPreviousVersion on v1, got %q", h.JacsPreviousVersion)
	}
}

func TestNewVersion_PreservesLineage(t *testing.T) {
	v1 := NewHeader("message", LevelArtifact)
	v2 := NewVersion(v1)

	if v2.JacsID != v1.JacsID {
		t.Errorf("jacsId must be preserved: %s != %s", v2.JacsID, v1.JacsID)
	}
	if v2.JacsOriginalVersion != v1.JacsOriginalVersion {
		t.Errorf("jacsOriginalVersion must be preserved")
	}
	if v2.JacsPreviousVersion != v1.JacsVersion {
		t.Errorf("jacsPreviousVersion must equal prior jacsVersion")
	}
	if v2.JacsVersion == v1.JacsVersion {
		t.Error("jacsVersion must change on update")
	}
}

func TestValidateInvariants_RejectsEmptyID(t *testing.T) {
	h := NewHeader("message", LevelArtifact)
	h.JacsID = ""
	if err := ValidateInvariants(h); err == nil {
		t.Error("expected error for empty jacsId")
	}
}

func TestValidateInvariants_RejectsInvalidLevel(t *testing.T) {
	h := NewHeader("message", LevelArtifact)
	h.JacsLevel = Level("not-a-real-level")
	if err := ValidateInvariants(h); err == nil {
		t.Error("expected error for invalid jacsLevel")
	}
}

func TestValidateInvariants_RejectsEmptyAgreementSigners(t *testing.T) {
	h := NewHeader("message", LevelArtifact)
	h.JacsAgreement = &Agreement{AgentIDs: nil}
	if err := ValidateInvariants(h); err == nil {
		t.Error("expected error for empty agreement agentIDs")
	}
}

func TestValidateRawUpdate_RejectsAnyUpdateOnRaw(t *testing.T) {
	h := NewHeader("message", LevelRaw)
	if err := ValidateRawUpdate(h); err != ErrRawImmutable {
		t.Errorf("expected ErrRawImmutable, got %v", err)
	}
}

func TestValidateRawUpdate_RejectsUpdateOnRawEvenWithUnchangedContent(t *testing.T) {
	h := NewHeader("message", LevelRaw)
	if err := ValidateRawUpdate(h); err != ErrRawImmutable {
		t.Errorf("expected ErrRawImmutable even for a no-op update, got %v", err)
	}
}

func TestValidateRawUpdate_AllowsAnyChangeOnNonRaw(t *testing.T) {
	h := NewHeader("message", LevelArtifact)
	if err := ValidateRawUpdate(h); err != nil {
		t.Errorf("expected no error for non-raw content change, got %v", err)
	}
}
