package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hai-ai/jacs-go/pkg/crypto"
)

func writeKeyFile(t *testing.T, dir, name string, encrypted bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte("plain-key-bytes")
	if encrypted {
		content = []byte("JACSKEY1" + "envelope-payload")
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun_FlagsUnencryptedKey(t *testing.T) {
	dir := t.TempDir()
	writeKeyFile(t, dir, "jacs.private.pem", false)
	if err := os.Chmod(dir, 0o700); err != nil {
		t.Fatalf("Chmod: %v", err)
	}

	report, err := Run(context.Background(), Request{
		KeyDir:             dir,
		PrivateKeyFilename: "jacs.private.pem",
		Algorithm:          string(crypto.AlgEd25519),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, f := range report.Risks {
		if f.Check == "private_key_encryption" && f.Severity == SeverityFail {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a failing private_key_encryption finding, got %+v", report.Risks)
	}
}

func TestRun_DNSPolicyInconsistency(t *testing.T) {
	report, err := Run(context.Background(), Request{
		DNSRequired: true,
		DNSStrict:   false,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, f := range report.HealthChecks {
		if f.Check == "dns_policy" && f.Severity == SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning dns_policy finding, got %+v", report.HealthChecks)
	}
}

func TestRun_CustomRuleFalseProducesRiskFinding(t *testing.T) {
	report, err := Run(context.Background(), Request{
		Algorithm: "pq-dilithium",
		Rules: []Rule{
			{Label: "no-deprecated-algorithms", Expr: `agentKeyAlgorithm != "pq-dilithium"`},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, f := range report.Risks {
		if f.Check == "custom_rule" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a custom_rule finding, got %+v", report.Risks)
	}
}

func TestRun_MalformedRuleReturnsError(t *testing.T) {
	_, err := Run(context.Background(), Request{
		Rules: []Rule{{Label: "broken", Expr: "this is not valid CEL((("}},
	})
	if err == nil {
		t.Error("expected Run to return an error for a malformed rule")
	}
}

func TestRun_OverallStatusReflectsWorstFinding(t *testing.T) {
	dir := t.TempDir()
	writeKeyFile(t, dir, "jacs.private.pem", false)

	report, err := Run(context.Background(), Request{
		KeyDir:             dir,
		PrivateKeyFilename: "jacs.private.pem",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.OverallStatus != SeverityFail {
		t.Errorf("expected overall status fail, got %s", report.OverallStatus)
	}
}
