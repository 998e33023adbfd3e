// Package audit implements the read-only installation health check:
// key-material hygiene, resolver policy consistency, trust-store
// coverage, and a re-verification pass over recently stored documents.
// It never mutates anything it inspects.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/hai-ai/jacs-go/pkg/document"
	"github.com/hai-ai/jacs-go/pkg/storage"
	"github.com/hai-ai/jacs-go/pkg/trust"
)

// Severity is the outcome of one check or of the whole report.
type Severity string

const (
	SeverityOK   Severity = "ok"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// worse reports whether b is a strictly worse outcome than a.
func worse(a, b Severity) bool {
	rank := map[Severity]int{SeverityOK: 0, SeverityWarn: 1, SeverityFail: 2}
	return rank[b] > rank[a]
}

// Finding is one audit check's result.
type Finding struct {
	Check     string
	Severity  Severity
	Detail    string
	CheckedAt time.Time
}

// Report is the audit's full output.
type Report struct {
	Risks         []Finding
	HealthChecks  []Finding
	Summary       string
	OverallStatus Severity
}

// Request carries everything a Run needs to inspect. Every field is
// optional; an empty KeyDir, a nil Trust, Engine, or empty
// RecentDocuments simply skips the checks that depend on it rather than
// failing.
type Request struct {
	// KeyDir is the key-material root (spec's jacs_key_directory):
	// private/public key files live directly under it, the trust store
	// under <KeyDir>/trust.
	KeyDir             string
	PrivateKeyFilename string
	Algorithm          string

	DNSRequired bool
	DNSStrict   bool

	Trust  *trust.Store
	Engine *document.Engine

	// RecentDocuments are the (jacsId, jacsVersion) pairs to re-verify
	// and cross-check against Trust, typically the caller's last N
	// document versions across its agents.
	RecentDocuments []storage.VersionRef

	// Rules are additional CEL boolean expressions evaluated against a
	// flat snapshot of this Request's scalar fields; a false result
	// becomes a risk finding labelled with the rule's Label.
	Rules []Rule
}

// Run performs every check and aggregates the result. It never returns
// an error for a failing check — failing checks are findings; Run only
// returns an error if a check could not even be attempted (e.g. a
// malformed CEL rule).
func Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{}

	report.Risks = append(report.Risks, checkKeyEncryption(req)...)
	report.Risks = append(report.Risks, checkKeyDirPermissions(req)...)
	report.Risks = append(report.Risks, checkStaleAlgorithm(req)...)
	report.HealthChecks = append(report.HealthChecks, checkDNSPolicy(req)...)

	docRisks, docHealth := checkRecentDocuments(ctx, req)
	report.Risks = append(report.Risks, docRisks...)
	report.HealthChecks = append(report.HealthChecks, docHealth...)

	ruleRisks, err := checkRules(req)
	if err != nil {
		return nil, err
	}
	report.Risks = append(report.Risks, ruleRisks...)

	report.OverallStatus = SeverityOK
	fail, warn := 0, 0
	for _, f := range append(append([]Finding{}, report.Risks...), report.HealthChecks...) {
		if worse(report.OverallStatus, f.Severity) {
			report.OverallStatus = f.Severity
		}
		switch f.Severity {
		case SeverityFail:
			fail++
		case SeverityWarn:
			warn++
		}
	}
	report.Summary = fmt.Sprintf(
		"%d risk(s), %d health check(s); %d failing, %d warning, status=%s",
		len(report.Risks), len(report.HealthChecks), fail, warn, report.OverallStatus,
	)
	return report, nil
}

func finding(check string, sev Severity, detail string) Finding {
	return Finding{Check: check, Severity: sev, Detail: detail, CheckedAt: time.Now()}
}
