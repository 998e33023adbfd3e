package audit

import (
	"context"
	"fmt"
)

// checkRecentDocuments re-verifies every document in req.RecentDocuments
// and, for each one that verifies cleanly, confirms its signer is a
// trust-store entry. Both checks load the same document, so they share
// one pass over req.Engine.VerifyByID rather than reading each document
// twice.
func checkRecentDocuments(ctx context.Context, req Request) (risks, health []Finding) {
	if req.Engine == nil || len(req.RecentDocuments) == 0 {
		return nil, nil
	}
	for _, ref := range req.RecentDocuments {
		id := fmt.Sprintf("%s:%s", ref.AgentID, ref.Version)
		report, err := req.Engine.VerifyByID(ctx, id, nil)
		if err != nil {
			health = append(health, finding("document_integrity", SeverityFail,
				fmt.Sprintf("%s: could not be loaded or verified: %v", id, err)))
			continue
		}
		if !report.Valid {
			health = append(health, finding("document_integrity", SeverityFail,
				fmt.Sprintf("%s: failed verification: %v", id, report.Errors)))
			continue
		}
		health = append(health, finding("document_integrity", SeverityOK, id+": verifies cleanly"))

		if req.Trust == nil || report.SignerID == "" {
			continue
		}
		if _, terr := req.Trust.Get(report.SignerID); terr != nil {
			risks = append(risks, finding("trust_store_coverage", SeverityWarn,
				fmt.Sprintf("%s: signer %s has no trust-store entry", id, report.SignerID)))
		}
	}
	return risks, health
}
