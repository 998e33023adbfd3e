package resolver

import (
	"context"
	"fmt"
	"strings"
)

// resolveDNS implements strategy 3: a TXT record at
// _v1.agent.jacs.<domain> carrying "v=hai.ai; alg=<tag>; pkh=<hex>;
// url=<https well-known URL>". Records whose pkh differs from a non-empty
// publicKeyHash are skipped; the first matching record's url is fetched
// and its key bytes are returned.
func (c *Chain) resolveDNS(ctx context.Context, domain, publicKeyHash string) ([]byte, error) {
	name := fmt.Sprintf("_v1.agent.jacs.%s", domain)
	records, err := c.dnsResolver().LookupTXT(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolver: dns lookup for %s failed: %w", name, err)
	}

	for _, record := range records {
		fields := parseTXTRecord(record)
		if fields["v"] != "hai.ai" {
			continue
		}
		pkh := fields["pkh"]
		if publicKeyHash != "" && pkh != publicKeyHash {
			continue
		}
		url, ok := fields["url"]
		if !ok {
			continue
		}
		return c.fetchWellKnown(ctx, url, publicKeyHash)
	}
	return nil, fmt.Errorf("resolver: no matching TXT fingerprint found at %s", name)
}

// parseTXTRecord splits a "k=v; k=v; ..." TXT payload into a field map.
func parseTXTRecord(record string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(record, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return fields
}
