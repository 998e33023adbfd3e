package audit

// checkDNSPolicy flags a resolver policy that requires a DNS TXT
// fingerprint but does not also require it to match strictly, per
// spec.md §6's jacs_dns_required/jacs_dns_strict pair.
func checkDNSPolicy(req Request) []Finding {
	if !req.DNSRequired {
		return nil
	}
	if !req.DNSStrict {
		return []Finding{finding("dns_policy", SeverityWarn,
			"jacs_dns_required is set without jacs_dns_strict: a DNS lookup failure degrades silently instead of blocking resolution")}
	}
	return []Finding{finding("dns_policy", SeverityOK, "dns_required and dns_strict are consistently configured")}
}
