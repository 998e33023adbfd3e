// Package resolver implements spec.md §4.9's key-resolution strategy
// chain: local trust store, embedded public key, DNS TXT fingerprint,
// HTTPS well-known document, and a remote key service, stopping at the
// first strategy that returns a key whose hash matches the signature's
// publicKeyHash.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// DefaultTimeout is the network timeout applied to every remote strategy
// absent an explicit context deadline, per spec.md §5's resource model.
const DefaultTimeout = 10 * time.Second

// DefaultKeysBaseURL is the remote key service used when HAI_KEYS_BASE_URL
// is unset.
const DefaultKeysBaseURL = "https://keys.hai.ai"

// TrustLookup is the subset of pkg/trust.Store the resolver's local
// trust-store strategy needs: lookup by key hash, then by agent ID.
type TrustLookup interface {
	ByPublicKeyHashRaw(hash string) (publicKey []byte, ok bool, err error)
	ByAgentIDRaw(agentID string) (publicKey []byte, ok bool, err error)
}

// DomainHint resolves an agent ID to the domain used for DNS/HTTPS
// strategies, when the agent document itself carries no such hint
// in-band. Callers that have no domain information can pass nil.
type DomainHint interface {
	DomainFor(agentID string) (domain string, ok bool)
}

// Cache is an optional TTL cache the remote strategies consult before
// making a network call, and populate after a successful resolution.
// pkg/resolver/cache.go's RedisCache satisfies this by wrapping
// github.com/redis/go-redis/v9.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Chain is the ordered key-resolution strategy chain.
type Chain struct {
	Trust       TrustLookup
	Domains     DomainHint
	Cache       Cache
	HTTPClient  *http.Client
	DNSResolver *net.Resolver
	Limiter     *RateLimiter

	// DNSStrict carries the jacs_dns_strict policy bit. Resolve does not
	// read it, and the TXT lookup (strategy 3) is not DNSSEC-validated.
	DNSStrict bool
	// DNSRequired rejects strategy 2 (embedded key) entirely, leaving the
	// local trust store, DNS, well-known, and remote key service strategies.
	DNSRequired bool

	KeysBaseURL string
	APIKey      string
	Timeout     time.Duration
}

func (c *Chain) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Chain) dnsResolver() *net.Resolver {
	if c.DNSResolver != nil {
		return c.DNSResolver
	}
	return net.DefaultResolver
}

func (c *Chain) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Chain) keysBaseURL() string {
	if c.KeysBaseURL != "" {
		return c.KeysBaseURL
	}
	return DefaultKeysBaseURL
}

// Resolve implements the spec.md §4.9 strategy chain, satisfying
// pkg/document.KeyResolver and pkg/verifier.TrustChecker's resolution
// needs. Every candidate key is checked against publicKeyHash before it
// is returned; a candidate whose hash does not match is discarded and the
// chain continues rather than failing immediately, except for the
// embedded key itself, where a mismatch is always an error since there is
// nowhere further to fall back to within that single strategy.
func (c *Chain) Resolve(ctx context.Context, agentID, publicKeyHash string, embeddedPublicKey []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	if key, ok := c.resolveLocalTrust(agentID, publicKeyHash); ok {
		return key, nil
	}

	if !c.DNSRequired && len(embeddedPublicKey) > 0 {
		if publicKeyHash == "" || hashHex(embeddedPublicKey) == publicKeyHash {
			return embeddedPublicKey, nil
		}
		return nil, jacserr.New(jacserr.KeyHashMismatch, "resolver: embedded publicKey does not match publicKeyHash")
	}

	if cached, ok, err := c.fromCache(ctx, publicKeyHash); err == nil && ok {
		return cached, nil
	}

	domain, hasDomain := c.domainFor(agentID)
	if hasDomain {
		if key, err := c.resolveDNS(ctx, domain, publicKeyHash); err == nil && key != nil {
			c.toCache(ctx, publicKeyHash, key)
			return key, nil
		}
		if key, err := c.resolveWellKnown(ctx, domain, publicKeyHash); err == nil && key != nil {
			c.toCache(ctx, publicKeyHash, key)
			return key, nil
		}
	}

	if key, err := c.resolveRemote(ctx, agentID, publicKeyHash); err == nil && key != nil {
		c.toCache(ctx, publicKeyHash, key)
		return key, nil
	}

	return nil, jacserr.New(jacserr.KeyHashMismatch, fmt.Sprintf("resolver: could not resolve a trusted key for agent %q", agentID))
}

func (c *Chain) resolveLocalTrust(agentID, publicKeyHash string) ([]byte, bool) {
	if c.Trust == nil {
		return nil, false
	}
	if publicKeyHash != "" {
		if key, ok, err := c.Trust.ByPublicKeyHashRaw(publicKeyHash); err == nil && ok {
			return key, true
		}
	}
	if agentID != "" {
		if key, ok, err := c.Trust.ByAgentIDRaw(agentID); err == nil && ok {
			if publicKeyHash == "" || hashHex(key) == publicKeyHash {
				return key, true
			}
		}
	}
	return nil, false
}

func (c *Chain) domainFor(agentID string) (string, bool) {
	if c.Domains == nil {
		return "", false
	}
	return c.Domains.DomainFor(agentID)
}

func (c *Chain) fromCache(ctx context.Context, publicKeyHash string) ([]byte, bool, error) {
	if c.Cache == nil || publicKeyHash == "" {
		return nil, false, nil
	}
	return c.Cache.Get(ctx, cacheKey(publicKeyHash))
}

func (c *Chain) toCache(ctx context.Context, publicKeyHash string, key []byte) {
	if c.Cache == nil || publicKeyHash == "" {
		return
	}
	_ = c.Cache.Set(ctx, cacheKey(publicKeyHash), key, time.Hour)
}

func cacheKey(publicKeyHash string) string {
	return "jacs:pubkey:" + publicKeyHash
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
