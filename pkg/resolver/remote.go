package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

type remoteKeyResponse struct {
	PublicKey     string `json:"publicKey"`
	PublicKeyHash string `json:"publicKeyHash"`
	Algorithm     string `json:"algorithm"`
}

// resolveRemote implements strategy 5: fetch from the remote key service,
// by agent ID when one is known, else by hash. Rate limited per spec.md
// §5's resource model so a verification storm against an unresponsive or
// misbehaving agent population cannot itself become a denial-of-service
// vector against the caller's own outbound connections.
func (c *Chain) resolveRemote(ctx context.Context, agentID, publicKeyHash string) ([]byte, error) {
	limiterKey := agentID
	if limiterKey == "" {
		limiterKey = publicKeyHash
	}
	if c.Limiter != nil && !c.Limiter.Allow(limiterKey) {
		return nil, fmt.Errorf("resolver: remote key service rate limit exceeded for %q", limiterKey)
	}

	var url string
	if agentID != "" {
		url = fmt.Sprintf("%s/jacs/v1/agents/%s/keys/latest", c.keysBaseURL(), agentID)
	} else if publicKeyHash != "" {
		url = fmt.Sprintf("%s/jacs/v1/keys/by-hash/%s", c.keysBaseURL(), publicKeyHash)
	} else {
		return nil, fmt.Errorf("resolver: remote strategy needs an agentID or publicKeyHash")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: build remote key request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver: remote key service request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver: remote key service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("resolver: read remote key response: %w", err)
	}

	var doc remoteKeyResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("resolver: parse remote key response: %w", err)
	}

	key, err := decodeBase64(doc.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("resolver: remote publicKey is not valid base64: %w", err)
	}
	if publicKeyHash != "" && hashHex(key) != publicKeyHash {
		return nil, jacserr.New(jacserr.KeyHashMismatch, "resolver: remote publicKey does not match publicKeyHash")
	}
	return key, nil
}
