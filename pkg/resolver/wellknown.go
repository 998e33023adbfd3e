package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// wellKnownResponse is the shape fetched from
// /.well-known/jacs-pubkey.json, per spec.md §4.9 strategy 4.
type wellKnownResponse struct {
	PublicKey     string `json:"publicKey"`
	PublicKeyHash string `json:"publicKeyHash"`
	Algorithm     string `json:"algorithm"`
	AgentID       string `json:"agentId"`
	Version       string `json:"version"`
}

// resolveWellKnown implements strategy 4 directly from a domain, used when
// no DNS fingerprint pointed at a specific URL.
func (c *Chain) resolveWellKnown(ctx context.Context, domain, publicKeyHash string) ([]byte, error) {
	url := fmt.Sprintf("https://%s/.well-known/jacs-pubkey.json", domain)
	return c.fetchWellKnown(ctx, url, publicKeyHash)
}

func (c *Chain) fetchWellKnown(ctx context.Context, url, publicKeyHash string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: build well-known request: %w", err)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver: fetch well-known document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver: well-known document returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("resolver: read well-known document: %w", err)
	}

	var doc wellKnownResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("resolver: parse well-known document: %w", err)
	}

	key, err := decodeBase64(doc.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("resolver: well-known publicKey is not valid base64: %w", err)
	}
	if publicKeyHash != "" && hashHex(key) != publicKeyHash {
		return nil, jacserr.New(jacserr.KeyHashMismatch, "resolver: well-known publicKey does not match publicKeyHash")
	}
	return key, nil
}
