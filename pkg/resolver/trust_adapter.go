package resolver

import (
	"encoding/base64"
	"os"

	"github.com/hai-ai/jacs-go/pkg/trust"
)

// TrustAdapter wraps a pkg/trust.Store to satisfy TrustLookup, decoding
// its base64-stored public keys into the raw bytes the resolver chain
// compares against publicKeyHash.
type TrustAdapter struct {
	Store *trust.Store
}

// ByPublicKeyHashRaw implements TrustLookup.
func (a TrustAdapter) ByPublicKeyHashRaw(hash string) ([]byte, bool, error) {
	entry, err := a.Store.ByPublicKeyHash(hash)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	key, err := base64.StdEncoding.DecodeString(entry.PublicKey)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// ByAgentIDRaw implements TrustLookup.
func (a TrustAdapter) ByAgentIDRaw(agentID string) ([]byte, bool, error) {
	entry, err := a.Store.Get(agentID)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	key, err := base64.StdEncoding.DecodeString(entry.PublicKey)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}
