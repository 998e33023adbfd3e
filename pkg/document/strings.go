package document

import (
	"context"
	"strings"

	"github.com/hai-ai/jacs-go/pkg/crypto"
	"github.com/hai-ai/jacs-go/pkg/header"
	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// SignString implements spec.md §4.6: sign raw UTF-8 bytes directly, with
// no header wrapped around them.
func (e *Engine) SignString(data []byte) (string, error) {
	sig, err := e.Signer.Sign(data)
	if err != nil {
		return "", jacserr.Wrap(jacserr.InvalidSignature, "signString: signing failed", err)
	}
	return encodeBase64(sig), nil
}

// VerifyString implements spec.md §4.6's verifyString.
func VerifyString(algorithm crypto.Algorithm, publicKey, data []byte, signatureBase64 string) error {
	sig, err := decodeBase64(signatureBase64)
	if err != nil {
		return jacserr.Wrap(jacserr.InvalidSignature, "verifyString: signature is not valid base64", err)
	}
	if err := crypto.Verify(algorithm, publicKey, data, sig); err != nil {
		return jacserr.Wrap(jacserr.InvalidSignature, "verifyString: verification failed", err)
	}
	return nil
}

// Response is what VerifyResponse returns on success, per spec.md §4.7.
type Response struct {
	Payload   interface{}
	SignerID  string
	Timestamp interface{}
}

// SignRequest implements spec.md §4.7: wrap payload in a minimal,
// never-persisted "message" document at jacsLevel="raw".
func (e *Engine) SignRequest(ctx context.Context, payload interface{}) (map[string]interface{}, error) {
	content := map[string]interface{}{"content": payload}
	return e.Create(ctx, content, CreateOptions{
		JacsType:  "message",
		JacsLevel: header.LevelRaw,
		NoSave:    true,
	})
}

// VerifyResponse implements spec.md §4.7's verifyResponse.
func (e *Engine) VerifyResponse(ctx context.Context, doc map[string]interface{}, resolver KeyResolver) (*Response, error) {
	report, err := e.Verify(ctx, doc, resolver)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, jacserr.New(jacserr.InvalidSignature, strings.Join(report.Errors, "; "))
	}
	return &Response{
		Payload:   doc["content"],
		SignerID:  report.SignerID,
		Timestamp: doc["jacsVersionDate"],
	}, nil
}
