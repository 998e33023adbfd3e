// Package verifylink implements spec.md §4.13: a pure function that turns
// a small signed document into a self-contained, shareable verification
// URL by base64url-encoding the whole document into a query parameter.
// There is no server-side state on the other end of the link — the
// verifier decodes the parameter and runs the standalone verifier
// (pkg/verifier) directly.
package verifylink

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
)

// MaxDocumentBytes is the largest signed document (as UTF-8 bytes) that
// Generate accepts, per spec.md §4.13.
const MaxDocumentBytes = 1515

// MaxURLLength is the longest URL Generate may return.
const MaxURLLength = 2048

// Generate base64url-encodes doc and returns "${base}/jacs/verify?s={encoded}".
// It refuses documents over MaxDocumentBytes or whose resulting URL would
// exceed MaxURLLength, both as jacserr.DocumentTooLarge.
func Generate(base string, doc []byte) (string, error) {
	if len(doc) > MaxDocumentBytes {
		return "", jacserr.New(jacserr.DocumentTooLarge,
			fmt.Sprintf("verifylink: document is %d bytes, exceeds %d-byte limit", len(doc), MaxDocumentBytes))
	}

	encoded := base64.URLEncoding.EncodeToString(doc)
	link := fmt.Sprintf("%s/jacs/verify?s=%s", strings.TrimRight(base, "/"), encoded)

	if len(link) > MaxURLLength {
		return "", jacserr.New(jacserr.DocumentTooLarge,
			fmt.Sprintf("verifylink: resulting url is %d bytes, exceeds %d-byte limit", len(link), MaxURLLength))
	}
	return link, nil
}

// Decode reverses Generate's encoding step, returning the original signed
// document bytes from a link's "s" query value.
func Decode(encoded string) ([]byte, error) {
	doc, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, jacserr.Wrap(jacserr.MalformedJSON, "verifylink: invalid base64url payload", err)
	}
	return doc, nil
}
