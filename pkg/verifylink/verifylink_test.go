package verifylink_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hai-ai/jacs-go/pkg/jacserr"
	"github.com/hai-ai/jacs-go/pkg/verifylink"
)

func TestGenerate_RoundTrip(t *testing.T) {
	doc := []byte(`{"jacsId":"abc","jacsSha256":"deadbeef"}`)

	link, err := verifylink.Generate("https://hai.ai", doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://hai.ai/jacs/verify?s="))

	encoded := strings.TrimPrefix(link, "https://hai.ai/jacs/verify?s=")
	decoded, err := verifylink.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestGenerate_TrimsTrailingSlashOnBase(t *testing.T) {
	link, err := verifylink.Generate("https://hai.ai/", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://hai.ai/jacs/verify?s="))
	assert.False(t, strings.Contains(link, "hai.ai//jacs"))
}

func TestGenerate_AtBoundary_Succeeds(t *testing.T) {
	doc := make([]byte, verifylink.MaxDocumentBytes)
	for i := range doc {
		doc[i] = 'a'
	}
	_, err := verifylink.Generate("https://hai.ai", doc)
	require.NoError(t, err)
}

func TestGenerate_OverBoundary_Fails(t *testing.T) {
	doc := make([]byte, verifylink.MaxDocumentBytes+1)
	for i := range doc {
		doc[i] = 'a'
	}
	_, err := verifylink.Generate("https://hai.ai", doc)
	require.Error(t, err)
	assert.True(t, jacserr.Is(err, jacserr.DocumentTooLarge))
}

func TestDecode_InvalidBase64(t *testing.T) {
	_, err := verifylink.Decode("not valid base64url!!")
	require.Error(t, err)
	assert.True(t, jacserr.Is(err, jacserr.MalformedJSON))
}
