//go:build property
// +build property

package canonicalize

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestJCSDeterminism verifies JCS(obj) == JCS(obj) for arbitrary
// string-keyed, string-valued objects.
func TestJCSDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("JCS canonicalization is deterministic", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := make(map[string]interface{})
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}
			if len(obj) == 0 {
				return true
			}

			b1, err1 := JCS(obj)
			b2, err2 := JCS(obj)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return string(b1) == string(b2)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestCanonicalHashDeterminism verifies CanonicalHash(obj) is stable across
// repeated calls on the same map, whose iteration order Go randomizes.
func TestCanonicalHashDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("CanonicalHash is independent of map iteration order", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := make(map[string]interface{})
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}
			if len(obj) == 0 {
				return true
			}

			h1, err1 := CanonicalHash(obj)
			h2, err2 := CanonicalHash(obj)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestStripFieldsIdempotency verifies stripping the same fields twice in a
// row produces the same canonical output as stripping them once: callers
// that accidentally double-strip before signing must not get a different
// digest than single-strip callers.
func TestStripFieldsIdempotency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("StripFields is idempotent", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := make(map[string]interface{})
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}
			if len(obj) == 0 {
				return true
			}

			stripped1 := StripFields(obj, "jacsSignature", "jacsSha256")
			stripped2 := StripFields(stripped1, "jacsSignature", "jacsSha256")

			b1, _ := json.Marshal(stripped1)
			b2, _ := json.Marshal(stripped2)
			return string(b1) == string(b2)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
