package crypto

import "testing"

func TestEd25519_SignAndVerifyRoundTrip(t *testing.T) {
	signer, _, err := GenerateKey(AlgEd25519)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	data := []byte("jacs-document-hash-payload")
	sig, err := signer.Sign(data)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	pub, err := signer.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes failed: %v", err)
	}

	if err := Verify(AlgEd25519, pub, data, sig); err != nil {
		t.Errorf("expected signature to verify, got: %v", err)
	}
}

func TestEd25519_VerifyRejectsTamperedData(t *testing.T) {
	signer, _, err := GenerateKey(AlgEd25519)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	sig, err := signer.Sign([]byte("original"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	pub, _ := signer.PublicKeyBytes()

	if err := Verify(AlgEd25519, pub, []byte("tampered"), sig); err == nil {
		t.Error("expected verification to fail for tampered data")
	}
}

func TestEd25519_SignerFromPrivateKeyRoundTrip(t *testing.T) {
	_, priv, err := GenerateKey(AlgEd25519)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	restored, err := SignerFromPrivateKey(AlgEd25519, priv)
	if err != nil {
		t.Fatalf("SignerFromPrivateKey failed: %v", err)
	}

	data := []byte("restored-signer-payload")
	sig, err := restored.Sign(data)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	pub, _ := restored.PublicKeyBytes()
	if err := Verify(AlgEd25519, pub, data, sig); err != nil {
		t.Errorf("expected roundtrip signature to verify: %v", err)
	}
}

func TestRSAPSS_SignAndVerifyRoundTrip(t *testing.T) {
	signer, _, err := GenerateKey(AlgRSAPSS)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	data := []byte("rsa-pss-payload")
	sig, err := signer.Sign(data)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	pub, err := signer.PublicKeyBytes()
	if err != nil {
		t.Fatalf("PublicKeyBytes failed: %v", err)
	}
	if err := Verify(AlgRSAPSS, pub, data, sig); err != nil {
		t.Errorf("expected RSA-PSS signature to verify, got: %v", err)
	}
}

func TestSuiteFor_UnsupportedAlgorithmReturnsError(t *testing.T) {
	_, err := SuiteFor(Algorithm("not-a-real-algorithm"))
	if err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

type fakeSigner struct{ alg Algorithm }

func (f *fakeSigner) Sign(data []byte) ([]byte, error) { return append([]byte{}, data...), nil }
func (f *fakeSigner) PublicKeyBytes() ([]byte, error)  { return []byte("fake-public-key"), nil }
func (f *fakeSigner) Algorithm() Algorithm             { return f.alg }

type fakeVerifier struct{}

func (fakeVerifier) Verify(pubKey, data, signature []byte) error { return nil }

type fakeSuite struct{ alg Algorithm }

func (f fakeSuite) Algorithm() Algorithm { return f.alg }
func (f fakeSuite) GenerateKey() (Signer, []byte, error) {
	return &fakeSigner{alg: f.alg}, []byte("fake-private-key"), nil
}
func (f fakeSuite) SignerFromPrivateKey(privateKeyBytes []byte) (Signer, error) {
	return &fakeSigner{alg: f.alg}, nil
}
func (f fakeSuite) Verifier() Verifier { return fakeVerifier{} }

// TestGenerateKey_DeprecatedAlgorithmSignerStillWorksAndReportsItsAlgorithm
// confirms the deprecation-advisory wrapper around Sign is transparent: the
// wrapped Signer still signs and still reports its own algorithm tag, it
// just also emits an advisory on every Sign call.
func TestGenerateKey_DeprecatedAlgorithmSignerStillWorksAndReportsItsAlgorithm(t *testing.T) {
	Register(fakeSuite{alg: AlgPQDilithium})

	signer, _, err := GenerateKey(AlgPQDilithium)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if signer.Algorithm() != AlgPQDilithium {
		t.Errorf("expected wrapped signer to report %q, got %q", AlgPQDilithium, signer.Algorithm())
	}

	sig, err := signer.Sign([]byte("payload"))
	if err != nil {
		t.Fatalf("Sign failed on deprecated-algorithm signer: %v", err)
	}
	if string(sig) != "payload" {
		t.Errorf("expected wrapped Sign to delegate to the underlying signer, got %q", sig)
	}

	if err := Verify(AlgPQDilithium, []byte("fake-public-key"), []byte("payload"), sig); err != nil {
		t.Errorf("expected Verify to still succeed for a deprecated algorithm: %v", err)
	}
}

func TestAlgorithm_Deprecated(t *testing.T) {
	if !AlgPQDilithium.Deprecated() {
		t.Error("expected pq-dilithium to be marked deprecated")
	}
	if AlgPQ2025.Deprecated() {
		t.Error("pq2025 must not be marked deprecated")
	}
	if AlgEd25519.Deprecated() {
		t.Error("ring-Ed25519 must not be marked deprecated")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		wantErr  bool
	}{
		{"short1A!", false},
		{"nouppercase1!", true},
		{"NOLOWERCASE1!", true},
		{"NoDigitsHere!", true},
		{"NoSpecial1Chars", true},
		{"Tiny1!", true},
		{"Valid-Password1", false},
	}

	for _, c := range cases {
		err := ValidatePassword(c.password)
		if c.wantErr && err == nil {
			t.Errorf("ValidatePassword(%q): expected error, got nil", c.password)
		}
		if !c.wantErr && err != nil {
			t.Errorf("ValidatePassword(%q): unexpected error: %v", c.password, err)
		}
	}
}
