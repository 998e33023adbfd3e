// Package header defines the reserved jacs* fields every JACS document
// carries and the invariants that bind them together, shared by the
// document, agent, and agreement engines.
package header

import "time"

// Level is the jacsLevel marker controlling update mutability.
type Level string

const (
	LevelRaw      Level = "raw"
	LevelConfig   Level = "config"
	LevelArtifact Level = "artifact"
	LevelDerived  Level = "derived"
)

// Signature is the detached-signature object JACS embeds in
// jacsSignature, jacsRegistration, and jacsAgreement.signatures entries.
type Signature struct {
	AgentID       string    `json:"agentID"`
	AgentVersion  string    `json:"agentVersion,omitempty"`
	Date          time.Time `json:"date"`
	Signature     string    `json:"signature"`     // base64
	PublicKey     string    `json:"publicKey"`     // base64, encoding per algorithm
	PublicKeyHash string    `json:"publicKeyHash"` // hex SHA-256 of PublicKey's decoded bytes
	Algorithm     string    `json:"algorithm"`
	Fields        []string  `json:"fields"` // sorted top-level keys covered by this signature
}

// FileRecord is one entry of jacsFiles: canonical metadata for an external
// file attachment.
type FileRecord struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	SHA256   string `json:"sha256"`
	Embedded bool   `json:"embedded"`
	Content  string `json:"content,omitempty"` // base64, present iff Embedded
}

// Embedding is one entry of jacsEmbedding: a precomputed vector
// representation the document carries for similarity search, never
// computed by the core itself.
type Embedding struct {
	LLM    string    `json:"llm"`
	Vector []float64 `json:"vector"`
}

// Agreement is the jacsAgreement overlay: a frozen set of required signers
// and the signatures collected from them so far.
type Agreement struct {
	AgentIDs     []string    `json:"agentIDs"`
	Question     string      `json:"question,omitempty"`
	Context      string      `json:"context,omitempty"`
	Signatures   []Signature `json:"signatures"`
	ResponseType string      `json:"responseType,omitempty"` // "agree" | "disagree" | "reject"
}

// Header embeds the reserved jacs* fields common to every JACS document.
// Concrete document types embed Header and add their own payload fields;
// Header's json tags are exactly the wire field names so a struct
// embedding it marshals them at the top level.
type Header struct {
	JacsID              string      `json:"jacsId"`
	JacsVersion         string      `json:"jacsVersion"`
	JacsVersionDate     time.Time   `json:"jacsVersionDate"`
	JacsOriginalVersion string      `json:"jacsOriginalVersion"`
	JacsOriginalDate    time.Time   `json:"jacsOriginalDate"`
	JacsPreviousVersion string      `json:"jacsPreviousVersion,omitempty"`
	JacsType            string      `json:"jacsType"`
	JacsLevel           Level       `json:"jacsLevel"`
	JacsSignature       *Signature  `json:"jacsSignature,omitempty"`
	JacsRegistration    *Signature  `json:"jacsRegistration,omitempty"`
	JacsAgreement       *Agreement  `json:"jacsAgreement,omitempty"`
	JacsAgreementHash   string      `json:"jacsAgreementHash,omitempty"`
	JacsSha256          string      `json:"jacsSha256,omitempty"`
	JacsFiles           []FileRecord `json:"jacsFiles,omitempty"`
	JacsEmbedding       []Embedding  `json:"jacsEmbedding,omitempty"`
}

// SignatureCoveredFields returns the field names stripped before
// canonicalizing for the primary jacsSignature: the signature field itself
// and the content hash, since neither exists yet at sign time.
func SignatureCoveredFields() []string {
	return []string{"jacsSignature", "jacsSha256"}
}

// HashCoveredFields returns the field names stripped before computing
// jacsSha256: the hash field alone, since it is computed last and the
// signature it covers is already final by then.
func HashCoveredFields() []string {
	return []string{"jacsSha256"}
}

// RegistrationCoveredFields returns the field names stripped before
// canonicalizing for jacsRegistration: the registration field itself only
// — a registrar countersigns the document as already signed and hashed by
// its owner, so jacsSignature and jacsSha256 stay in the signed domain.
func RegistrationCoveredFields() []string {
	return []string{"jacsRegistration"}
}
