package domain

// Violation codes produced by response validation.
const (
	ViolationMalformedJSON  = "malformed_json"
	ViolationSchema         = "schema_violation"
	ViolationDuplicatePOS   = "duplicate_pos"
	ViolationInvalidSynonym = "invalid_synonym"
)

// Violation is one contract breach found in a generated response.
type Violation struct {
	// Code identifies the breach class ("malformed_json",
	// "schema_violation", "duplicate_pos", "invalid_synonym").
	Code string `json:"code"`
	// Path locates the offending value inside the document, JSON
	// pointer style. Empty for document-level breaches.
	Path string `json:"path,omitempty"`
	// Message is a human-readable description of the breach.
	Message string `json:"message"`
}

// ValidationOutcome is the verdict for one generation attempt's raw
// output. It is immutable once produced.
type ValidationOutcome struct {
	// Valid reports whether the output satisfies the full contract.
	Valid bool
	// Entry holds the normalized parsed object when Valid is true.
	Entry *WordEntry
	// Violations lists the breaches in discovery order when Valid is
	// false.
	Violations []Violation
}

// Category maps the outcome's first violation to a failure category.
func (o ValidationOutcome) Category() string {
	if o.Valid || len(o.Violations) == 0 {
		return ""
	}
	switch o.Violations[0].Code {
	case ViolationMalformedJSON:
		return CategoryMalformedJSON
	case ViolationDuplicatePOS, ViolationInvalidSynonym:
		return CategorySemanticViolation
	default:
		return CategorySchemaViolation
	}
}

// GenerationAttempt records one try at generating a word's entry. The
// attempt history of a pipeline run is append-only; a later attempt
// never mutates an earlier record.
type GenerationAttempt struct {
	// Index is the zero-based position in the attempt sequence.
	Index int
	// Config is the sampling configuration the attempt ran with.
	Config SamplingConfig
	// RawOutput is the engine's raw text, empty when the call failed.
	RawOutput string
	// Failure categorizes why the attempt did not succeed, empty on a
	// valid attempt.
	Failure string
	// Violations holds the validation breaches for this attempt, if any.
	Violations []Violation
}

// WordResult is the terminal state of one word's pipeline run. Exactly
// one is produced per requested word.
type WordResult struct {
	// Word echoes the requested word.
	Word string `json:"word"`
	// OK reports whether a valid entry was produced.
	OK bool `json:"ok"`
	// Data is the generated entry when OK is true.
	Data *WordEntry `json:"data,omitempty"`
	// Category classifies the failure when OK is false.
	Category string `json:"category,omitempty"`
	// Error describes the failure when OK is false. For validation
	// failures it reflects the last attempt's violations only.
	Error string `json:"error,omitempty"`
}

// BatchResult is the ordered outcome of a batch run. Results[i]
// corresponds to the i-th input word regardless of completion order.
type BatchResult struct {
	Results []WordResult `json:"results"`
}
