// Package validate checks raw engine output against the word entry
// contract: a strict JSON parse, the embedded schema, and the semantic
// invariants the schema cannot express. Validation is pure and never
// retries; retry policy belongs to the pipeline.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lexforge/lexforge/internal/contract"
	"github.com/lexforge/lexforge/internal/domain"
)

// maxSchemaViolations caps how many schema breaches are reported for
// one attempt to keep error payloads readable.
const maxSchemaViolations = 5

// Validator validates raw generation output. One instance is built at
// startup and shared; it is immutable and safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema contract.
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(contract.SchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse schema contract: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("word_contract.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := c.Compile("word_contract.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema contract: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate runs the contract checks in order, short-circuiting on the
// first failing stage: strict JSON parse, normalization + schema
// validation, then semantic invariants. word is the sanitized request
// word; the entry's word field is forced to it before validation.
func (v *Validator) Validate(rawText, word string) domain.ValidationOutcome {
	doc, violation := parseStrict(rawText)
	if violation != nil {
		return domain.ValidationOutcome{Violations: []domain.Violation{*violation}}
	}

	normalize(doc, word)

	if err := v.schema.Validate(doc); err != nil {
		return domain.ValidationOutcome{Violations: schemaViolations(err)}
	}

	entry, err := decodeEntry(doc)
	if err != nil {
		// The document already passed the schema, so this indicates a
		// contract/model mismatch, not bad engine output.
		return domain.ValidationOutcome{Violations: []domain.Violation{{
			Code:    domain.ViolationSchema,
			Message: fmt.Sprintf("decode entry: %v", err),
		}}}
	}

	if vs := semanticViolations(entry); len(vs) > 0 {
		return domain.ValidationOutcome{Violations: vs}
	}

	return domain.ValidationOutcome{Valid: true, Entry: entry}
}

// parseStrict decodes rawText as a single JSON value with nothing but
// whitespace after it.
func parseStrict(rawText string) (any, *domain.Violation) {
	dec := json.NewDecoder(strings.NewReader(rawText))

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &domain.Violation{
			Code:    domain.ViolationMalformedJSON,
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}
	}
	if dec.More() {
		return nil, &domain.Violation{
			Code:    domain.ViolationMalformedJSON,
			Message: "trailing content after JSON document",
		}
	}
	return doc, nil
}

// schemaViolations flattens a jsonschema validation error into ordered
// violations, reporting leaf causes with their instance paths.
func schemaViolations(err error) []domain.Violation {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []domain.Violation{{Code: domain.ViolationSchema, Message: err.Error()}}
	}

	var out []domain.Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(out) >= maxSchemaViolations {
			return
		}
		if len(e.Causes) == 0 {
			out = append(out, domain.Violation{
				Code:    domain.ViolationSchema,
				Path:    "/" + strings.Join(e.InstanceLocation, "/"),
				Message: e.Error(),
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)

	if len(out) == 0 {
		out = append(out, domain.Violation{Code: domain.ViolationSchema, Message: ve.Error()})
	}
	return out
}

// decodeEntry converts the normalized document into the typed entry.
func decodeEntry(doc any) (*domain.WordEntry, error) {
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var entry domain.WordEntry
	if err := json.Unmarshal(buf, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// semanticViolations checks the invariants the structural schema cannot
// express: parts of speech are pairwise distinct across meanings, and
// no synonym or antonym repeats the headword.
func semanticViolations(entry *domain.WordEntry) []domain.Violation {
	var out []domain.Violation
	headword := strings.ToLower(entry.Word)
	seen := make(map[string]struct{}, len(entry.Meanings))

	for i, m := range entry.Meanings {
		if _, dup := seen[m.PartOfSpeech]; dup {
			out = append(out, domain.Violation{
				Code:    domain.ViolationDuplicatePOS,
				Path:    fmt.Sprintf("/meanings/%d/partOfSpeech", i),
				Message: fmt.Sprintf("part of speech %q appears more than once", m.PartOfSpeech),
			})
		}
		seen[m.PartOfSpeech] = struct{}{}

		for j, s := range m.Synonyms {
			if s == headword {
				out = append(out, domain.Violation{
					Code:    domain.ViolationInvalidSynonym,
					Path:    fmt.Sprintf("/meanings/%d/synonyms/%d", i, j),
					Message: fmt.Sprintf("synonym %q repeats the headword", s),
				})
			}
		}
		for j, a := range m.Antonyms {
			if a == headword {
				out = append(out, domain.Violation{
					Code:    domain.ViolationInvalidSynonym,
					Path:    fmt.Sprintf("/meanings/%d/antonyms/%d", i, j),
					Message: fmt.Sprintf("antonym %q repeats the headword", a),
				})
			}
		}
	}
	return out
}
