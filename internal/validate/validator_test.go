package validate

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexforge/lexforge/internal/domain"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

// baseDoc returns a contract-conformant document as a mutable map.
func baseDoc() map[string]any {
	return map[string]any{
		"word":       "ignored",
		"baseForm":   "surface",
		"phonetic":   "/ˈsɜːfɪs/",
		"difficulty": "beginner",
		"language":   "english",
		"meanings": []any{
			map[string]any{
				"definition":      "This is a sufficiently long definition string for the schema.",
				"partOfSpeech":    "noun",
				"exampleSentence": "An example sentence that is valid.",
				"grammarTip":      "A short grammar tip.",
				"synonyms":        []any{"Alpha", "alpha", "BETA"},
				"antonyms":        []any{"Opposite", "opposite"},
				"translations": map[string]any{
					"es": "x", "fr": "x", "de": "x", "zh": "x", "ja": "x",
					"it": "x", "pt": "x", "ru": "x", "ar": "x",
				},
			},
		},
	}
}

func marshal(t *testing.T, doc any) string {
	t.Helper()
	buf, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(buf)
}

func TestValidateAcceptsConformantOutput(t *testing.T) {
	v := newValidator(t)

	out := v.Validate(marshal(t, baseDoc()), "Surface")
	require.True(t, out.Valid, "violations: %v", out.Violations)
	require.NotNil(t, out.Entry)

	// The entry describes the requested word, not whatever the engine echoed.
	assert.Equal(t, "Surface", out.Entry.Word)
	// Synonyms are trimmed, lowercased, and deduplicated in order.
	assert.Equal(t, []string{"alpha", "beta"}, out.Entry.Meanings[0].Synonyms)
	assert.Equal(t, []string{"opposite"}, out.Entry.Meanings[0].Antonyms)
}

func TestValidateIsPure(t *testing.T) {
	v := newValidator(t)
	raw := marshal(t, baseDoc())

	first := v.Validate(raw, "Surface")
	second := v.Validate(raw, "Surface")

	require.True(t, first.Valid)
	assert.Equal(t, first.Entry, second.Entry)
}

func TestValidateMalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "the word means a thing"},
		{name: "trailing content", raw: `{"word":"x"} trailing`},
		{name: "second document", raw: `{"word":"x"}{"word":"y"}`},
		{name: "truncated", raw: `{"word":"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newValidator(t).Validate(tt.raw, "x")
			require.False(t, out.Valid)
			require.Len(t, out.Violations, 1)
			assert.Equal(t, domain.ViolationMalformedJSON, out.Violations[0].Code)
			assert.Equal(t, domain.CategoryMalformedJSON, out.Category())
		})
	}
}

func TestValidateSchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{
			name:   "missing required field",
			mutate: func(doc map[string]any) { delete(doc, "baseForm") },
		},
		{
			name:   "extra top-level field",
			mutate: func(doc map[string]any) { doc["etymology"] = "unknown" },
		},
		{
			name: "definition below length bound",
			mutate: func(doc map[string]any) {
				meaning(doc, 0)["definition"] = "too short"
			},
		},
		{
			name: "part of speech outside enum",
			mutate: func(doc map[string]any) {
				meaning(doc, 0)["partOfSpeech"] = "exclamation"
			},
		},
		{
			name: "missing translation key",
			mutate: func(doc map[string]any) {
				delete(meaning(doc, 0)["translations"].(map[string]any), "ru")
			},
		},
		{
			name: "too many synonyms",
			mutate: func(doc map[string]any) {
				syn := make([]any, 9)
				for i := range syn {
					syn[i] = fmt.Sprintf("synonym%d", i)
				}
				meaning(doc, 0)["synonyms"] = syn
			},
		},
		{
			name:   "wrong language",
			mutate: func(doc map[string]any) { doc["language"] = "spanish" },
		},
		{
			name:   "empty meanings",
			mutate: func(doc map[string]any) { doc["meanings"] = []any{} },
		},
		{
			name: "five meanings",
			mutate: func(doc map[string]any) {
				for _, pos := range []string{"verb", "adjective", "adverb", "pronoun"} {
					extra := meaningCopy(t0(), pos)
					doc["meanings"] = append(doc["meanings"].([]any), extra)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := baseDoc()
			tt.mutate(doc)

			out := newValidator(t).Validate(marshal(t, doc), "surface")
			require.False(t, out.Valid)
			require.NotEmpty(t, out.Violations)
			assert.Equal(t, domain.ViolationSchema, out.Violations[0].Code)
			assert.Equal(t, domain.CategorySchemaViolation, out.Category())
		})
	}
}

func TestValidateSchemaViolationCarriesPath(t *testing.T) {
	doc := baseDoc()
	meaning(doc, 0)["definition"] = "too short"

	out := newValidator(t).Validate(marshal(t, doc), "surface")
	require.False(t, out.Valid)
	require.NotEmpty(t, out.Violations)
	assert.True(t, strings.HasPrefix(out.Violations[0].Path, "/meanings/0"),
		"path was %q", out.Violations[0].Path)
}

func TestValidateDuplicatePartOfSpeech(t *testing.T) {
	doc := baseDoc()
	doc["meanings"] = append(doc["meanings"].([]any), meaningCopy(t0(), "noun"))

	out := newValidator(t).Validate(marshal(t, doc), "surface")
	require.False(t, out.Valid)
	assert.Equal(t, domain.ViolationDuplicatePOS, out.Violations[0].Code)
	assert.Equal(t, domain.CategorySemanticViolation, out.Category())
}

func TestValidateSelfReferentialSynonym(t *testing.T) {
	doc := baseDoc()
	meaning(doc, 0)["synonyms"] = []any{"Surface", "other"}

	out := newValidator(t).Validate(marshal(t, doc), "Surface")
	require.False(t, out.Valid)
	assert.Equal(t, domain.ViolationInvalidSynonym, out.Violations[0].Code)
	assert.Contains(t, out.Violations[0].Path, "/synonyms/")
}

func TestValidateSelfReferentialAntonym(t *testing.T) {
	doc := baseDoc()
	meaning(doc, 0)["antonyms"] = []any{"surface"}

	out := newValidator(t).Validate(marshal(t, doc), "surface")
	require.False(t, out.Valid)
	assert.Equal(t, domain.ViolationInvalidSynonym, out.Violations[0].Code)
	assert.Contains(t, out.Violations[0].Path, "/antonyms/")
}

func TestValidateNormalizations(t *testing.T) {
	doc := baseDoc()
	doc["phonetic"] = "ˈsɜːfɪs"
	doc["language"] = "English"
	meaning(doc, 0)["partOfSpeech"] = "Noun"

	out := newValidator(t).Validate(marshal(t, doc), "surface")
	require.True(t, out.Valid, "violations: %v", out.Violations)
	assert.Equal(t, "/ˈsɜːfɪs/", out.Entry.Phonetic)
	assert.Equal(t, "english", out.Entry.Language)
	assert.Equal(t, "noun", out.Entry.Meanings[0].PartOfSpeech)
}

// meaning returns the i-th meaning of doc as a mutable map.
func meaning(doc map[string]any, i int) map[string]any {
	return doc["meanings"].([]any)[i].(map[string]any)
}

// t0 returns the base document's first meaning.
func t0() map[string]any {
	return meaning(baseDoc(), 0)
}

// meaningCopy clones a meaning with a different part of speech.
func meaningCopy(m map[string]any, pos string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	out["partOfSpeech"] = pos
	return out
}
