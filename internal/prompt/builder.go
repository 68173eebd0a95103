// Package prompt composes the fixed instruction prompt for a single
// word. Building is deterministic and side-effect free; all input
// rejection happens here, before any engine call.
package prompt

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/lexforge/lexforge/internal/domain"
)

// MaxWordLength bounds the sanitized word, in code points.
const MaxWordLength = 64

// systemInstruction is the fixed preamble for every generation call.
const systemInstruction = "You are an expert linguist and lexicographer. " +
	"Produce a single valid JSON object describing the given word: its base form, " +
	"phonetic transcription, difficulty, language, and between one and four meanings, " +
	"each with a distinct part of speech. Output the JSON object only, no prose."

// Builder sanitizes a word and embeds it in the fixed instruction.
type Builder struct{}

// NewBuilder returns a ready Builder. It carries no state.
func NewBuilder() *Builder { return &Builder{} }

// Build sanitizes raw and returns the full prompt together with the
// sanitized word. Rejections are *domain.InputError and consume no
// generation attempt. Given identical input the output is identical.
func (b *Builder) Build(raw string) (promptText, word string, err error) {
	word = strings.TrimSpace(norm.NFC.String(raw))

	if word == "" {
		return "", "", domain.NewInputError("word", domain.ErrEmptyWord)
	}
	runes := []rune(word)
	if len(runes) > MaxWordLength {
		return "", "", domain.NewInputError("word", domain.ErrWordTooLong)
	}
	for _, r := range runes {
		if unicode.IsControl(r) {
			return "", "", domain.NewInputError("word", domain.ErrWordControlChars)
		}
	}

	// The word sits inside a quoted field of the template, so quote
	// and escape characters are escaped rather than rejected.
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(word)

	promptText = fmt.Sprintf("%s\n\nWord: \"%s\"\n", systemInstruction, escaped)
	return promptText, word, nil
}
