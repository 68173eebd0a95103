package validate

import "strings"

// normalize applies the output fix-ups that precede schema validation.
// These repair presentation drift the engine is prone to (casing, slash
// wrapping, duplicate list entries) without masking contract breaches:
// anything beyond presentation still fails the schema or semantic
// checks afterwards. The document is mutated in place.
func normalize(doc any, word string) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return
	}

	// The entry always describes the requested word, whatever the
	// engine echoed back.
	obj["word"] = word

	if lang, ok := obj["language"].(string); ok {
		obj["language"] = strings.ToLower(strings.TrimSpace(lang))
	}

	if ph, ok := obj["phonetic"].(string); ok {
		obj["phonetic"] = wrapPhonetic(ph)
	}

	meanings, ok := obj["meanings"].([]any)
	if !ok {
		return
	}
	for _, m := range meanings {
		meaning, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if pos, ok := meaning["partOfSpeech"].(string); ok {
			meaning["partOfSpeech"] = strings.ToLower(strings.TrimSpace(pos))
		}
		for _, key := range []string{"synonyms", "antonyms"} {
			if arr, ok := meaning[key].([]any); ok {
				meaning[key] = cleanWordList(arr)
			} else if _, present := meaning[key]; !present {
				meaning[key] = []any{}
			}
		}
	}
}

// wrapPhonetic ensures the transcription is slash-delimited.
func wrapPhonetic(ph string) string {
	trimmed := strings.TrimSpace(ph)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "/") && strings.HasSuffix(trimmed, "/") {
		return trimmed
	}
	return "/" + strings.Trim(trimmed, "/") + "/"
}

// cleanWordList trims, lowercases, and deduplicates string entries,
// keeping first-occurrence order and dropping empties. Non-string
// entries are kept untouched so the schema can report them.
func cleanWordList(arr []any) []any {
	seen := make(map[string]struct{}, len(arr))
	out := make([]any, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			out = append(out, item)
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(s))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
