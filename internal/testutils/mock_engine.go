// Package testutils provides deterministic test doubles for the
// inference engine so pipeline behavior can be exercised without a
// model process.
package testutils

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lexforge/lexforge/internal/domain"
)

// GenerateFunc scripts one engine call.
type GenerateFunc func(ctx context.Context, prompt string, cfg domain.SamplingConfig) (string, error)

// MockEngine is a scripted InferenceEngine that records call counts,
// per-call sampling configs, and the maximum number of concurrently
// active calls, for asserting the pipeline's retry and admission
// behavior.
type MockEngine struct {
	mu        sync.Mutex
	script    GenerateFunc
	calls     int
	active    int
	maxActive int
	configs   []domain.SamplingConfig
	available bool
}

// NewMockEngine builds a mock whose calls are served by script. A nil
// script answers every call with a valid entry for the word "mock".
func NewMockEngine(script GenerateFunc) *MockEngine {
	if script == nil {
		script = func(_ context.Context, _ string, _ domain.SamplingConfig) (string, error) {
			return ValidEntryJSON("mock"), nil
		}
	}
	return &MockEngine{script: script, available: true}
}

// Generate implements ports.InferenceEngine with concurrency tracking.
func (m *MockEngine) Generate(ctx context.Context, prompt, _ string, cfg domain.SamplingConfig) (string, error) {
	m.mu.Lock()
	m.calls++
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	m.configs = append(m.configs, cfg)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	return m.script(ctx, prompt, cfg)
}

// Available implements ports.InferenceEngine.
func (m *MockEngine) Available(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// SetAvailable scripts the health probe.
func (m *MockEngine) SetAvailable(v bool) {
	m.mu.Lock()
	m.available = v
	m.mu.Unlock()
}

// Calls returns the total number of Generate calls observed.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MaxActive returns the highest number of simultaneously active calls.
func (m *MockEngine) MaxActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// Configs returns a copy of the sampling configs in call order.
func (m *MockEngine) Configs() []domain.SamplingConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SamplingConfig, len(m.configs))
	copy(out, m.configs)
	return out
}

// ValidEntry returns a schema- and invariant-conformant entry for word.
func ValidEntry(word string) domain.WordEntry {
	return domain.WordEntry{
		Word:       word,
		BaseForm:   word,
		Phonetic:   "/ˈwɜːd/",
		Difficulty: "intermediate",
		Language:   "english",
		Meanings: []domain.Meaning{
			{
				Definition:      "A carefully constructed placeholder definition that exceeds thirty characters.",
				PartOfSpeech:    "noun",
				ExampleSentence: "This is a concise example sentence.",
				GrammarTip:      "Use consistently within proper grammatical context.",
				Synonyms:        []string{"term", "expression"},
				Antonyms:        []string{"silence"},
				Translations: domain.Translations{
					ES: "palabra", FR: "mot", DE: "Wort", ZH: "词", JA: "言葉",
					IT: "parola", PT: "palavra", RU: "слово", AR: "كلمة",
				},
			},
		},
	}
}

// ValidEntryJSON returns ValidEntry marshaled to JSON.
func ValidEntryJSON(word string) string {
	buf, err := json.Marshal(ValidEntry(word))
	if err != nil {
		panic(err)
	}
	return string(buf)
}
