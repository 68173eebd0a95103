// Package domain contains the core data model for the word description
// pipeline: the linguistic entry produced for a word, the sampling
// configuration driving generation, per-attempt records, and the
// per-word and per-batch result types.
package domain

// PartsOfSpeech is the closed set of grammatical categories a meaning
// may carry. Every partOfSpeech value in a valid entry is a member of
// this set, and values are pairwise distinct across an entry's meanings.
var PartsOfSpeech = []string{
	"noun", "verb", "adjective", "adverb", "pronoun", "preposition",
	"conjunction", "interjection", "article", "determiner", "numeral",
	"participle", "gerund",
}

// TranslationLanguages lists the language keys every meaning's
// translations object must carry, all present, no others.
var TranslationLanguages = []string{"es", "fr", "de", "zh", "ja", "it", "pt", "ru", "ar"}

// Difficulties is the closed set of accepted difficulty ratings.
var Difficulties = []string{"beginner", "intermediate", "advanced"}

// Translations maps each of the nine fixed language keys to a
// translation of the meaning.
type Translations struct {
	ES string `json:"es"`
	FR string `json:"fr"`
	DE string `json:"de"`
	ZH string `json:"zh"`
	JA string `json:"ja"`
	IT string `json:"it"`
	PT string `json:"pt"`
	RU string `json:"ru"`
	AR string `json:"ar"`
}

// Meaning is one part-of-speech-specific interpretation of a word.
type Meaning struct {
	Definition      string       `json:"definition"`
	PartOfSpeech    string       `json:"partOfSpeech"`
	ExampleSentence string       `json:"exampleSentence"`
	GrammarTip      string       `json:"grammarTip"`
	Synonyms        []string     `json:"synonyms"`
	Antonyms        []string     `json:"antonyms"`
	Translations    Translations `json:"translations"`
}

// WordEntry is the structured linguistic description produced for a
// single word. Its JSON form is the compatibility contract of the
// single-word endpoint and of the data field in batch items.
type WordEntry struct {
	Word       string    `json:"word"`
	BaseForm   string    `json:"baseForm"`
	Phonetic   string    `json:"phonetic"`
	Difficulty string    `json:"difficulty"`
	Language   string    `json:"language"`
	Meanings   []Meaning `json:"meanings"`
}
