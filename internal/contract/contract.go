// Package contract carries the process-wide, read-only generation
// assets: the JSON schema contract a generated entry must satisfy and
// the grammar constraint handed to the inference engine. Both are
// embedded at build time and never modified at runtime.
package contract

import _ "embed"

// SchemaJSON is the JSON Schema (draft 2020-12) for a word entry.
//
//go:embed word_contract.schema.json
var SchemaJSON []byte

// GrammarGBNF is the default structural grammar constraint restricting
// generated token sequences to the entry's JSON shape.
//
//go:embed word.gbnf
var GrammarGBNF string
