package domain

// SamplingConfig holds the decoding parameters for one generation call.
// A config is immutable once constructed; a retry derives a new, safer
// config via Relaxed rather than mutating the original.
type SamplingConfig struct {
	// Temperature controls decoding randomness. Zero is deterministic.
	Temperature float64 `json:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	// TopP is the nucleus sampling cutoff.
	TopP float64 `json:"top_p" yaml:"top_p" validate:"min=0,max=1"`
	// MinP is the minimum-probability floor relative to the top token.
	MinP float64 `json:"min_p" yaml:"min_p" validate:"min=0,max=1"`
	// RepeatPenalty discourages verbatim repetition.
	RepeatPenalty float64 `json:"repeat_penalty" yaml:"repeat_penalty" validate:"min=0.5,max=2"`
	// MaxTokens bounds the length of a single generation.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" validate:"min=1"`
}

// Relaxation bounds for retry derivation. The exact curve is policy,
// not contract; the invariant is that each derivation step reduces
// sampling entropy monotonically.
const (
	relaxTemperatureFloor = 0.05
	relaxTopPCap          = 0.6
	relaxMinPCap          = 0.2
)

// Relaxed derives the sampling configuration for a retry attempt:
// temperature is halved (floored), top_p is capped toward the
// deterministic region, and the min-p floor is raised. Repeat penalty
// and the token budget are unchanged. The receiver is not modified.
func (c SamplingConfig) Relaxed() SamplingConfig {
	out := c

	out.Temperature = c.Temperature / 2
	if out.Temperature < relaxTemperatureFloor && c.Temperature > relaxTemperatureFloor {
		out.Temperature = relaxTemperatureFloor
	}
	if out.TopP > relaxTopPCap {
		out.TopP = relaxTopPCap
	}
	out.MinP = c.MinP * 2
	if out.MinP > relaxMinPCap {
		out.MinP = relaxMinPCap
	}

	return out
}
