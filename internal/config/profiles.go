package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexforge/lexforge/internal/domain"
)

// Profiles maps preset names to sampling configurations. Presets are
// loaded once at startup and read-only afterwards; a request that
// names a profile gets a copy of its configuration.
type Profiles map[string]domain.SamplingConfig

// LoadProfiles reads named sampling presets from a YAML file. Fields a
// preset omits fall back to the base configuration. A missing path
// returns an empty, usable preset table.
func LoadProfiles(path string, base domain.SamplingConfig) (Profiles, error) {
	if path == "" {
		return Profiles{}, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: read %s: %w", path, err)
	}

	var raw map[string]struct {
		Temperature   *float64 `yaml:"temperature"`
		TopP          *float64 `yaml:"top_p"`
		MinP          *float64 `yaml:"min_p"`
		RepeatPenalty *float64 `yaml:"repeat_penalty"`
		MaxTokens     *int     `yaml:"max_tokens"`
	}
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("profiles: parse %s: %w", path, err)
	}

	out := make(Profiles, len(raw))
	for name, p := range raw {
		cfg := base
		if p.Temperature != nil {
			cfg.Temperature = *p.Temperature
		}
		if p.TopP != nil {
			cfg.TopP = *p.TopP
		}
		if p.MinP != nil {
			cfg.MinP = *p.MinP
		}
		if p.RepeatPenalty != nil {
			cfg.RepeatPenalty = *p.RepeatPenalty
		}
		if p.MaxTokens != nil {
			cfg.MaxTokens = *p.MaxTokens
		}
		out[name] = cfg
	}
	return out, nil
}

// Get returns the named preset, falling back to base when name is
// empty or unknown. The second return reports whether a non-empty name
// was found.
func (p Profiles) Get(name string, base domain.SamplingConfig) (domain.SamplingConfig, bool) {
	if name == "" {
		return base, true
	}
	cfg, ok := p[name]
	if !ok {
		return base, false
	}
	return cfg, true
}
