package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file into a Config with defaults applied.
// ${VAR} and ${VAR:-fallback} references are interpolated from the
// environment before parsing.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML into a Config with defaults applied.
func Parse(raw []byte) (*Config, error) {
	interpolated, err := interpolate(raw)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(interpolated, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	cfg.withDefaults()
	return &cfg, nil
}

// varPattern matches ${NAME} and ${NAME:-fallback} references.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// interpolate substitutes environment variables into the raw YAML. A set
// variable beats the fallback; a reference with neither is an error, and
// every such name is reported in one pass.
func interpolate(raw []byte) ([]byte, error) {
	var missing []string

	out := varPattern.ReplaceAllFunc(raw, func(ref []byte) []byte {
		groups := varPattern.FindSubmatch(ref)
		name := string(groups[1])

		if v, ok := os.LookupEnv(name); ok {
			return []byte(v)
		}
		if fallback := groups[2]; len(fallback) > 0 {
			// Strip the ":-" marker.
			return fallback[2:]
		}

		missing = append(missing, name)
		return ref
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("unresolved variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
