package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigError is a path-qualified configuration error: which document
// (or "merged config" if the error isn't attributable to one file) and
// which field.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s (from %s): %v", e.Field, e.Path, e.Err)
	}
	return fmt.Sprintf("config: missing required key %q (from %s)", e.Field, e.Path)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads and merges YAML documents from paths left-to-right: a key
// present in a later document overrides the same key from an earlier
// one. Each document is decoded into a generic yaml.Node tree first so
// merge happens before the Config struct's UnmarshalYAML hooks run.
func Load(paths []string) (Config, error) {
	if len(paths) == 0 {
		return Config{}, fmt.Errorf("config: no config paths given")
	}

	var merged yaml.Node
	var mergedFrom string
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		if merged.Content == nil {
			merged = *doc.Content[0]
			mergedFrom = path
		} else {
			mergeNodes(&merged, doc.Content[0])
			mergedFrom = mergedFrom + ", " + path
		}
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return Config{}, &ConfigError{Path: mergedFrom, Field: "(decode)", Err: err}
	}
	// An absent (or zero) odometry.receipt_offset falls back to 9ms.
	if cfg.Odometry.ReceiptOffset == 0 {
		cfg.Odometry.ReceiptOffset = Duration(9000)
	}
	if err := validate(cfg, mergedFrom); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeNodes merges override into base in place, for mapping nodes:
// keys in override replace or extend keys in base; nested mappings merge
// recursively; anything else (scalars, sequences) is replaced wholesale.
func mergeNodes(base, override *yaml.Node) {
	if base.Kind != yaml.MappingNode || override.Kind != yaml.MappingNode {
		*base = *override
		return
	}
	for i := 0; i+1 < len(override.Content); i += 2 {
		key := override.Content[i]
		val := override.Content[i+1]

		found := false
		for j := 0; j+1 < len(base.Content); j += 2 {
			if base.Content[j].Value == key.Value {
				mergeNodes(base.Content[j+1], val)
				found = true
				break
			}
		}
		if !found {
			base.Content = append(base.Content, key, val)
		}
	}
}

// validate fails fast on the fields this module cannot sensibly default.
func validate(cfg Config, from string) error {
	type requirement struct {
		field string
		ok    bool
	}
	reqs := []requirement{
		{"uart.port", cfg.Uart.Port != ""},
		{"uart.baud_rate", cfg.Uart.BaudRate > 0},
		{"tracker.max_distance", cfg.Tracker.MaxDistance > 0},
		{"clustering.max_radius", cfg.Clustering.MaxRadius > 0},
		{"session.root_dir", cfg.Session.RootDir != ""},
	}
	for _, r := range reqs {
		if !r.ok {
			return &ConfigError{Path: from, Field: r.field}
		}
	}
	return nil
}
