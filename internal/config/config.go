// Package config provides configuration management for symgen using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the SYMGEN_ prefix, and validation. It manages generation
// settings (hash width, extra qstrs, output directory), source corpus
// selection (root, glob patterns, include dirs, compiler) and watch-mode
// options.
package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

type Config struct {
	Generate GenerateConfig `yaml:"generate" mapstructure:"generate"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GenerateConfig controls the emitted table.
type GenerateConfig struct {
	// BytesInHash is the qstr hash width in bytes: 1 or 2.
	BytesInHash int `yaml:"bytes_in_hash" mapstructure:"bytes_in_hash"`
	// BytesInLen is the stored string length width in bytes: 1 or 2.
	BytesInLen int `yaml:"bytes_in_len" mapstructure:"bytes_in_len"`
	// ExtraQstrs are appended to the unsorted pool after scanning, in
	// this order.
	ExtraQstrs []string `yaml:"extra_qstrs" mapstructure:"extra_qstrs"`
	// OutputDir is where the include tree is generated.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// DataDir overrides the embedded translation table and built-in qstr
	// lists with YAML files from a directory.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// Workers bounds concurrent preprocessing. 0 means sequential.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// SourceConfig selects the corpus to scan.
type SourceConfig struct {
	// Root is the interpreter source tree.
	Root string `yaml:"root" mapstructure:"root"`
	// Patterns are doublestar globs relative to Root selecting the
	// translation units to scan.
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`
	// ExcludePatterns remove matches from Patterns. Defaults to the
	// headers the runtime generates or that cannot be scanned standalone.
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
	// IncludeDirs are passed to the preprocessor as -I flags.
	IncludeDirs []string `yaml:"include_dirs" mapstructure:"include_dirs"`
	// Compiler is the preprocessing command; defaults to cc.
	Compiler string `yaml:"compiler" mapstructure:"compiler"`
	// Defines are extra -D flags. NO_QSTR is always defined.
	Defines []string `yaml:"defines" mapstructure:"defines"`
	// Mode selects how units are expanded: "cc" invokes the compiler,
	// "raw" reads files verbatim.
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// DebounceMs coalesces change bursts before regenerating.
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	// Patterns are extra globs to watch beyond the source patterns.
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load builds the configuration from viper's merged sources and validates
// it.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Generate.BytesInHash == 0 {
		config.Generate.BytesInHash = 2
	}
	if config.Generate.BytesInLen == 0 {
		config.Generate.BytesInLen = 1
	}
	if config.Generate.OutputDir == "" {
		config.Generate.OutputDir = "build/include"
	}
	if config.Source.Root == "" {
		config.Source.Root = "third_party/micropython"
	}
	if len(config.Source.Patterns) == 0 {
		config.Source.Patterns = []string{"py/*.c", "shared/runtime/gchelper_generic.c"}
	}
	if len(config.Source.ExcludePatterns) == 0 {
		config.Source.ExcludePatterns = []string{
			"py/dynruntime.h",
			"py/grammar.h",
			"py/qstrdefs.h",
			"py/vmentrytable.h",
		}
	}
	if config.Source.Compiler == "" {
		config.Source.Compiler = "cc"
	}
	if config.Source.Mode == "" {
		config.Source.Mode = "cc"
	}
	if config.Watch.DebounceMs == 0 {
		config.Watch.DebounceMs = 300
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// SourceFiles expands the source patterns against the root and returns the
// selected files in sorted path order. The sort matters: translation units
// are scanned in this order, and discovery order feeds the generated table.
func (c *SourceConfig) SourceFiles() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range c.Patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(c.Root, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			rel, err := filepath.Rel(c.Root, match)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)

			if c.excluded(rel) {
				continue
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}

	sort.Strings(files)

	return files, nil
}

func (c *SourceConfig) excluded(rel string) bool {
	for _, pattern := range c.ExcludePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
