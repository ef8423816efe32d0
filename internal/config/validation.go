package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

func validateConfig(config *Config) error {
	if err := validateGenerateConfig(&config.Generate); err != nil {
		return fmt.Errorf("generate config: %w", err)
	}

	if err := validateSourceConfig(&config.Source); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func validateGenerateConfig(config *GenerateConfig) error {
	if config.BytesInHash != 1 && config.BytesInHash != 2 {
		return fmt.Errorf("bytes_in_hash must be 1 or 2, got %d", config.BytesInHash)
	}

	if config.BytesInLen != 1 && config.BytesInLen != 2 {
		return fmt.Errorf("bytes_in_len must be 1 or 2, got %d", config.BytesInLen)
	}

	if config.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", config.Workers)
	}

	if config.OutputDir != "" {
		if err := validatePath(config.OutputDir); err != nil {
			return fmt.Errorf("invalid output_dir %q: %w", config.OutputDir, err)
		}
	}

	return nil
}

func validateSourceConfig(config *SourceConfig) error {
	if len(config.Patterns) == 0 {
		return fmt.Errorf("at least one source pattern is required")
	}

	for _, pattern := range config.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid source pattern %q", pattern)
		}
		if filepath.IsAbs(pattern) {
			return fmt.Errorf("source pattern %q must be relative to root", pattern)
		}
		if strings.Contains(filepath.Clean(pattern), "..") {
			return fmt.Errorf("source pattern %q contains path traversal", pattern)
		}
	}

	for _, pattern := range config.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	if config.Mode != "cc" && config.Mode != "raw" {
		return fmt.Errorf("mode must be \"cc\" or \"raw\", got %q", config.Mode)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	switch config.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.Level)
	}

	if config.Format != "text" && config.Format != "json" {
		return fmt.Errorf("log format must be \"text\" or \"json\", got %q", config.Format)
	}

	return nil
}

// validatePath validates a configured file path.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
