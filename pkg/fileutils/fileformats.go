// Package fileutils provides utilities for working with configuration file formats.
package fileutils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileFormat represents the supported configuration file extensions.
type FileFormat string

// Supported file format extensions.
const (
	// JSON represents the .json file format. This is the format of the original config.json.
	JSON FileFormat = ".json"
	// YAML represents the .yaml file format.
	YAML FileFormat = ".yaml"
	// YML represents the .yml file format.
	YML FileFormat = ".yml"
	// TOML represents the .toml file format.
	TOML FileFormat = ".toml"
)

// DefaultBasename is the file name used when only a profile name is given.
const DefaultBasename = "config"

// ValidFormats returns a slice of all supported file formats.
func ValidFormats() []FileFormat {
	return []FileFormat{JSON, YAML, YML, TOML}
}

// ParseFormat determines the file format based on the filename or format string.
// It accepts inputs like ".json", "json", "config.yaml", or full paths like "/path/to/config.prod.toml".
// Returns an error if the format is not recognized.
func ParseFormat(input string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(input))
	if ext == "" {
		ext = "." + strings.ToLower(strings.TrimPrefix(input, "."))
	}
	for _, format := range ValidFormats() {
		if ext == string(format) {
			return format, nil
		}
	}

	return "", fmt.Errorf("unsupported format: %s", input)
}

// IsConfigFile reports whether input names a file with a supported extension.
func IsConfigFile(input string) bool {
	ext := strings.ToLower(filepath.Ext(input))
	for _, format := range ValidFormats() {
		if ext == string(format) {
			return true
		}
	}
	return false
}

// GenerateFilename creates a filename from a format and optional profile name.
// For example, GenerateFilename(JSON, "prod") returns "config.prod.json",
// and GenerateFilename(JSON, "") returns "config.json".
func GenerateFilename(format FileFormat, profile string) string {
	if profile != "" {
		return fmt.Sprintf("%s.%s%s", DefaultBasename, profile, format)
	}
	return DefaultBasename + string(format)
}
