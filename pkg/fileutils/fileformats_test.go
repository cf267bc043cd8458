package fileutils

import (
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		format   FileFormat
		profile  string
		expected string
	}{
		{JSON, "", "config.json"},
		{YAML, "prod", "config.prod.yaml"},
		{YML, "staging", "config.staging.yml"},
		{TOML, "dev", "config.dev.toml"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%s", tt.format, tt.profile), func(t *testing.T) {
			got := GenerateFilename(tt.format, tt.profile)
			if got != tt.expected {
				t.Errorf("GenerateFilename(%q, %q) = %q; want %q", tt.format, tt.profile, got, tt.expected)
			}
		})
	}
}

func TestParseFormat_ValidFormats(t *testing.T) {
	tests := []struct {
		input    string
		expected FileFormat
	}{
		{".json", JSON},
		{"json", JSON},
		{"config.json", JSON},
		{"/etc/ghsecrets/config.prod.yaml", YAML},
		{"secrets.YML", YML},
		{"toml", TOML},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			format, err := ParseFormat(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestParseFormat_InvalidFormats(t *testing.T) {
	tests := []string{
		"config.txt",
		".env",
		"ejson",
		"unknown.file",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			format, err := ParseFormat(input)
			assert.Error(t, err)
			assert.Equal(t, format, "")
		})
	}
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, IsConfigFile("config.json"))
	assert.True(t, IsConfigFile("deploy/secrets.toml"))
	assert.False(t, IsConfigFile("prod"))
	assert.False(t, IsConfigFile(".env"))
}
