package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	caslerrors "github.com/raidos23/casl/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Parse loads a configuration file from disk, validates it, and returns
// the resulting model.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, caslerrors.NewParseError(path, 0, err)
	}

	cfg, err := ParseBytes(data)
	if err != nil {
		if pe, ok := err.(*caslerrors.ParseError); ok && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}

	return cfg, nil
}

// ParseBytes decodes and validates configuration from raw YAML.
func ParseBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, caslerrors.NewParseError("", extractLine(err), err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads the configuration at path, falling back to Default when
// the file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Parse(path)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
