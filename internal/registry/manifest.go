package registry

import (
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	caslerrors "github.com/raidos23/casl/pkg/errors"
)

// ManifestFileName is looked for in every candidate plugin directory.
const ManifestFileName = "plugin.yaml"

// Manifest describes a plugin package on disk. The entry field names a
// registration entrypoint compiled into the host binary.
type Manifest struct {
	Plugin      bool   `yaml:"plugin"`
	ID          string `yaml:"id" validate:"required"`
	Description string `yaml:"description" validate:"required"`
	Entry       string `yaml:"entry" validate:"required"`
}

var (
	manifestValidatorOnce sync.Once
	manifestValidator     *validator.Validate
)

func manifestValidatorInstance() *validator.Validate {
	manifestValidatorOnce.Do(func() {
		manifestValidator = validator.New()
	})
	return manifestValidator
}

// LoadManifest reads and validates a plugin manifest. A manifest that
// parses but lacks the plugin marker or required fields is a signature
// failure, not a parse failure.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, caslerrors.NewSignatureError(path, "manifest is not valid YAML", err)
	}

	if !m.Plugin {
		return nil, caslerrors.NewSignatureError(path, "manifest does not declare plugin: true", nil)
	}

	if err := manifestValidatorInstance().Struct(&m); err != nil {
		return nil, caslerrors.NewSignatureError(path, "manifest is missing required fields", err)
	}

	return &m, nil
}
