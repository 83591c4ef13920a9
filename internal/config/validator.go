package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	caslerrors "github.com/raidos23/casl/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})

	return validateInst
}

// Validate performs schema and cross-field validation on the
// configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return caslerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	for id, setting := range cfg.Plugins {
		if strings.TrimSpace(id) == "" {
			return caslerrors.NewValidationError("plugins", "plugin entry with empty id", nil)
		}
		if err := v.Struct(setting); err != nil {
			return convertValidationError(err)
		}
	}

	seen := make(map[string]struct{}, len(cfg.Order))
	for i, id := range cfg.Order {
		if strings.TrimSpace(id) == "" {
			return caslerrors.NewValidationError(fmt.Sprintf("order[%d]", i), "empty plugin id", nil)
		}
		if _, dup := seen[id]; dup {
			return caslerrors.NewValidationError(fmt.Sprintf("order[%d]", i), fmt.Sprintf("duplicate plugin id %q", id), nil)
		}
		seen[id] = struct{}{}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return caslerrors.NewValidationError(field, msg, err)
	}

	return caslerrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
