package config

import (
	"fmt"
	"strings"

	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
)

// ValidateConfig checks a configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	checks := []func(*Config) error{
		validateScan,
		validateRender,
		validateConvert,
		validateRuntime,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field string, format string, args ...any) error {
	return foundationerrors.ConfigError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func validateScan(cfg *Config) error {
	if strings.ContainsAny(cfg.Marker, "\n\r") {
		return invalid("marker", "marker must be a single line")
	}
	for _, ext := range cfg.Extensions {
		if ext == "" || ext == "." {
			return invalid("extensions", "empty source extension")
		}
	}
	if err := cfg.Syntax.Validate(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid comment syntax").
			Fatal().
			WithContext("field", "syntax").
			Build()
	}
	return nil
}

func validateRender(cfg *Config) error {
	if _, err := styleNames.Parse(string(cfg.Render.Style)); err != nil {
		return invalid("render.style", "render style: %v", err)
	}
	if strings.ContainsAny(cfg.Render.Directive, " \t\n") {
		return invalid("render.directive", "directive name %q must not contain whitespace", cfg.Render.Directive)
	}
	if _, err := policyNames.Parse(string(cfg.Render.OnConvertError)); err != nil {
		return invalid("render.on_convert_error", "error policy: %v", err)
	}
	return nil
}

func validateConvert(cfg *Config) error {
	if _, err := backendNames.Parse(string(cfg.Convert.Backend)); err != nil {
		return invalid("convert.backend", "converter backend: %v", err)
	}
	if cfg.Convert.Timeout < 0 {
		return invalid("convert.timeout", "timeout must not be negative")
	}
	return nil
}

func validateRuntime(cfg *Config) error {
	if cfg.Events.NATSURL != "" && strings.TrimSpace(cfg.Events.Subject) == "" {
		return invalid("events.subject", "events subject is required when nats_url is set")
	}
	if cfg.Watch.Resync < 0 {
		return invalid("watch.resync", "resync interval must not be negative")
	}
	return nil
}
