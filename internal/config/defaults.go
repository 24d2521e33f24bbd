package config

import (
	"strings"

	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/docs"
)

// DefaultApplier fills in defaults for one configuration domain. It runs
// after the file has been decoded, so it only replaces values left empty or
// out of range.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ScanDefaultApplier handles the marker, extensions and comment syntax.
type ScanDefaultApplier struct{}

func (ScanDefaultApplier) Domain() string { return "scan" }

func (ScanDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Marker) == "" {
		cfg.Marker = docs.DefaultMarker
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".js"}
	}
	for i, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions[i] = ext
	}
	return nil
}

// RenderDefaultApplier handles the render section.
type RenderDefaultApplier struct{}

func (RenderDefaultApplier) Domain() string { return "render" }

func (RenderDefaultApplier) ApplyDefaults(cfg *Config) error {
	r := &cfg.Render
	if v, ok := styleNames.Normalize(string(r.Style)); ok {
		r.Style = v
	} else if strings.TrimSpace(string(r.Style)) == "" {
		r.Style = docs.StyleSection
	}
	if r.Directive == "" {
		r.Directive = docs.DefaultDirective
	}
	if r.IndexTitle == "" {
		r.IndexTitle = docs.DefaultIndexTitle
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = docs.DefaultMaxDepth
	}
	if v, ok := policyNames.Normalize(string(r.OnConvertError)); ok {
		r.OnConvertError = v
	} else if strings.TrimSpace(string(r.OnConvertError)) == "" {
		r.OnConvertError = docs.PolicySkip
	}
	return nil
}

// ConvertDefaultApplier handles the converter section.
type ConvertDefaultApplier struct{}

func (ConvertDefaultApplier) Domain() string { return "convert" }

func (ConvertDefaultApplier) ApplyDefaults(cfg *Config) error {
	c := &cfg.Convert
	if v, ok := backendNames.Normalize(string(c.Backend)); ok {
		c.Backend = v
	} else if strings.TrimSpace(string(c.Backend)) == "" {
		c.Backend = convert.BackendPandoc
	}
	if c.PandocPath == "" {
		c.PandocPath = "pandoc"
	}
	return nil
}

// RuntimeDefaultApplier handles the build, events and watch sections.
type RuntimeDefaultApplier struct{}

func (RuntimeDefaultApplier) Domain() string { return "runtime" }

func (RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Workers < 0 {
		cfg.Build.Workers = 0
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "docshound.generated"
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = Default().Watch.Debounce
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		ScanDefaultApplier{},
		RenderDefaultApplier{},
		ConvertDefaultApplier{},
		RuntimeDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
