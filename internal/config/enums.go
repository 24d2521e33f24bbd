package config

import (
	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/docs"
	"github.com/Aeva/whisperscope/internal/foundation"
)

var (
	styleNames = foundation.NewNormalizer(map[string]docs.Style{
		"section":   docs.StyleSection,
		"directive": docs.StyleDirective,
	})
	policyNames = foundation.NewNormalizer(map[string]docs.ErrorPolicy{
		"skip":  docs.PolicySkip,
		"abort": docs.PolicyAbort,
	})
	backendNames = foundation.NewNormalizer(map[string]convert.Backend{
		"pandoc": convert.BackendPandoc,
		"native": convert.BackendNative,
	})
)
