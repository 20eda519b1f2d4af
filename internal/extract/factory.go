package extract

import (
	"fmt"

	"github.com/PremSaiBollamoni/tallybridge/internal/config"
)

// ForConfig returns the page extractor selected by the configuration.
func ForConfig(cfg config.Config) (PageExtractor, error) {
	switch cfg.Extractor {
	case config.ExtractorDeepInfra:
		return NewDeepInfra(cfg.DeepInfraToken), nil
	case config.ExtractorGemini:
		return NewGemini(), nil
	default:
		return nil, fmt.Errorf("extract: unknown extractor %q", cfg.Extractor)
	}
}
