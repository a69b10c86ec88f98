package catalog

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/vitacare-voice/internal/config"
	"github.com/Raikerian/vitacare-voice/internal/tools"
)

// Module provides the catalog and the SearchFunc the tool executor needs.
var Module = fx.Module("catalog",
	fx.Provide(
		NewResultsCacheProvider,
		NewCatalogProvider,
		NewSearchFuncProvider,
	),
)

// NewResultsCacheProvider creates a ResultsCache with config-derived size.
func NewResultsCacheProvider(cfg *config.Config, logger *zap.Logger) (*ResultsCache, error) {
	size := cfg.Catalog.CacheSize
	if size <= 0 {
		logger.Warn("Catalog CacheSize is not configured or is invalid, defaulting to 64",
			zap.Int("configuredSize", size))
		size = 64
	}
	logger.Info("Creating catalog ResultsCache", zap.Int("size", size))

	return NewResultsCache(size)
}

// NewCatalogProvider returns the featured catalog.
func NewCatalogProvider(cache *ResultsCache) *Catalog {
	return New(FeaturedProducts, cache)
}

// NewSearchFuncProvider prints search results to stdout.
func NewSearchFuncProvider(logger *zap.Logger, c *Catalog) tools.SearchFunc {
	return NewSearchFunc(logger, c, os.Stdout)
}
