package plugins

import (
	"time"

	ctxcomp "github.com/gburgyan/go-ctxcomp"
)

const (
	DefaultCacheExpiration      = 10 * time.Minute
	DefaultCacheCleanupInterval = 30 * time.Minute
)

// CacheSettings is the configuration object published by SharedCache.
type CacheSettings struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

// CacheSettingsKey addresses the settings of the shared cache.
var CacheSettingsKey = ctxcomp.NewKey[CacheSettings]()

// SharedCache publishes an in-memory ctxcomp.Cache under ctxcomp.CacheKey, for use with
// ctxcomp.Cached, and its settings under CacheSettingsKey.
type SharedCache struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

func (p *SharedCache) Name() string {
	return "shared-cache"
}

func (p *SharedCache) settings() CacheSettings {
	s := CacheSettings{
		DefaultExpiration: p.DefaultExpiration,
		CleanupInterval:   p.CleanupInterval,
	}
	if s.DefaultExpiration == 0 {
		s.DefaultExpiration = DefaultCacheExpiration
	}
	if s.CleanupInterval == 0 {
		s.CleanupInterval = DefaultCacheCleanupInterval
	}
	return s
}

func (p *SharedCache) Start(cfg *ctxcomp.Config) error {
	if cfg.Components().Has(ctxcomp.CacheKey) {
		cfg.Logger().Debug("cache already registered, shared cache not installed")
		return nil
	}
	s := p.settings()
	ctxcomp.RegisterDefault[ctxcomp.Cache](cfg, ctxcomp.CacheKey, ctxcomp.NewMemoryCache(s.DefaultExpiration, s.CleanupInterval))
	return nil
}

// SeedDefaults publishes the cache settings so other components can size themselves after them.
func (p *SharedCache) SeedDefaults(cfg *ctxcomp.Config) {
	ctxcomp.RegisterDefault(cfg, CacheSettingsKey, p.settings())
}
