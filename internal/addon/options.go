package addon

import (
	"time"

	"github.com/coocood/freecache"

	"github.com/dbytex91/streamfusion/internal/provider"
	"github.com/dbytex91/streamfusion/internal/prowlarr"
)

func WithID(id string) Option {
	return func(a *Addon) {
		a.id = id
	}
}

func WithName(name string) Option {
	return func(a *Addon) {
		a.name = name
	}
}

func WithVersion(version string) Option {
	return func(a *Addon) {
		a.version = version
	}
}

// WithProwlarr sets the server-wide Prowlarr instance. Users may still
// override it in their configuration.
func WithProwlarr(prowlarrURL string, prowlarrAPIKey string) Option {
	return func(a *Addon) {
		a.prowlarrURL = prowlarrURL
		a.prowlarrAPIKey = prowlarrAPIKey
	}
}

func WithRealDebrid(apiKey string) Option {
	return func(a *Addon) {
		a.realDebridAPIKey = apiKey
	}
}

func WithTimeouts(timeouts provider.Timeouts) Option {
	return func(a *Addon) {
		a.timeouts = timeouts
	}
}

// WithCache replaces the in-process cache. A zero ttl disables caching of
// provider results, the cache still holds download links.
func WithCache(cache *freecache.Cache, ttl time.Duration) Option {
	return func(a *Addon) {
		a.cache = cache
		a.cacheTTL = ttl
	}
}

func WithMetaSource(meta prowlarr.MetaSource) Option {
	return func(a *Addon) {
		a.meta = meta
	}
}
