package addon

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/dbytex91/streamfusion/internal/aggregator"
	"github.com/dbytex91/streamfusion/internal/debrid/realdebrid"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/presenter"
	"github.com/dbytex91/streamfusion/internal/provider"
	"github.com/dbytex91/streamfusion/internal/prowlarr"
)

type StreamsResponse struct {
	Streams []presenter.Stream `json:"streams"`
}

// requestContext carries what adapters need from the incoming request.
type requestContext struct {
	baseURL   string
	userData  string
	ipAddress string
}

func (r requestContext) downloadURL(infoHash, fileID string) string {
	prefix := r.baseURL
	if r.userData != "" {
		prefix += "/" + r.userData
	}
	return prefix + "/download/" + infoHash + "/" + fileID
}

// adapters builds one adapter per configured upstream, in configuration
// order, each wrapped by the result cache when caching is enabled.
func (add *Addon) adapters(prefs *model.Preferences, rc requestContext) []provider.Adapter {
	rdKey := add.realDebridKey(prefs)

	configs := add.addonConfigs(prefs)
	adapters := make([]provider.Adapter, 0, len(configs))
	for _, cfg := range configs {
		var adapter provider.Adapter
		identity := []string{cfg.Family, cfg.Name, cfg.URL, cfg.APIKey}

		if strings.EqualFold(cfg.Family, familyProwlarr) {
			opts := []prowlarr.Option{
				prowlarr.WithMetaSource(add.meta),
				prowlarr.WithCache(add.cache),
				prowlarr.WithTimeout(add.timeouts.Clamp(cfg.Timeout)),
			}
			if cfg.Name != "" {
				opts = append(opts, prowlarr.WithName(cfg.Name))
			}
			if rdKey != "" {
				opts = append(opts, prowlarr.WithDebrid(add.newRealDebrid(rdKey, rc.ipAddress), rc.downloadURL))
				identity = append(identity, rdKey, rc.downloadURL("", ""))
			}
			adapter = prowlarr.NewAdapter(cfg.URL, cfg.APIKey, opts...)
		} else {
			adapter = provider.NewStreamAddon(cfg, add.timeouts)
		}

		if add.cacheTTL > 0 {
			adapter = aggregator.NewCached(adapter, add.cache, add.cacheTTL, strings.Join(identity, "|"))
		}
		adapters = append(adapters, adapter)
	}
	return adapters
}

// downloadCacheKey hashes the credential so it never sits in the cache.
func downloadCacheKey(apiKey, infoHash, fileID string) []byte {
	sum := sha1.Sum([]byte(apiKey + "|" + infoHash + "|" + fileID))
	return []byte("download:" + hex.EncodeToString(sum[:]))
}

var _ prowlarr.Availability = (*realdebrid.RealDebrid)(nil)
