package addon

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dbytex91/streamfusion/internal/model"
)

const familyProwlarr = "prowlarr"

// preferences returns the validated preferences of the request. The base
// routes, without userData, run on the defaults and the server credentials.
func (add *Addon) preferences(c *fiber.Ctx) (*model.Preferences, error) {
	raw := c.Params("userData")
	if raw == "" {
		prefs := model.DefaultPreferences()
		return &prefs, nil
	}

	prefs, err := parseUserData(raw)
	if err != nil {
		return nil, err
	}

	prefs.ApplyDefaults()
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return prefs, nil
}

// parseUserData accepts the configuration as URL-escaped JSON or as
// base64url encoded JSON.
func parseUserData(raw string) (*model.Preferences, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: unescaping userData: %v", model.ErrInvalidPreferences, err)
	}

	data := []byte(decoded)
	if !strings.HasPrefix(strings.TrimSpace(decoded), "{") {
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(decoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding userData: %v", model.ErrInvalidPreferences, err)
		}
	}

	prefs := &model.Preferences{}
	if err := json.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPreferences, err)
	}
	return prefs, nil
}

// addonConfigs resolves the upstreams of a request. Without any configured
// addon the server's Prowlarr is used, when there is one. Prowlarr entries
// fall back to the server URL, and get the server key only when they point
// at the server's instance.
func (add *Addon) addonConfigs(prefs *model.Preferences) []model.AddonConfig {
	configs := prefs.Addons
	if len(configs) == 0 && add.prowlarrURL != "" && add.prowlarrAPIKey != "" {
		configs = []model.AddonConfig{{Name: "Prowlarr", Family: familyProwlarr}}
	}

	resolved := make([]model.AddonConfig, 0, len(configs))
	for _, cfg := range configs {
		if strings.EqualFold(cfg.Family, familyProwlarr) {
			if cfg.URL == "" {
				cfg.URL = add.prowlarrURL
			}
			if cfg.APIKey == "" && add.isServerProwlarr(cfg.URL) {
				cfg.APIKey = add.prowlarrAPIKey
			}
		}
		resolved = append(resolved, cfg)
	}
	return resolved
}

func (add *Addon) isServerProwlarr(rawURL string) bool {
	if add.prowlarrURL == "" {
		return false
	}
	return strings.TrimRight(rawURL, "/") == strings.TrimRight(add.prowlarrURL, "/")
}

func (add *Addon) realDebridKey(prefs *model.Preferences) string {
	if key := prefs.Services[model.ServiceRealDebrid]; key != "" {
		return key
	}
	return add.realDebridAPIKey
}
