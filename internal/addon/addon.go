package addon

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamfusion/internal/aggregator"
	"github.com/dbytex91/streamfusion/internal/cinemeta"
	"github.com/dbytex91/streamfusion/internal/debrid/realdebrid"
	"github.com/dbytex91/streamfusion/internal/metrics"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/presenter"
	"github.com/dbytex91/streamfusion/internal/provider"
	"github.com/dbytex91/streamfusion/internal/prowlarr"
	"github.com/dbytex91/streamfusion/internal/ranking"
	"github.com/dbytex91/streamfusion/internal/titleparser"
)

const (
	cacheSize         = 50 * 1024 * 1024 // 50MB
	downloadURLExpiry = 5 * 60
)

// Addon implements a Stremio addon
type Addon struct {
	id          string
	name        string
	version     string
	description string

	prowlarrURL      string
	prowlarrAPIKey   string
	realDebridAPIKey string

	timeouts provider.Timeouts
	cache    *freecache.Cache
	cacheTTL time.Duration
	meta     prowlarr.MetaSource

	newRealDebrid func(apiKey, ipAddress string) *realdebrid.RealDebrid
}

type Option func(*Addon)

func New(opts ...Option) *Addon {
	addon := &Addon{
		name:        presenter.DefaultAddonName,
		description: "Aggregates streams from Stremio addons and Prowlarr, filtered and ranked by your preferences",
		timeouts: provider.Timeouts{
			Default: aggregator.DefaultTimeout,
			Min:     2 * time.Second,
			Max:     50 * time.Second,
		},
		cache:         freecache.NewCache(cacheSize),
		cacheTTL:      10 * time.Minute,
		meta:          cinemeta.New(),
		newRealDebrid: realdebrid.New,
	}

	for _, opt := range opts {
		opt(addon)
	}

	if addon.prowlarrURL == "" || addon.prowlarrAPIKey == "" {
		log.Warn("No Prowlarr configured via environment variables. Users must configure their addons.")
	}

	return addon
}

// Routes registers every addon route, with and without userData.
func (add *Addon) Routes(router fiber.Router) {
	router.Get("/manifest.json", add.HandleGetManifest)
	router.Get("/:userData/manifest.json", add.HandleGetManifest)
	router.Get("/configure", add.HandleConfigure)
	router.Get("/:userData/configure", add.HandleConfigure)
	router.Get("/stream/:type/:id.json", add.HandleGetStreams)
	router.Get("/:userData/stream/:type/:id.json", add.HandleGetStreams)
	router.Get("/download/:infoHash/:fileID", add.HandleDownload)
	router.Get("/:userData/download/:infoHash/:fileID", add.HandleDownload)
	router.Head("/download/:infoHash/:fileID", add.HandleDownload)
	router.Head("/:userData/download/:infoHash/:fileID", add.HandleDownload)
}

func (add *Addon) HandleGetManifest(c *fiber.Ctx) error {
	configRequired := false
	if prefs, err := add.preferences(c); err != nil || len(add.addonConfigs(prefs)) == 0 {
		configRequired = true
	}

	manifest := &Manifest{
		ID:          add.id,
		Name:        add.name,
		Description: add.description,
		Version:     add.version,
		ResourceItems: []ResourceItem{
			{
				Name:       ResourceStream,
				Types:      []model.Kind{model.KindMovie, model.KindSeries},
				IDPrefixes: []string{"tt"},
			},
		},
		Types:      []model.Kind{model.KindMovie, model.KindSeries},
		Catalogs:   []CatalogItem{},
		IDPrefixes: []string{"tt"},
		BehaviorHints: &BehaviorHints{
			P2P:                   true,
			Configurable:          true,
			ConfigurationRequired: configRequired,
		},
	}

	return c.JSON(manifest)
}

// HandleConfigure lists the defaults and every accepted value, for building
// a userData payload.
func (add *Addon) HandleConfigure(c *fiber.Ctx) error {
	c.Response().Header.Add("Cache-control", "max-age=86400, public")
	return c.JSON(fiber.Map{
		"defaults":    model.DefaultPreferences(),
		"resolutions": titleparser.ResolutionNames(),
		"qualities":   titleparser.QualityNames(),
		"visualTags":  titleparser.VisualTagNames(),
		"audioTags":   titleparser.AudioTagNames(),
		"languages":   titleparser.LanguageNames(),
		"formatters":  []model.Formatter{model.FormatterGDrive, model.FormatterTorrentio, model.FormatterMinimal},
		"families":    []string{"generic", "torrentio", "comet", "mediafusion", "easynews", familyProwlarr},
	})
}

func (add *Addon) HandleGetStreams(c *fiber.Ctx) error {
	ctx := c.UserContext()

	prefs, err := add.preferences(c)
	if err != nil {
		log.WithContext(ctx).Warnf("Failed to parse user data: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid configuration data.",
		})
	}

	id, err := url.PathUnescape(strings.TrimSuffix(c.Params("id"), ".json"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid stremio id."})
	}
	req, err := model.ParseRequest(c.Params("type"), id)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	adapters := add.adapters(prefs, requestContext{
		baseURL:   c.BaseURL(),
		userData:  c.Params("userData"),
		ipAddress: getIPAddress(c),
	})
	if len(adapters) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Configuration required. Please configure the addon.",
		})
	}

	records, statuses := aggregator.Aggregate(ctx, req, adapters)
	ranked := ranking.Process(records, *prefs, ranking.ForKind(req.Kind))

	name := prefs.AddonName
	if name == "" {
		name = add.name
	}

	results := make([]presenter.Stream, 0, len(ranked)+1)
	for i := range ranked {
		out := presenter.Present(&ranked[i], prefs.Formatter, presenter.WithAddonName(name))
		results = append(results, presenter.ToStream(&ranked[i], out))
	}

	metrics.StreamsServed.Observe(float64(len(results)))
	log.WithContext(ctx).Infof("Served %d of %d streams for %s %s from %d providers",
		len(results), len(records), req.Kind, req.StremioID(), len(adapters))

	if aggregator.AllFailed(statuses) {
		results = append(results, presenter.Notice(name, failureMessage(statuses), c.BaseURL()+"/configure"))
		c.Response().Header.Add("Cache-control", "no-store")
	} else {
		c.Response().Header.Add("Cache-control", "max-age=1800, public, stale-while-revalidate=604800, stale-if-error=604800")
	}

	return c.JSON(StreamsResponse{
		Streams: results,
	})
}

func failureMessage(statuses []aggregator.Status) string {
	lines := make([]string, 0, len(statuses)+1)
	lines = append(lines, "No provider answered:")
	for _, s := range statuses {
		lines = append(lines, s.Name+": "+s.Error)
	}
	return strings.Join(lines, "\n")
}

func (add *Addon) HandleDownload(c *fiber.Ctx) error {
	ctx := c.UserContext()
	infoHash := strings.ToLower(c.Params("infoHash"))
	fileID := strings.ToLower(c.Params("fileID"))

	prefs, err := add.preferences(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid configuration data.",
		})
	}

	apiKey := add.realDebridKey(prefs)
	if apiKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Download requires Real Debrid configuration.",
		})
	}

	var downloadURL string
	key := downloadCacheKey(apiKey, infoHash, fileID)
	rawDownloadURL, err := add.cache.Get(key)
	if err != nil {
		downloadURL, err = add.newRealDebrid(apiKey, getIPAddress(c)).GetDownloadByInfoHash(ctx, infoHash, fileID)
		if err != nil {
			log.WithContext(ctx).Errorf("Couldn't generate the download link for %s, %s: %v", infoHash, fileID, err)
			return c.Status(downloadErrorStatus(err)).JSON(fiber.Map{
				"error": "Couldn't generate the download link.",
			})
		}

		err = add.cache.Set(key, []byte(downloadURL), downloadURLExpiry)
		if err != nil {
			log.WithContext(ctx).Warnf("Failed to cache downloadURL: %v", err)
		}
	} else {
		downloadURL = string(rawDownloadURL)
	}

	c.Response().Header.Add("Cache-control", "max-age=86400, public")
	return c.Redirect(downloadURL)
}

func downloadErrorStatus(err error) int {
	switch {
	case errors.Is(err, realdebrid.ErrTorrentNotReady):
		return fiber.StatusConflict
	case errors.Is(err, realdebrid.ErrNoFileFound), errors.Is(err, realdebrid.ErrNoTorrentFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadGateway
	}
}

func getIPAddress(c *fiber.Ctx) string {
	ips := c.GetReqHeaders()["Cf-Connecting-Ip"]
	if len(ips) > 0 {
		return ips[0]
	}

	return ""
}
