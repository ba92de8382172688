package main

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/coocood/freecache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbytex91/streamfusion/internal/addon"
	"github.com/dbytex91/streamfusion/internal/metrics"
	"github.com/dbytex91/streamfusion/internal/provider"
)

type config struct {
	Port           int           `env:"PORT" envDefault:"7000"`
	AddonID        string        `env:"ADDON_ID" envDefault:"com.streamfusion.addon"`
	AddonName      string        `env:"ADDON_NAME" envDefault:"StreamFusion"`
	ProwlarrURL    string        `env:"PROWLARR_URL"`
	ProwlarrAPIKey string        `env:"PROWLARR_API_KEY"`
	RealDebridKey  string        `env:"REAL_DEBRID_API_KEY"`
	DefaultTimeout time.Duration `env:"DEFAULT_TIMEOUT" envDefault:"15s"`
	MinTimeout     time.Duration `env:"MIN_TIMEOUT" envDefault:"2s"`
	MaxTimeout     time.Duration `env:"MAX_TIMEOUT" envDefault:"50s"`
	CacheSizeMB    int           `env:"CACHE_SIZE_MB" envDefault:"50"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	SSLEnabled bool   `env:"SSL_ENABLED"`
	SSLPort    int    `env:"SSL_PORT" envDefault:"7443"`
	SSLDomain  string `env:"SSL_DOMAIN"`
	SSLCert    string `env:"SSL_CERT_FILE" envDefault:"/etc/ssl/local-ip-co/server.pem"`
	SSLKey     string `env:"SSL_KEY_FILE" envDefault:"/etc/ssl/local-ip-co/server.key"`
}

var (
	maskedPathPattern = regexp.MustCompile(`^/([\w%.=-]+)/(?:configure|stream|download|manifest)`)
	version           = "1.0.0"
)

func main() {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	opts := []addon.Option{
		addon.WithID(cfg.AddonID),
		addon.WithName(cfg.AddonName),
		addon.WithVersion(version),
		addon.WithTimeouts(provider.Timeouts{
			Default: cfg.DefaultTimeout,
			Min:     cfg.MinTimeout,
			Max:     cfg.MaxTimeout,
		}),
		addon.WithCache(freecache.NewCache(cfg.CacheSizeMB*1024*1024), cfg.CacheTTL),
	}

	// Only add Prowlarr client if both URL and API key are provided
	if cfg.ProwlarrURL != "" && cfg.ProwlarrAPIKey != "" {
		opts = append(opts, addon.WithProwlarr(cfg.ProwlarrURL, cfg.ProwlarrAPIKey))
	}

	if cfg.RealDebridKey != "" {
		opts = append(opts, addon.WithRealDebrid(cfg.RealDebridKey))
	}

	add := addon.New(opts...)

	if cfg.SSLEnabled {
		go func() {
			httpsApp := newApp(add, reg, cfg.AddonName+" SSL")
			addr := ":" + strconv.Itoa(cfg.SSLPort)
			log.Infof("Starting HTTPS server on %s with SSL domain: %s", addr, cfg.SSLDomain)
			log.Fatal(httpsApp.ListenTLS(addr, cfg.SSLCert, cfg.SSLKey))
		}()
	}

	app := newApp(add, reg, cfg.AddonName)
	addr := ":" + strconv.Itoa(cfg.Port)
	log.Infof("Starting HTTP server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func newApp(add *addon.Addon, reg *prometheus.Registry, name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: name,
	})
	app.Use(cors.New())
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(logger.New(logger.Config{
		CustomTags: map[string]logger.LogFunc{
			"maskedPath": func(output logger.Buffer, c *fiber.Ctx, data *logger.Data, extraParam string) (int, error) {
				return output.WriteString(maskPath(c.Path()))
			},
		},
		Format:        "${time} | ${status} | ${latency} | ${ip} | ${method} | ${maskedPath} | ${error}\n",
		TimeFormat:    "15:04:05",
		TimeZone:      "Local",
		TimeInterval:  500 * time.Millisecond,
		Output:        os.Stdout,
		DisableColors: false,
	}))
	app.Use(metrics.Middleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	add.Routes(app)

	return app
}

// maskPath hides the userData segment, it carries credentials.
func maskPath(urlPath string) string {
	loc := maskedPathPattern.FindStringSubmatchIndex(urlPath)
	if len(loc) > 3 {
		return urlPath[:loc[2]] + "***" + urlPath[loc[3]:]
	}
	return urlPath
}
