package provider

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamfusion/internal/model"
)

// StreamAddon is an Adapter for any upstream speaking the Stremio stream
// protocol. Family decides how raw items are read.
type StreamAddon struct {
	name    string
	url     string
	family  *Family
	timeout time.Duration
	client  *Client
}

// NewStreamAddon builds an adapter from user configuration. Unknown families
// use the generic mapping. A missing URL is reported when Fetch is called.
func NewStreamAddon(cfg model.AddonConfig, timeouts Timeouts) *StreamAddon {
	family, ok := Lookup(cfg.Family)
	if !ok {
		family = Generic
	}

	a := &StreamAddon{
		name:    cfg.Name,
		url:     cfg.URL,
		family:  family,
		timeout: timeouts.Clamp(cfg.Timeout),
	}
	if cfg.URL != "" {
		a.client = NewClient(cfg.URL)
	}
	return a
}

func (a *StreamAddon) Name() string {
	return a.name
}

func (a *StreamAddon) Timeout() time.Duration {
	return a.timeout
}

func (a *StreamAddon) Fetch(ctx context.Context, req model.Request) ([]model.Stream, error) {
	if a.client == nil {
		return nil, &ConfigError{Provider: a.name, Field: "url"}
	}

	raws, err := a.client.Streams(ctx, req)
	if err != nil {
		return nil, Wrap(a.name, "fetching streams", err)
	}

	streams := make([]model.Stream, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		s, ok := a.family.Map(raw, a.name)
		if !ok {
			dropped++
			continue
		}
		streams = append(streams, s)
	}

	if dropped > 0 {
		log.WithContext(ctx).Debugf("%s: dropped %d of %d unusable items", a.name, dropped, len(raws))
	}

	return streams, nil
}
