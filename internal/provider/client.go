package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dbytex91/streamfusion/internal/model"
)

// StreamsResponse is the body of a Stremio stream endpoint.
type StreamsResponse struct {
	Streams []RawStream `json:"streams"`
}

// RawStream is an upstream stream item as sent on the wire.
type RawStream struct {
	Name          string            `json:"name,omitempty"`
	Title         string            `json:"title,omitempty"`
	Description   string            `json:"description,omitempty"`
	URL           string            `json:"url,omitempty"`
	InfoHash      string            `json:"infoHash,omitempty"`
	FileIndex     *int              `json:"fileIdx,omitempty"`
	ExternalURL   string            `json:"externalUrl,omitempty"`
	Sources       []string          `json:"sources,omitempty"`
	BehaviorHints *RawBehaviorHints `json:"behaviorHints,omitempty"`
	Subtitles     []model.Subtitle  `json:"subtitles,omitempty"`
}

type RawBehaviorHints struct {
	Filename   string `json:"filename,omitempty"`
	BingeGroup string `json:"bingeGroup,omitempty"`
	VideoSize  int64  `json:"videoSize,omitempty"`
}

// Client talks to one Stremio-protocol addon.
type Client struct {
	client *resty.Client
}

// NewClient accepts either the addon base URL or its manifest URL.
func NewClient(addonURL string) *Client {
	base := strings.TrimSuffix(strings.TrimSuffix(addonURL, "/"), "/manifest.json")

	return &Client{
		client: resty.New().
			SetBaseURL(base).
			SetHeader("Accept", "application/json"),
	}
}

// StreamPath renders /stream/{kind}/{id}.json for a request.
func StreamPath(req model.Request) string {
	return "/stream/" + string(req.Kind) + "/" + req.StremioID() + ".json"
}

// Streams fetches the raw stream list. Non-2xx answers and bodies that are
// not JSON are errors.
func (c *Client) Streams(ctx context.Context, req model.Request) ([]RawStream, error) {
	result := &StreamsResponse{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(result).
		ForceContentType("application/json").
		Get(StreamPath(req))
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	return result.Streams, nil
}
