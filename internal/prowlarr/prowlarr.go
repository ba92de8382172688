package prowlarr

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamfusion/internal/magnet"
	"github.com/dbytex91/streamfusion/internal/model"
)

const (
	moviesCategory = "2000"
	tvCategory     = "5000"

	// Prowlarr rewrites download links to its own listen address.
	localURL = "http://localhost:9696"
)

var ErrNoMagnet = errors.New("prowlarr: magnet uri is expected but not found")

type Prowlarr struct {
	client *resty.Client
	apiURL string
}

// Query is one indexer search. Season narrows a series search to a season.
type Query struct {
	Kind   model.Kind
	Name   string
	Season int
}

func New(apiURL string, apiKey string) *Prowlarr {
	apiURL = strings.TrimSuffix(apiURL, "/")
	client := resty.New().
		SetBaseURL(apiURL).
		SetHeader("X-Api-Key", apiKey).
		SetHeader("Accept", "application/json").
		SetRedirectPolicy(NotFollowMagnet())

	return &Prowlarr{
		client: client,
		apiURL: apiURL,
	}
}

func (j *Prowlarr) GetIndexers(ctx context.Context) ([]*Indexer, error) {
	result := []*Indexer{}
	resp, err := j.client.R().
		SetContext(ctx).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/api/v1/indexer")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("prowlarr: unexpected status %d listing indexers", resp.StatusCode())
	}

	return result, nil
}

func (j *Prowlarr) Search(ctx context.Context, indexer *Indexer, q Query) ([]*Torrent, error) {
	category, searchType, query := moviesCategory, "movie", q.Name
	if q.Kind == model.KindSeries {
		category, searchType = tvCategory, "tvsearch"
		if q.Season > 0 {
			query = fmt.Sprintf("%s{Season:%02d}", q.Name, q.Season)
		}
	}

	result := []*Torrent{}
	resp, err := j.client.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetQueryParam("categories", category).
		SetQueryParam("type", searchType).
		SetQueryParam("indexerIds", strconv.Itoa(indexer.ID)).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/api/v1/search")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("prowlarr: unexpected status %d searching %s", resp.StatusCode(), indexer.Name)
	}

	for _, torrent := range result {
		j.normaliseTorrent(torrent)
		if torrent.Indexer == "" {
			torrent.Indexer = indexer.Name
		}
	}

	return result, nil
}

// FetchInfoHash fills InfoHash from the magnet link, following the download
// link when needed. The link either redirects to a magnet or serves a
// .torrent body.
func (j *Prowlarr) FetchInfoHash(ctx context.Context, torrent *Torrent) (*Torrent, error) {
	if torrent.InfoHash != "" {
		return torrent, nil
	}

	if torrent.MagnetUri == "" {
		if torrent.Link == "" {
			return torrent, ErrNoMagnet
		}

		resp, err := j.client.R().SetContext(ctx).Get(torrent.Link)
		if err != nil {
			return torrent, err
		}

		if strings.HasPrefix(resp.Header().Get("Content-Type"), "application/x-bittorrent") {
			return torrent, j.readTorrentFile(torrent, resp.Body())
		}

		torrent.MagnetUri = resp.Header().Get("Location")
		if !strings.HasPrefix(torrent.MagnetUri, "magnet:") {
			return torrent, ErrNoMagnet
		}
	}

	m, err := magnet.Parse(torrent.MagnetUri)
	if err != nil {
		return torrent, err
	}
	torrent.InfoHash = m.InfoHashHex()
	torrent.Trackers = m.Trackers

	return torrent, nil
}

func (j *Prowlarr) readTorrentFile(torrent *Torrent, body []byte) error {
	meta, err := parseTorrentFile(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid torrent file for %s: %w", torrent.Title, err)
	}

	m := &magnet.Magnet{
		Name:     torrent.Title,
		InfoHash: meta.Info.Hash,
		Trackers: meta.Trackers(),
	}
	torrent.MagnetUri = m.String()
	torrent.InfoHash = m.InfoHashHex()
	torrent.Trackers = m.Trackers
	if idx, ok := meta.Info.LargestMediaFile(); ok {
		torrent.FileIndex = &idx
	}

	return nil
}

func generateGID(content string) TorrentID {
	h := sha1.New()
	_, _ = io.WriteString(h, content)
	return h.Sum(nil)
}

func (j *Prowlarr) normaliseTorrent(tor *Torrent) {
	tor.Link = strings.Replace(tor.Link, localURL, j.apiURL, 1)
	tor.InfoHash = strings.ToLower(tor.InfoHash)
	tor.GID = generateGID(tor.Guid)
	if strings.HasPrefix(tor.MagnetUri, "magnet:") {
		return
	}

	if tor.Link == "" {
		tor.Link = tor.MagnetUri
	}

	switch {
	case strings.HasPrefix(tor.Guid, "magnet:"):
		// some indexers put the magnet link in the guid
		tor.MagnetUri = tor.Guid
	case tor.MagnetUri != "":
		log.Debugf("Invalid magnet URI %v", tor.MagnetUri)
		tor.MagnetUri = ""
	}
}
