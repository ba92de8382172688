package prowlarr

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adrg/strutil/metrics"
	"github.com/coocood/freecache"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamfusion/internal/cinemeta"
	"github.com/dbytex91/streamfusion/internal/debrid/realdebrid"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/pipe"
	"github.com/dbytex91/streamfusion/internal/provider"
	"github.com/dbytex91/streamfusion/internal/titleparser"
)

const (
	DefaultName = "Prowlarr"

	maxTitleDistance    = 5
	infoHashCacheExpiry = 24 * 60 * 60
	defaultSearchBudget = 45 * time.Second
	debridName          = "Real-Debrid"
	// hashes per instantAvailability call, the path gets long quickly
	availabilityBatch = 20
)

var nonWordCharacter = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// MetaSource resolves an IMDB id to the title searched on indexers.
type MetaSource interface {
	Lookup(ctx context.Context, kind model.Kind, id string) (*cinemeta.MetaInfo, error)
}

// Availability reports which info-hashes a debrid service holds.
type Availability interface {
	InstantAvailability(ctx context.Context, infoHashes []string) (map[string][]*realdebrid.File, error)
}

// DownloadURL builds the playback link of a cached debrid file.
type DownloadURL func(infoHash, fileID string) string

// Adapter searches every enabled Prowlarr indexer for a title and turns the
// results into streams. With a debrid service configured, results the
// service already holds become direct links.
type Adapter struct {
	name        string
	apiURL      string
	apiKey      string
	prowlarr    *Prowlarr
	meta        MetaSource
	debrid      Availability
	downloadURL DownloadURL
	cache       *freecache.Cache
	timeout     time.Duration
}

type Option func(*Adapter)

func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

func WithMetaSource(meta MetaSource) Option {
	return func(a *Adapter) {
		a.meta = meta
	}
}

func WithDebrid(debrid Availability, downloadURL DownloadURL) Option {
	return func(a *Adapter) {
		a.debrid = debrid
		a.downloadURL = downloadURL
	}
}

// WithCache keeps resolved info-hashes between requests.
func WithCache(cache *freecache.Cache) Option {
	return func(a *Adapter) {
		a.cache = cache
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(a *Adapter) {
		a.timeout = timeout
	}
}

func NewAdapter(apiURL, apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		name:   DefaultName,
		apiURL: apiURL,
		apiKey: apiKey,
		meta:   cinemeta.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if apiURL != "" && apiKey != "" {
		a.prowlarr = New(apiURL, apiKey)
	}

	return a
}

func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) Timeout() time.Duration {
	return a.timeout
}

type searchRecord struct {
	Request   model.Request
	Meta      *cinemeta.MetaInfo
	Indexer   *Indexer
	Torrent   *Torrent
	Release   titleparser.Release
	Checked   bool
	Files     []*realdebrid.File
	MediaFile *realdebrid.File
}

func (a *Adapter) Fetch(ctx context.Context, req model.Request) ([]model.Stream, error) {
	switch {
	case a.apiURL == "":
		return nil, &provider.ConfigError{Provider: a.name, Field: "url"}
	case a.apiKey == "":
		return nil, &provider.ConfigError{Provider: a.name, Field: "apiKey"}
	}

	p := pipe.New(func() ([]*searchRecord, error) {
		return []*searchRecord{{Request: req}}, nil
	})

	p.Map(a.fetchMetaInfo(ctx))
	p.FanOut(a.fanOutToAllIndexers(ctx))
	p.Channel(a.searchForTorrents(ctx))
	p.Map(parseRelease)
	p.Filter(matchesRequest)
	p.FanOut(a.enrichInfoHash(ctx), pipe.Concurrency[searchRecord](10))
	p.Filter(deduplicateTorrent())
	p.Batch(a.enrichWithCachedFiles(ctx), pipe.BatchSize[searchRecord](availabilityBatch))
	p.Map(locateMediaFile)

	records := []*searchRecord{}
	err := p.SinkWithTimeout(ctx, func(r *searchRecord) error {
		records = append(records, r)
		return nil
	}, searchBudget(ctx))
	if err != nil {
		return nil, provider.Wrap(a.name, "searching indexers", err)
	}

	streams := make([]model.Stream, 0, len(records))
	for _, r := range records {
		streams = append(streams, a.toStream(r))
	}

	// stages run concurrently, so fix an order for identical requests
	slices.SortFunc(streams, func(s1, s2 model.Stream) int {
		if c := strings.Compare(s1.Filename, s2.Filename); c != 0 {
			return c
		}
		return strings.Compare(s1.InfoHash(), s2.InfoHash())
	})

	log.WithContext(ctx).Debugf("%s: %d streams for %s", a.name, len(streams), req.StremioID())
	return streams, nil
}

// searchBudget leaves part of the caller's deadline to hand back partial
// results before it expires.
func searchBudget(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultSearchBudget
	}
	return time.Until(deadline) * 4 / 5
}

func (a *Adapter) fetchMetaInfo(ctx context.Context) func(r *searchRecord) (*searchRecord, error) {
	return func(r *searchRecord) (*searchRecord, error) {
		meta, err := a.meta.Lookup(ctx, r.Request.Kind, r.Request.MediaID)
		if err != nil {
			return nil, fmt.Errorf("looking up %s: %w", r.Request.MediaID, err)
		}

		r.Meta = meta
		return r, nil
	}
}

func (a *Adapter) fanOutToAllIndexers(ctx context.Context) func(r *searchRecord) ([]*searchRecord, error) {
	return func(r *searchRecord) ([]*searchRecord, error) {
		indexers, err := a.prowlarr.GetIndexers(ctx)
		if err != nil {
			return nil, fmt.Errorf("couldn't load indexers: %w", err)
		}

		records := make([]*searchRecord, 0, len(indexers))
		for _, indexer := range indexers {
			if !indexer.Enable {
				log.WithContext(ctx).Debugf("Skip %s as it's disabled", indexer.Name)
				continue
			}

			newR := *r
			newR.Indexer = indexer
			records = append(records, &newR)
		}

		return records, nil
	}
}

// searchForTorrents emits results as each indexer answers. A series search
// that fills the indexer's default page is repeated for the season alone, as
// the episode is likely beyond the first page.
func (a *Adapter) searchForTorrents(ctx context.Context) func(r *searchRecord, stopCh <-chan struct{}, outCh chan<- *searchRecord) error {
	return func(r *searchRecord, stopCh <-chan struct{}, outCh chan<- *searchRecord) error {
		total := 0
		send := func(torrents []*Torrent) {
			total += len(torrents)
			records := make([]*searchRecord, 0, len(torrents))
			for _, torrent := range torrents {
				newR := *r
				newR.Torrent = torrent
				records = append(records, &newR)
			}
			pipe.SendRecords(records, outCh, stopCh)
		}

		q := Query{Kind: r.Request.Kind, Name: r.Meta.Name}
		torrents, err := a.prowlarr.Search(ctx, r.Indexer, q)
		if err != nil {
			log.WithContext(ctx).Warnf("Search on %s failed: %v", r.Indexer.Name, err)
			return nil
		}
		send(torrents)

		limit := r.Indexer.Capabilities.LimitDefaults
		if r.Request.Kind == model.KindSeries && limit > 0 && len(torrents) >= limit {
			q.Season = r.Request.Season
			torrents, err = a.prowlarr.Search(ctx, r.Indexer, q)
			if err != nil {
				log.WithContext(ctx).Warnf("Season search on %s failed: %v", r.Indexer.Name, err)
			}
			send(torrents)
		}

		log.WithContext(ctx).Debugf("Completed search from %s - Found %d torrents", r.Indexer.Name, total)
		return nil
	}
}

func parseRelease(r *searchRecord) (*searchRecord, error) {
	r.Release = titleparser.ParseRelease(r.Torrent.Title)
	return r, nil
}

// matchesRequest keeps results that are the requested title, year and
// episode. Results without an IMDB id must also have a similar title.
func matchesRequest(r *searchRecord) bool {
	if r.Torrent.Imdb != 0 && imdbNumber(r.Meta.IMDBID) != r.Torrent.Imdb {
		return false
	}

	if !r.Meta.CoversYear(r.Release.Year) {
		return false
	}

	if r.Request.Kind == model.KindSeries && !r.Release.Covers(r.Request.Season, r.Request.Episode) {
		return false
	}

	if r.Torrent.Imdb == 0 {
		diff := checkTitleSimilarity(r.Meta.Name, r.Release.Title)
		if diff >= maxTitleDistance {
			if diff < maxTitleDistance+3 {
				log.Debugf("Excluded %s, title: %s, diff: %d", r.Torrent.Title, r.Release.Title, diff)
			}
			return false
		}
	}

	return true
}

func imdbNumber(id string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "tt"))
	return n
}

func checkTitleSimilarity(left, right string) int {
	left = nonWordCharacter.ReplaceAllString(left, "")
	right = nonWordCharacter.ReplaceAllString(right, "")
	levenshtein := &metrics.Levenshtein{
		CaseSensitive: false,
		InsertCost:    2,
		DeleteCost:    3,
		ReplaceCost:   3,
	}
	return levenshtein.Distance(left, right)
}

func (a *Adapter) enrichInfoHash(ctx context.Context) func(r *searchRecord) ([]*searchRecord, error) {
	return func(r *searchRecord) ([]*searchRecord, error) {
		if r.Torrent.InfoHash == "" && a.cache != nil {
			if infoHash, err := a.cache.Get(r.Torrent.GID); err == nil {
				r.Torrent.InfoHash = string(infoHash)
			}
		}

		torrent, err := a.prowlarr.FetchInfoHash(ctx, r.Torrent)
		if err != nil {
			log.WithContext(ctx).Debugf("Failed to fetch InfoHash for %s due to: %v", r.Torrent.Title, err)
			return nil, nil
		}
		r.Torrent = torrent

		if a.cache != nil {
			if err := a.cache.Set(r.Torrent.GID, []byte(r.Torrent.InfoHash), infoHashCacheExpiry); err != nil {
				log.WithContext(ctx).Warnf("Failed to cache the InfoHash due to: %v", err)
			}
		}

		return []*searchRecord{r}, nil
	}
}

func deduplicateTorrent() func(r *searchRecord) bool {
	found := &sync.Map{}
	return func(r *searchRecord) bool {
		_, loaded := found.LoadOrStore(r.Torrent.InfoHash, struct{}{})
		return !loaded
	}
}

// enrichWithCachedFiles asks the debrid service about a batch of hashes. A
// failing service leaves the batch unchecked rather than dropping it.
func (a *Adapter) enrichWithCachedFiles(ctx context.Context) func(records []*searchRecord) ([]*searchRecord, error) {
	return func(records []*searchRecord) ([]*searchRecord, error) {
		if a.debrid == nil || len(records) == 0 {
			return records, nil
		}

		infoHashes := make([]string, 0, len(records))
		for _, r := range records {
			infoHashes = append(infoHashes, r.Torrent.InfoHash)
		}

		filesByHash, err := a.debrid.InstantAvailability(ctx, infoHashes)
		if err != nil {
			log.WithContext(ctx).Warnf("Failed to fetch files from debrid: %v", err)
			return records, nil
		}

		for _, r := range records {
			r.Checked = true
			r.Files = filesByHash[r.Torrent.InfoHash]
		}

		return records, nil
	}
}

// locateMediaFile picks the file to play from a cached torrent. A cached
// pack without the requested episode is treated as not cached.
func locateMediaFile(r *searchRecord) (*searchRecord, error) {
	if len(r.Files) == 0 {
		return r, nil
	}

	if r.Request.Kind == model.KindSeries {
		r.MediaFile = findEpisodeMediaFile(r.Files, r.Request.Season, r.Request.Episode)
	} else {
		r.MediaFile = findMovieMediaFile(r.Files)
	}

	if r.MediaFile == nil {
		log.Debugf("Couldn't locate media file: %s, %d, %d", r.Torrent.Title, r.Request.Season, r.Request.Episode)
		r.Files = nil
	}

	return r, nil
}

func episodePatterns(season, episode int) []*regexp.Regexp {
	return []*regexp.Regexp{
		// season and episode together
		regexp.MustCompile(fmt.Sprintf(`(?i)(\b|_)S?(%d|%02d)[x.\-]?E?%02d(\b|_)`, season, season, episode)),
		// season and episode apart
		regexp.MustCompile(fmt.Sprintf(`(?i)\bS?%02d\b.+\bE?%02d\b`, season, episode)),
		// episode only
		regexp.MustCompile(fmt.Sprintf(`(?i)\bE?(%d|%02d)\b`, episode, episode)),
	}
}

func findEpisodeMediaFile(files []*realdebrid.File, season, episode int) *realdebrid.File {
	for _, pattern := range episodePatterns(season, episode) {
		if f := largestMediaFile(files, pattern.MatchString); f != nil {
			return f
		}
	}
	return nil
}

func findMovieMediaFile(files []*realdebrid.File) *realdebrid.File {
	return largestMediaFile(files, func(string) bool { return true })
}

func largestMediaFile(files []*realdebrid.File, match func(string) bool) *realdebrid.File {
	var mediaFile *realdebrid.File
	for _, f := range files {
		name := path.Base(f.FileName)
		if !hasMediaExtension(name) || !match(name) {
			continue
		}

		if mediaFile == nil || mediaFile.FileSize < f.FileSize {
			mediaFile = f
		}
	}
	return mediaFile
}

func (a *Adapter) toStream(r *searchRecord) model.Stream {
	filename := r.Torrent.Title
	if r.Torrent.FileName != "" {
		filename = r.Torrent.FileName
	}

	s := model.Stream{
		SourceName: a.name,
		SizeBytes:  r.Torrent.Size,
		Indexer:    r.Torrent.Indexer,
		Torrent: &model.TorrentInfo{
			InfoHash:  r.Torrent.InfoHash,
			FileIndex: r.Torrent.FileIndex,
			Seeders:   model.IntPtr(r.Torrent.Seeders),
			Sources:   trackerSources(r.Torrent.Trackers),
		},
	}

	switch {
	case r.MediaFile != nil:
		filename = path.Base(r.MediaFile.FileName)
		s.SizeBytes = int64(r.MediaFile.FileSize)
		s.Provider = &model.ProviderInfo{Name: debridName, Cached: model.Cached}
		if a.downloadURL != nil {
			s.URL = a.downloadURL(r.Torrent.InfoHash, r.MediaFile.ID)
		}
	case r.Checked:
		s.Provider = &model.ProviderInfo{Name: debridName, Cached: model.Uncached}
	}

	if s.SizeBytes < 0 {
		s.SizeBytes = 0
	}
	s.Filename = filename
	s.Tags = titleparser.Parse(r.Torrent.Title)
	s.Transport = model.DeriveTransport(&s)
	return s
}

func trackerSources(trackers []string) []string {
	if len(trackers) == 0 {
		return nil
	}
	sources := make([]string, 0, len(trackers))
	for _, tr := range trackers {
		sources = append(sources, "tracker:"+tr)
	}
	return sources
}
