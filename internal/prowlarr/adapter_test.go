package prowlarr

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coocood/freecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"

	"github.com/dbytex91/streamfusion/internal/cinemeta"
	"github.com/dbytex91/streamfusion/internal/debrid/realdebrid"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/provider"
	"github.com/dbytex91/streamfusion/internal/titleparser"
)

const (
	cachedHash   = "c9e15763f722f23e98a29decdfae341b98d53056"
	redirectHash = "0123456789abcdef0123456789abcdef01234567"
)

var matrix = model.Request{MediaID: "tt0133093", Kind: model.KindMovie}

type stubMeta struct {
	info *cinemeta.MetaInfo
	err  error
}

func (s stubMeta) Lookup(context.Context, model.Kind, string) (*cinemeta.MetaInfo, error) {
	return s.info, s.err
}

type stubDebrid map[string][]*realdebrid.File

func (s stubDebrid) InstantAvailability(_ context.Context, hashes []string) (map[string][]*realdebrid.File, error) {
	files := map[string][]*realdebrid.File{}
	for _, h := range hashes {
		if f, ok := s[h]; ok {
			files[h] = f
		}
	}
	return files, nil
}

func torrentBody(t *testing.T) ([]byte, string) {
	t.Helper()
	info, err := bencode.EncodeBytes(map[string]interface{}{
		"name":         "The.Matrix.1999.720p",
		"piece length": int64(16384),
		"pieces":       string(make([]byte, 20)),
		"files": []map[string]interface{}{
			{"length": int64(10), "path": []string{"readme.txt"}},
			{"length": int64(100), "path": []string{"The.Matrix.1999.720p.mkv"}},
		},
	})
	require.NoError(t, err)

	body, err := bencode.EncodeBytes(struct {
		Announce string             `bencode:"announce"`
		Info     bencode.RawMessage `bencode:"info"`
	}{Announce: "udp://tracker.example:80", Info: info})
	require.NoError(t, err)

	sum := sha1.Sum(info)
	return body, hex.EncodeToString(sum[:])
}

func fakeProwlarr(t *testing.T, torrent []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/indexer", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"YTS","enable":true,"capabilities":{"limitsDefault":100}},
			{"id":2,"name":"Off","enable":false}
		]`))
	})
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("indexerIds"))
		assert.Equal(t, "The Matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "movie", r.URL.Query().Get("type"))
		_, _ = fmt.Fprintf(w, `[
			{"guid":"a","title":"The Matrix 1999 1080p BluRay x264","infoHash":"%s","imdbId":133093,"seeders":50,"size":2147483648},
			{"guid":"b","title":"The Matrix 1999 1080p BluRay x264","infoHash":"%s","imdbId":133093,"seeders":50,"size":2147483648},
			{"guid":"c","title":"The Matrix Reloaded 2003 720p","infoHash":"ffffffffffffffffffffffffffffffffffffffff"},
			{"guid":"d","title":"The Matrix 1999 2160p WEB-DL","downloadUrl":"http://localhost:9696/dl/1","seeders":9},
			{"guid":"e","title":"The Matrix (1999) 720p","downloadUrl":"http://localhost:9696/dl/2"},
			{"guid":"f","title":"Some Other Film 1999 1080p","infoHash":"eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"}
		]`, "C9E15763F722F23E98A29DECDFAE341B98D53056", cachedHash)
	})
	mux.HandleFunc("/dl/1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "magnet:?xt=urn:btih:"+redirectHash+"&tr=udp%3A%2F%2Ft.example%3A1", http.StatusFound)
	})
	mux.HandleFunc("/dl/2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-bittorrent")
		_, _ = w.Write(torrent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAdapterFetch(t *testing.T) {
	body, torrentHash := torrentBody(t)
	srv := fakeProwlarr(t, body)

	debrid := stubDebrid{cachedHash: {
		{ID: "1", FileName: "The.Matrix.1999.1080p.mkv", FileSize: 2 << 30},
		{ID: "2", FileName: "sample.txt", FileSize: 10},
	}}

	a := NewAdapter(srv.URL, "key",
		WithMetaSource(stubMeta{info: &cinemeta.MetaInfo{Name: "The Matrix", IMDBID: "tt0133093", FromYear: 1999, ToYear: 1999}}),
		WithDebrid(debrid, func(infoHash, fileID string) string { return "/download/" + infoHash + "/" + fileID }),
		WithCache(freecache.NewCache(512*1024)),
	)

	streams, err := a.Fetch(context.Background(), matrix)
	require.NoError(t, err)
	require.Len(t, streams, 3)

	fromTorrent := streams[0]
	assert.Equal(t, "The Matrix (1999) 720p", fromTorrent.Filename)
	assert.Equal(t, torrentHash, fromTorrent.InfoHash())
	require.NotNil(t, fromTorrent.Torrent.FileIndex)
	assert.Equal(t, 1, *fromTorrent.Torrent.FileIndex)
	assert.Equal(t, []string{"tracker:udp://tracker.example:80"}, fromTorrent.Torrent.Sources)
	assert.Equal(t, &model.ProviderInfo{Name: "Real-Debrid", Cached: model.Uncached}, fromTorrent.Provider)
	assert.Equal(t, model.TransportTorrent, fromTorrent.Transport)

	redirected := streams[1]
	assert.Equal(t, "The Matrix 1999 2160p WEB-DL", redirected.Filename)
	assert.Equal(t, redirectHash, redirected.InfoHash())
	assert.Equal(t, "2160p", redirected.Resolution)
	assert.Equal(t, "WEB-DL", redirected.Quality)
	seeders, _ := redirected.Seeders()
	assert.Equal(t, 9, seeders)

	cached := streams[2]
	assert.Equal(t, "The.Matrix.1999.1080p.mkv", cached.Filename)
	assert.Equal(t, &model.ProviderInfo{Name: "Real-Debrid", Cached: model.Cached}, cached.Provider)
	assert.Equal(t, "/download/"+cachedHash+"/1", cached.URL)
	assert.Equal(t, int64(2<<30), cached.SizeBytes)
	assert.Equal(t, "YTS", cached.Indexer)
	assert.Equal(t, "Prowlarr", cached.SourceName)
	assert.Equal(t, model.TransportDirect, cached.Transport)
	assert.Equal(t, "BluRay", cached.Quality)
	assert.Equal(t, "AVC", cached.Encode)
}

func TestAdapterWithoutDebrid(t *testing.T) {
	body, _ := torrentBody(t)
	srv := fakeProwlarr(t, body)

	a := NewAdapter(srv.URL, "key", WithName("My Prowlarr"),
		WithMetaSource(stubMeta{info: &cinemeta.MetaInfo{Name: "The Matrix", IMDBID: "tt0133093", FromYear: 1999, ToYear: 1999}}))

	streams, err := a.Fetch(context.Background(), matrix)
	require.NoError(t, err)
	require.Len(t, streams, 3)
	for _, s := range streams {
		assert.Nil(t, s.Provider)
		assert.Equal(t, model.TransportTorrent, s.Transport)
		assert.Equal(t, "My Prowlarr", s.SourceName)
	}
}

func TestAdapterConfigErrors(t *testing.T) {
	var cerr *provider.ConfigError

	_, err := NewAdapter("", "key").Fetch(context.Background(), matrix)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "url", cerr.Field)

	_, err = NewAdapter("http://prowlarr", "").Fetch(context.Background(), matrix)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "apiKey", cerr.Field)
}

func TestAdapterMetaFailure(t *testing.T) {
	boom := errors.New("cinemeta down")
	a := NewAdapter("http://127.0.0.1:1", "key", WithMetaSource(stubMeta{err: boom}), WithTimeout(time.Second))
	assert.Equal(t, time.Second, a.Timeout())

	_, err := a.Fetch(context.Background(), matrix)
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Prowlarr", perr.Provider)
	assert.ErrorIs(t, err, boom)
}

func TestMatchesRequestForSeries(t *testing.T) {
	meta := &cinemeta.MetaInfo{Name: "Breaking Bad", IMDBID: "tt0903747", FromYear: 2008, ToYear: 2013}
	req := model.Request{MediaID: "tt0903747", Kind: model.KindSeries, Season: 5, Episode: 14}

	record := func(title string, imdb int) *searchRecord {
		return &searchRecord{
			Request: req,
			Meta:    meta,
			Torrent: &Torrent{Title: title, Imdb: imdb},
			Release: titleparser.ParseRelease(title),
		}
	}

	assert.True(t, matchesRequest(record("Breaking.Bad.S05E14.1080p", 0)))
	assert.True(t, matchesRequest(record("Breaking Bad Season 1-5 Complete", 0)))
	assert.False(t, matchesRequest(record("Breaking.Bad.S05E13.1080p", 0)))
	assert.False(t, matchesRequest(record("Breaking.Bad.S04.720p", 0)))
	assert.False(t, matchesRequest(record("Breaking.Bad.S05E14.1080p", 1234)))
	assert.False(t, matchesRequest(record("Better.Call.Saul.S05E14.1080p", 0)))
}

func TestFindEpisodeMediaFile(t *testing.T) {
	files := []*realdebrid.File{
		{ID: "1", FileName: "Show/Show.S05E13.mkv", FileSize: 10},
		{ID: "2", FileName: "Show/Show.S05E14.mkv", FileSize: 10},
		{ID: "3", FileName: "Show/Show.S05E14.srt", FileSize: 1},
	}

	f := findEpisodeMediaFile(files, 5, 14)
	require.NotNil(t, f)
	assert.Equal(t, "2", f.ID)

	assert.Nil(t, findEpisodeMediaFile(files[:1], 3, 2))
	assert.Equal(t, "1", findMovieMediaFile(files[:1]).ID)
}

func TestCheckTitleSimilarity(t *testing.T) {
	assert.Zero(t, checkTitleSimilarity("The Matrix", "The.Matrix"))
	assert.Less(t, checkTitleSimilarity("Spider-Man", "Spiderman"), maxTitleDistance)
	assert.GreaterOrEqual(t, checkTitleSimilarity("The Matrix", "The Matrix Reloaded"), maxTitleDistance)
}
