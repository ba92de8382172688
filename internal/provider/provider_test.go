package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbytex91/streamfusion/internal/model"
)

var seriesRequest = model.Request{MediaID: "tt0903747", Kind: model.KindSeries, Season: 5, Episode: 14}

func upstream(t *testing.T, wantPath string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamAddonFetchTorrentio(t *testing.T) {
	body := `{"streams":[
		{"name":"[RD+] Torrentio\n4k","title":"Show.S05E14.2160p.WEB-DL.DV.HDR.DDP5.1.Atmos.H.265\n👤 42 💾 12.3 GB ⚙️ ThePirateBay\n🇬🇧 / 🇫🇷","url":"https://torrentio.example/resolve/rd/abc","behaviorHints":{"bingeGroup":"torrentio|4k"}},
		{"name":"Torrentio\n1080p","title":"Show.S05E14.1080p.BluRay.x264\n👤 7 💾 900 MB ⚙️ 1337x","infoHash":"ABCDEF0123456789ABCDEF0123456789ABCDEF01","fileIdx":3},
		{"name":"Torrentio","title":""}
	]}`
	srv := upstream(t, "/stream/series/tt0903747:5:14.json", http.StatusOK, body)

	adapter := NewStreamAddon(model.AddonConfig{Name: "Torrentio", Family: "torrentio", URL: srv.URL + "/manifest.json"}, Timeouts{Default: time.Second})
	streams, err := adapter.Fetch(context.Background(), seriesRequest)
	require.NoError(t, err)
	require.Len(t, streams, 2)

	cached := streams[0]
	assert.Equal(t, "Torrentio", cached.SourceName)
	assert.Equal(t, "Show.S05E14.2160p.WEB-DL.DV.HDR.DDP5.1.Atmos.H.265", cached.Filename)
	assert.Equal(t, "2160p", cached.Resolution)
	assert.Equal(t, "WEB-DL", cached.Quality)
	assert.Equal(t, "HEVC", cached.Encode)
	assert.Equal(t, []string{"HDR", "DV"}, cached.VisualTags)
	assert.Equal(t, []string{"English", "French"}, cached.Languages)
	assert.Equal(t, &model.ProviderInfo{Name: "Real-Debrid", Cached: model.Cached}, cached.Provider)
	gib := float64(1 << 30)
	assert.Equal(t, int64(12.3*gib), cached.SizeBytes)
	assert.Equal(t, "ThePirateBay", cached.Indexer)
	assert.Equal(t, model.TransportDirect, cached.Transport)
	seeders, ok := cached.Seeders()
	assert.True(t, ok)
	assert.Equal(t, 42, seeders)

	p2p := streams[1]
	assert.Nil(t, p2p.Provider)
	assert.Equal(t, model.TransportTorrent, p2p.Transport)
	assert.Equal(t, "abcdef0123456789abcdef0123456789abcdef01", p2p.InfoHash())
	require.NotNil(t, p2p.Torrent.FileIndex)
	assert.Equal(t, 3, *p2p.Torrent.FileIndex)
	assert.Equal(t, int64(900*(1<<20)), p2p.SizeBytes)
	assert.Equal(t, "1337x", p2p.Indexer)
}

func TestStreamAddonFetchEmptyIsNotAnError(t *testing.T) {
	srv := upstream(t, "/stream/movie/tt1.json", http.StatusOK, `{"streams":[]}`)

	adapter := NewStreamAddon(model.AddonConfig{Name: "A", URL: srv.URL}, Timeouts{Default: time.Second})
	streams, err := adapter.Fetch(context.Background(), model.Request{MediaID: "tt1", Kind: model.KindMovie})
	require.NoError(t, err)
	assert.Empty(t, streams)
}

func TestStreamAddonFetchErrors(t *testing.T) {
	movie := model.Request{MediaID: "tt1", Kind: model.KindMovie}

	t.Run("non-2xx", func(t *testing.T) {
		srv := upstream(t, "/stream/movie/tt1.json", http.StatusBadGateway, `{}`)
		_, err := NewStreamAddon(model.AddonConfig{Name: "A", URL: srv.URL}, Timeouts{}).Fetch(context.Background(), movie)

		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "A", perr.Provider)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := upstream(t, "/stream/movie/tt1.json", http.StatusOK, `{"streams":[`)
		_, err := NewStreamAddon(model.AddonConfig{Name: "A", URL: srv.URL}, Timeouts{}).Fetch(context.Background(), movie)

		var perr *Error
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewStreamAddon(model.AddonConfig{Name: "Slow", URL: srv.URL}, Timeouts{}).Fetch(ctx, movie)
		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.True(t, IsTimeout(err))
		assert.Equal(t, "timed out", perr.Message)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := NewStreamAddon(model.AddonConfig{Name: "Empty"}, Timeouts{}).Fetch(context.Background(), movie)

		var cerr *ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "url", cerr.Field)
	})
}

func TestTimeoutsClamp(t *testing.T) {
	timeouts := Timeouts{Default: 5 * time.Second, Min: time.Second, Max: 10 * time.Second}

	assert.Equal(t, 5*time.Second, timeouts.Clamp(0))
	assert.Equal(t, time.Second, timeouts.Clamp(10))
	assert.Equal(t, 10*time.Second, timeouts.Clamp(60000))
	assert.Equal(t, 3*time.Second, timeouts.Clamp(3000))
}

func TestWrapKeepsTypedErrors(t *testing.T) {
	cerr := &ConfigError{Provider: "A", Field: "apiKey"}
	assert.Same(t, cerr, Wrap("A", "x", cerr).(*ConfigError))
	assert.Nil(t, Wrap("A", "x", nil))

	err := Wrap("A", "fetching", errors.New("boom"))
	assert.EqualError(t, err, "provider A: fetching: boom")
}
