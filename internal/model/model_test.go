package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest("series", "tt0903747:5:14")
	require.NoError(t, err)
	assert.Equal(t, Request{MediaID: "tt0903747", Kind: KindSeries, Season: 5, Episode: 14}, req)
	assert.Equal(t, "tt0903747:5:14", req.StremioID())

	req, err = ParseRequest("movie", "tt0133093")
	require.NoError(t, err)
	assert.Equal(t, "tt0133093", req.StremioID())

	for _, tc := range [][2]string{{"series", "tt1"}, {"series", "tt1:x:1"}, {"channel", "tt1"}, {"movie", ""}} {
		_, err := ParseRequest(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidRequest, tc)
	}
}

func TestDeriveTransport(t *testing.T) {
	assert.Equal(t, TransportTorrent, DeriveTransport(&Stream{Torrent: &TorrentInfo{InfoHash: "abc"}}))
	assert.Equal(t, TransportUsenet, DeriveTransport(&Stream{Usenet: &UsenetInfo{Age: "3d"}, URL: "https://x"}))
	assert.Equal(t, TransportDirect, DeriveTransport(&Stream{URL: "https://x"}))
	assert.Equal(t, TransportDirect, DeriveTransport(&Stream{URL: "https://x", Torrent: &TorrentInfo{InfoHash: "abc"}}))
	assert.Equal(t, TransportDirect, DeriveTransport(&Stream{Torrent: &TorrentInfo{}, ExternalURL: "https://x"}))
	assert.Equal(t, TransportUnknown, DeriveTransport(&Stream{}))
}

func TestCacheStatusJSON(t *testing.T) {
	var decoded []ProviderInfo
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"a","cached":true},{"name":"b","cached":false},{"name":"c"}]`), &decoded))
	assert.Equal(t, []ProviderInfo{{"a", Cached}, {"b", Uncached}, {"c", CacheUnknown}}, decoded)

	encoded, err := json.Marshal(ProviderInfo{Name: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"c","cached":null}`, string(encoded))
}

func TestStreamAccessors(t *testing.T) {
	s := Stream{}
	_, ok := s.Seeders()
	assert.False(t, ok)
	assert.False(t, s.HasSize())
	assert.False(t, s.IsCached())

	s = Stream{
		SizeBytes: 10,
		Torrent:   &TorrentInfo{InfoHash: "abc", Seeders: IntPtr(0)},
		Provider:  &ProviderInfo{Name: "Real-Debrid", Cached: Cached},
	}
	seeders, ok := s.Seeders()
	assert.True(t, ok)
	assert.Zero(t, seeders)
	assert.True(t, s.HasSize())
	assert.True(t, s.IsCached())
	assert.Equal(t, "abc", s.InfoHash())
}

func TestDefaultPreferencesAreValid(t *testing.T) {
	p := DefaultPreferences()
	require.NoError(t, p.Validate())
	assert.NotContains(t, p.Qualities, "CAM")
	assert.Contains(t, p.Resolutions, "Unknown")
}

func TestApplyDefaultsKeepsUserValues(t *testing.T) {
	p := Preferences{
		Resolutions:  []string{"1080p"},
		SortCriteria: []SortCriterion{{Key: SortSize}},
	}
	p.ApplyDefaults()

	assert.Equal(t, []string{"1080p"}, p.Resolutions)
	assert.Equal(t, []SortCriterion{{Key: SortSize, Direction: Desc}}, p.SortCriteria)
	assert.NotEmpty(t, p.Qualities)
	assert.Equal(t, FormatterGDrive, p.Formatter)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	p := DefaultPreferences()
	p.Resolutions = []string{"1080p", "8K"}
	p.SortCriteria = []SortCriterion{{Key: "popularity"}, {Key: SortSize, Direction: "up"}}
	p.ExcludedLanguages = []string{"Elvish"}
	p.MinSize, p.MaxSize = 10, 5
	p.Formatter = "fancy"

	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPreferences))
	for _, part := range []string{"8K", "popularity", "up", "Elvish", "size bounds", "fancy"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestValidateRejectsEmptyAllowList(t *testing.T) {
	p := DefaultPreferences()
	p.Qualities = nil
	assert.ErrorIs(t, p.Validate(), ErrInvalidPreferences)
}

func TestSizeRangeFor(t *testing.T) {
	p := Preferences{MinSize: 1, MaxSize: 100, EpisodeSize: &SizeRange{Max: 10}}

	assert.Equal(t, SizeRange{Min: 1, Max: 100}, p.SizeRangeFor(KindMovie))
	assert.Equal(t, SizeRange{Max: 10}, p.SizeRangeFor(KindSeries))
	assert.True(t, SizeRange{}.Contains(1<<40))
	assert.False(t, SizeRange{Min: 5}.Contains(4))
	assert.False(t, SizeRange{Max: 5}.Contains(6))
}
