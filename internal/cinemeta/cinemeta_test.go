package cinemeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbytex91/streamfusion/internal/model"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/meta/movie/tt0133093.json":
			_, _ = w.Write([]byte(`{"meta":{"name":"The Matrix","year":"1999","imdb_id":"tt0133093"}}`))
		case "/meta/series/tt0903747.json":
			_, _ = w.Write([]byte(`{"meta":{"name":"Breaking Bad","releaseInfo":"2008–2013"}}`))
		case "/meta/movie/tt0.json":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewWithURL(srv.URL)

	movie, err := c.Lookup(context.Background(), model.KindMovie, "tt0133093")
	require.NoError(t, err)
	assert.Equal(t, &MetaInfo{Name: "The Matrix", IMDBID: "tt0133093", FromYear: 1999, ToYear: 1999}, movie)

	series, err := c.Lookup(context.Background(), model.KindSeries, "tt0903747")
	require.NoError(t, err)
	assert.Equal(t, &MetaInfo{Name: "Breaking Bad", IMDBID: "tt0903747", FromYear: 2008, ToYear: 2013}, series)

	_, err = c.Lookup(context.Background(), model.KindMovie, "tt0")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Lookup(context.Background(), model.KindMovie, "tt9")
	assert.ErrorContains(t, err, "500")
}

func TestParseYears(t *testing.T) {
	cases := []struct {
		in       string
		from, to int
	}{
		{"1999", 1999, 1999},
		{"2008–2013", 2008, 2013},
		{"2019-", 2019, 0},
		{"", 0, 0},
	}

	for _, tc := range cases {
		from, to := parseYears(tc.in)
		assert.Equal(t, tc.from, from, tc.in)
		assert.Equal(t, tc.to, to, tc.in)
	}
}

func TestCoversYear(t *testing.T) {
	m := MetaInfo{FromYear: 2008, ToYear: 2013}
	assert.True(t, m.CoversYear(2010))
	assert.True(t, m.CoversYear(2007))
	assert.False(t, m.CoversYear(2020))
	assert.True(t, m.CoversYear(0))

	open := MetaInfo{FromYear: 2019}
	assert.True(t, open.CoversYear(2024))
	assert.False(t, open.CoversYear(2017))
}
