package cinemeta

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dbytex91/streamfusion/internal/model"
)

const defaultBaseURL = "https://v3-cinemeta.strem.io"

var ErrNotFound = errors.New("cinemeta: title not found")

// MetaInfo is the part of a Cinemeta record used to search indexers.
type MetaInfo struct {
	Name     string
	IMDBID   string
	FromYear int
	ToYear   int
}

// CoversYear reports whether year falls within the release span, give or
// take a year. Unknown years always match and a zero ToYear is still running.
func (m MetaInfo) CoversYear(year int) bool {
	if year == 0 || m.FromYear == 0 {
		return true
	}
	if year < m.FromYear-1 {
		return false
	}
	return m.ToYear == 0 || year <= m.ToYear+1
}

type CineMeta struct {
	client *resty.Client
}

type metaResponse struct {
	Meta struct {
		Name        string `json:"name"`
		Year        string `json:"year"`
		ReleaseInfo string `json:"releaseInfo"`
		IMDBID      string `json:"imdb_id"`
	} `json:"meta"`
}

func New() *CineMeta {
	return NewWithURL(defaultBaseURL)
}

func NewWithURL(baseURL string) *CineMeta {
	return &CineMeta{
		client: resty.New().SetBaseURL(baseURL).SetHeader("Accept", "application/json"),
	}
}

// Lookup fetches the metadata for an IMDB id of the given kind.
func (c *CineMeta) Lookup(ctx context.Context, kind model.Kind, id string) (*MetaInfo, error) {
	result := &metaResponse{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(result).
		ForceContentType("application/json").
		Get(fmt.Sprintf("/meta/%s/%s.json", kind, id))
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("cinemeta: unexpected status %d", resp.StatusCode())
	}

	if result.Meta.Name == "" {
		return nil, ErrNotFound
	}

	years := result.Meta.ReleaseInfo
	if years == "" {
		years = result.Meta.Year
	}
	from, to := parseYears(years)

	imdbID := result.Meta.IMDBID
	if imdbID == "" {
		imdbID = id
	}

	return &MetaInfo{
		Name:     result.Meta.Name,
		IMDBID:   imdbID,
		FromYear: from,
		ToYear:   to,
	}, nil
}

// parseYears reads "2008", "2008–2013" or an open "2019–".
func parseYears(s string) (int, int) {
	s = strings.ReplaceAll(s, "–", "-")
	first, rest, ranged := strings.Cut(s, "-")

	from, _ := strconv.Atoi(strings.TrimSpace(first))
	if !ranged {
		return from, from
	}

	to, _ := strconv.Atoi(strings.TrimSpace(rest))
	return from, to
}
