package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind refers to https://github.com/Stremio/stremio-addon-sdk/blob/master/docs/api/responses/content.types.md
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

var ErrInvalidRequest = errors.New("invalid stream request")

// Request is one playback lookup.
type Request struct {
	MediaID string `json:"mediaId"`
	Kind    Kind   `json:"kind"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

// StremioID renders the id the way addons expect it in the stream URL.
func (r Request) StremioID() string {
	if r.Kind == KindSeries && (r.Season > 0 || r.Episode > 0) {
		return fmt.Sprintf("%s:%d:%d", r.MediaID, r.Season, r.Episode)
	}
	return r.MediaID
}

// ParseRequest builds a Request from the stream route parameters. Series ids
// look like tt0903747:1:2.
func ParseRequest(kind, id string) (Request, error) {
	switch Kind(kind) {
	case KindMovie:
		if id == "" {
			return Request{}, fmt.Errorf("%w: empty id", ErrInvalidRequest)
		}
		return Request{MediaID: id, Kind: KindMovie}, nil
	case KindSeries:
		tokens := strings.Split(id, ":")
		if len(tokens) != 3 || tokens[0] == "" {
			return Request{}, fmt.Errorf("%w: series id %q", ErrInvalidRequest, id)
		}

		season, err := strconv.Atoi(tokens[1])
		if err != nil {
			return Request{}, fmt.Errorf("%w: season %q", ErrInvalidRequest, tokens[1])
		}
		episode, err := strconv.Atoi(tokens[2])
		if err != nil {
			return Request{}, fmt.Errorf("%w: episode %q", ErrInvalidRequest, tokens[2])
		}

		return Request{MediaID: tokens[0], Kind: KindSeries, Season: season, Episode: episode}, nil
	default:
		return Request{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidRequest, kind)
	}
}
