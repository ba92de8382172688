package model

import (
	"encoding/json"

	"github.com/dbytex91/streamfusion/internal/titleparser"
)

// CacheStatus is a tri-state debrid cache flag. CacheUnknown is its own
// state and must not be treated as uncached.
type CacheStatus int

const (
	CacheUnknown CacheStatus = iota
	Cached
	Uncached
)

func (c CacheStatus) String() string {
	switch c {
	case Cached:
		return "cached"
	case Uncached:
		return "uncached"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as true, false or null.
func (c CacheStatus) MarshalJSON() ([]byte, error) {
	switch c {
	case Cached:
		return []byte("true"), nil
	case Uncached:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (c *CacheStatus) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch {
	case v == nil:
		*c = CacheUnknown
	case *v:
		*c = Cached
	default:
		*c = Uncached
	}
	return nil
}

// TransportKind says how a stream is delivered to the player.
type TransportKind string

const (
	TransportTorrent TransportKind = "torrent"
	TransportUsenet  TransportKind = "usenet"
	TransportDirect  TransportKind = "direct"
	TransportUnknown TransportKind = "unknown"
)

// ProviderInfo is the debrid or usenet service that serves a stream.
type ProviderInfo struct {
	Name   string      `json:"name"`
	Cached CacheStatus `json:"cached"`
}

type TorrentInfo struct {
	InfoHash  string   `json:"infoHash"`
	FileIndex *int     `json:"fileIdx,omitempty"`
	Seeders   *int     `json:"seeders,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

type UsenetInfo struct {
	Age string `json:"age,omitempty"`
}

type Subtitle struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

// Stream is the provider-neutral record every adapter produces. Values are
// built once per upstream item and treated as read-only afterwards.
type Stream struct {
	titleparser.Tags

	SourceName  string        `json:"sourceName"`
	Filename    string        `json:"filename,omitempty"`
	SizeBytes   int64         `json:"size,omitempty"`
	Provider    *ProviderInfo `json:"provider,omitempty"`
	Transport   TransportKind `json:"transport"`
	Torrent     *TorrentInfo  `json:"torrent,omitempty"`
	Usenet      *UsenetInfo   `json:"usenet,omitempty"`
	URL         string        `json:"url,omitempty"`
	ExternalURL string        `json:"externalUrl,omitempty"`
	Indexer     string        `json:"indexer,omitempty"`
	Subtitles   []Subtitle    `json:"subtitles,omitempty"`
}

// HasSize reports whether the size is known. Zero means unknown.
func (s *Stream) HasSize() bool {
	return s.SizeBytes > 0
}

// Seeders returns the seeder count and whether it was reported at all.
func (s *Stream) Seeders() (int, bool) {
	if s.Torrent == nil || s.Torrent.Seeders == nil {
		return 0, false
	}
	return *s.Torrent.Seeders, true
}

// IsCached reports whether a provider confirmed the stream is cached.
func (s *Stream) IsCached() bool {
	return s.Provider != nil && s.Provider.Cached == Cached
}

func (s *Stream) InfoHash() string {
	if s.Torrent == nil {
		return ""
	}
	return s.Torrent.InfoHash
}

// DeriveTransport infers the transport from the populated fields. A playback
// URL wins over an info-hash, which debrid links keep for deduplication.
func DeriveTransport(s *Stream) TransportKind {
	switch {
	case s.Usenet != nil:
		return TransportUsenet
	case s.URL != "":
		return TransportDirect
	case s.Torrent != nil && s.Torrent.InfoHash != "":
		return TransportTorrent
	case s.ExternalURL != "":
		return TransportDirect
	default:
		return TransportUnknown
	}
}

// IntPtr is a small helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
