package prowlarr

import (
	"encoding/hex"
)

// TorrentID identifies a search result across indexers. It is the sha1 of
// the result guid and keys the info-hash cache.
type TorrentID []byte

func (t TorrentID) String() string {
	return hex.EncodeToString(t)
}

type Indexer struct {
	ID           int                 `json:"id"`
	Name         string              `json:"name"`
	Enable       bool                `json:"enable"`
	Capabilities IndexerCapabilities `json:"capabilities"`
}

type IndexerCapabilities struct {
	LimitMax      int `json:"limitsMax"`
	LimitDefaults int `json:"limitsDefault"`
}

type Torrent struct {
	GID       TorrentID `json:"-"`
	Title     string    `json:"title"`
	FileName  string    `json:"fileName"`
	Guid      string    `json:"guid"`
	Seeders   int       `json:"seeders"`
	Size      int64     `json:"size"`
	Imdb      int       `json:"imdbId"`
	Link      string    `json:"downloadUrl"`
	MagnetUri string    `json:"magnetUrl"`
	InfoHash  string    `json:"infoHash"`
	Indexer   string    `json:"indexer"`

	// FileIndex is set when the .torrent body was read and a media file found.
	FileIndex *int     `json:"-"`
	Trackers  []string `json:"-"`
}
