package addon

import "github.com/dbytex91/streamfusion/internal/model"

// Resource refers to https://github.com/Stremio/stremio-addon-sdk/blob/master/docs/api/responses/manifest.md#filtering-properties
type Resource string

const (
	ResourceStream Resource = "stream"
)

type Manifest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	ResourceItems []ResourceItem `json:"resources,omitempty"`

	Types []model.Kind `json:"types"`
	// Stremio rejects a manifest without catalogs, even an empty list.
	Catalogs []CatalogItem `json:"catalogs"`

	IDPrefixes    []string       `json:"idPrefixes,omitempty"`
	BehaviorHints *BehaviorHints `json:"behaviorHints,omitempty"`
}

type ResourceItem struct {
	Name  Resource     `json:"name"`
	Types []model.Kind `json:"types"`

	IDPrefixes []string `json:"idPrefixes,omitempty"`
}

// BehaviorHints of the manifest. P2P is set because uncached torrent results
// are handed to the player as bare info hashes.
type BehaviorHints struct {
	P2P                   bool `json:"p2p,omitempty"`
	Configurable          bool `json:"configurable,omitempty"`
	ConfigurationRequired bool `json:"configurationRequired,omitempty"`
}

type CatalogItem struct {
	Type model.Kind `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
}
