// Package presenter renders ranked streams as Stremio stream objects.
package presenter

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/titleparser"
)

// DefaultAddonName is shown when no name is configured.
const DefaultAddonName = "StreamFusion"

const groupingPrefix = "streamfusion"

var titleCase = cases.Title(language.English)

// Output is the display text of one stream.
type Output struct {
	Title       string
	Description string
	GroupingKey string
}

type options struct {
	addonName string
}

type Option func(*options)

func WithAddonName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.addonName = name
		}
	}
}

// Present renders s with the chosen formatter. Unknown formatters fall back
// to gdrive.
func Present(s *model.Stream, formatter model.Formatter, opts ...Option) Output {
	o := &options{addonName: DefaultAddonName}
	for _, opt := range opts {
		opt(o)
	}

	var title, description string
	switch formatter {
	case model.FormatterTorrentio:
		title, description = torrentio(s, o.addonName)
	case model.FormatterMinimal:
		title, description = minimal(s)
	default:
		title, description = gdrive(s, o.addonName)
	}

	return Output{
		Title:       title,
		Description: description,
		GroupingKey: GroupingKey(s),
	}
}

// GroupingKey is the binge group of s. Streams with equal tags from the same
// source share it.
func GroupingKey(s *model.Stream) string {
	return strings.Join([]string{
		groupingPrefix,
		known(s.Resolution),
		known(s.Quality),
		known(s.Encode),
		strings.Join(s.VisualTags, ","),
		strings.Join(s.AudioTags, ","),
		strings.Join(s.Languages, ","),
		s.SourceName,
	}, "|")
}

func gdrive(s *model.Stream, addonName string) (string, string) {
	title := addonName
	if marker := providerMarker(s, "⚡", "⏳"); marker != "" {
		title = marker + " " + title
	}
	if res := known(s.Resolution); res != "" {
		title += "\n" + res
	}

	var lines []string

	line := joinNonEmpty(" ",
		prefixed("🎥 ", known(s.Quality)),
		prefixed("🎞️ ", known(s.Encode)))
	lines = append(lines, line)

	line = joinNonEmpty(" ",
		prefixed("📺 ", strings.Join(s.VisualTags, " | ")),
		prefixed("🎧 ", strings.Join(s.AudioTags, " | ")))
	lines = append(lines, line)

	line = "📦 " + formatBytes(s.SizeBytes)
	if seeders, ok := s.Seeders(); ok {
		line += " 👥 " + strconv.Itoa(seeders)
	}
	if s.Usenet != nil && s.Usenet.Age != "" {
		line += " 📅 " + s.Usenet.Age
	}
	lines = append(lines, line)

	lines = append(lines, joinNonEmpty(" ",
		prefixed("🔍 ", sourceOf(s)),
		prefixed("🔌 ", transportLabel(s))))
	lines = append(lines, prefixed("🌎 ", strings.Join(s.Languages, " | ")))
	lines = append(lines, prefixed("📄 ", s.Filename))

	return title, joinNonEmpty("\n", lines...)
}

func torrentio(s *model.Stream, addonName string) (string, string) {
	title := addonName
	if s.Provider != nil {
		code := serviceCode(s.Provider.Name)
		switch s.Provider.Cached {
		case model.Cached:
			title = fmt.Sprintf("[%s+] %s", code, addonName)
		case model.Uncached:
			title = fmt.Sprintf("[%s download] %s", code, addonName)
		default:
			title = fmt.Sprintf("[%s] %s", code, addonName)
		}
	}
	if res := known(s.Resolution); res != "" {
		title += "\n" + res
	}

	stats := []string{}
	if seeders, ok := s.Seeders(); ok {
		stats = append(stats, "👤 "+strconv.Itoa(seeders))
	}
	stats = append(stats, "💾 "+formatBytes(s.SizeBytes))
	if src := sourceOf(s); src != "" {
		stats = append(stats, "⚙️ "+src)
	}

	flags := make([]string, 0, len(s.Languages))
	for _, l := range s.Languages {
		if f, ok := languageFlags[l]; ok {
			flags = append(flags, f)
		} else {
			flags = append(flags, l)
		}
	}

	return title, joinNonEmpty("\n",
		s.Filename,
		strings.Join(stats, " "),
		strings.Join(flags, " / "))
}

func minimal(s *model.Stream) (string, string) {
	title := known(s.Resolution)
	if title == "" {
		title = titleparser.Unknown
	}
	switch {
	case s.IsCached():
		title += " ⚡"
	case s.Provider != nil:
		title += " ⏳"
	case s.Transport == model.TransportTorrent:
		title += " 🧲"
	}

	return title, joinNonEmpty(" · ",
		known(s.Quality),
		formatBytes(s.SizeBytes),
		strings.Join(s.Languages, ", "))
}

// providerMarker is "[RD⚡]" style for debrid streams and "[P2P]" for
// plain torrents.
func providerMarker(s *model.Stream, cachedGlyph, uncachedGlyph string) string {
	if s.Provider == nil {
		if s.Transport == model.TransportTorrent {
			return "[P2P]"
		}
		return ""
	}

	glyph := ""
	switch s.Provider.Cached {
	case model.Cached:
		glyph = cachedGlyph
	case model.Uncached:
		glyph = uncachedGlyph
	}
	return "[" + serviceCode(s.Provider.Name) + glyph + "]"
}

func transportLabel(s *model.Stream) string {
	switch s.Transport {
	case model.TransportTorrent, model.TransportUsenet:
		return titleCase.String(string(s.Transport))
	default:
		return ""
	}
}

func sourceOf(s *model.Stream) string {
	if s.Indexer != "" && s.Indexer != s.SourceName {
		return s.SourceName + " · " + s.Indexer
	}
	return s.SourceName
}

func known(v string) string {
	if v == titleparser.Unknown {
		return ""
	}
	return v
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

var serviceCodes = map[string]string{
	"Real-Debrid": "RD",
	"AllDebrid":   "AD",
	"Premiumize":  "PM",
	"Debrid-Link": "DL",
	"TorBox":      "TB",
	"Offcloud":    "OC",
	"put.io":      "PUT",
	"EasyDebrid":  "ED",
	"Easynews":    "EN",
}

func serviceCode(name string) string {
	if code, ok := serviceCodes[name]; ok {
		return code
	}
	return name
}

var languageFlags = map[string]string{
	"English":    "🇬🇧",
	"Japanese":   "🇯🇵",
	"Chinese":    "🇨🇳",
	"Russian":    "🇷🇺",
	"Arabic":     "🇸🇦",
	"Portuguese": "🇵🇹",
	"Spanish":    "🇪🇸",
	"Latino":     "🇲🇽",
	"French":     "🇫🇷",
	"German":     "🇩🇪",
	"Italian":    "🇮🇹",
	"Korean":     "🇰🇷",
	"Hindi":      "🇮🇳",
	"Thai":       "🇹🇭",
	"Vietnamese": "🇻🇳",
	"Indonesian": "🇮🇩",
	"Turkish":    "🇹🇷",
	"Hebrew":     "🇮🇱",
	"Persian":    "🇮🇷",
	"Ukrainian":  "🇺🇦",
	"Greek":      "🇬🇷",
	"Polish":     "🇵🇱",
	"Czech":      "🇨🇿",
	"Hungarian":  "🇭🇺",
	"Romanian":   "🇷🇴",
	"Dutch":      "🇳🇱",
	"Swedish":    "🇸🇪",
	"Multi":      "🌐",
}

// Stream is the object Stremio expects in a stream response.
type Stream struct {
	Name          string           `json:"name,omitempty"`
	Description   string           `json:"description,omitempty"`
	URL           string           `json:"url,omitempty"`
	ExternalURL   string           `json:"externalUrl,omitempty"`
	InfoHash      string           `json:"infoHash,omitempty"`
	FileIndex     *int             `json:"fileIdx,omitempty"`
	Sources       []string         `json:"sources,omitempty"`
	Subtitles     []model.Subtitle `json:"subtitles,omitempty"`
	BehaviorHints *BehaviorHints   `json:"behaviorHints,omitempty"`
}

type BehaviorHints struct {
	BingeGroup  string `json:"bingeGroup,omitempty"`
	VideoSize   int64  `json:"videoSize,omitempty"`
	Filename    string `json:"filename,omitempty"`
	NotWebReady bool   `json:"notWebReady,omitempty"`
}

// ToStream builds the response object for s. A playback URL is preferred,
// then the torrent, then the external link.
func ToStream(s *model.Stream, out Output) Stream {
	item := Stream{
		Name:        out.Title,
		Description: out.Description,
		Subtitles:   s.Subtitles,
		BehaviorHints: &BehaviorHints{
			BingeGroup: out.GroupingKey,
			VideoSize:  s.SizeBytes,
		},
	}
	if s.Filename != "" {
		item.BehaviorHints.Filename = path.Base(s.Filename)
	}

	switch {
	case s.URL != "":
		item.URL = s.URL
	case s.InfoHash() != "":
		item.InfoHash = s.InfoHash()
		item.FileIndex = s.Torrent.FileIndex
		item.Sources = s.Torrent.Sources
		item.BehaviorHints.NotWebReady = true
	default:
		item.ExternalURL = s.ExternalURL
	}

	return item
}

// Notice is an informational entry shown in place of results.
func Notice(addonName, message, link string) Stream {
	if addonName == "" {
		addonName = DefaultAddonName
	}
	return Stream{
		Name:        "[⚠️] " + addonName,
		Description: message,
		ExternalURL: link,
	}
}
