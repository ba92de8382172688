package provider

import (
	"regexp"
	"strings"

	"github.com/dbytex91/streamfusion/internal/magnet"
	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/titleparser"
)

// Family describes the textual conventions of one addon family. Each field
// reads one piece of information out of a raw item. A nil Filename falls back
// to the generic lookup, other nil fields leave the value empty.
type Family struct {
	Name     string
	Filename func(RawStream) string
	Marker   func(RawStream) *model.ProviderInfo
	Indexer  func(RawStream) string
	Usenet   bool
}

var families = map[string]*Family{}

func register(f *Family) *Family {
	families[f.Name] = f
	return f
}

// Lookup returns the named family.
func Lookup(name string) (*Family, bool) {
	f, ok := families[strings.ToLower(name)]
	return f, ok
}

var (
	torrentioMarker = regexp.MustCompile(`\[(` + serviceCodes + `)(\+| download)\]`)
	cometMarker     = regexp.MustCompile(`\[(` + serviceCodes + `)(⚡|⬇\x{FE0F}?)\]`)
	cometP2P        = regexp.MustCompile(`\[TORRENT\]`)
	fusionMarker    = regexp.MustCompile(`\b(` + serviceCodes + `)\s*(⚡\x{FE0F}?|⏳)`)
)

func markerFrom(pattern *regexp.Regexp, cached string, text string) *model.ProviderInfo {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	status := model.Uncached
	if strings.HasPrefix(m[2], cached) {
		status = model.Cached
	}
	return &model.ProviderInfo{Name: ServiceName(m[1]), Cached: status}
}

func genericFilename(raw RawStream) string {
	if raw.BehaviorHints != nil && raw.BehaviorHints.Filename != "" {
		return raw.BehaviorHints.Filename
	}
	if line := firstLine(raw.Title); line != "" {
		return line
	}
	return firstLine(raw.Description)
}

// genericMarker accepts any of the known bracket and emoji conventions.
func genericMarker(raw RawStream) *model.ProviderInfo {
	text := raw.Name + "\n" + raw.Title + "\n" + raw.Description
	for _, detect := range []func(string) *model.ProviderInfo{
		func(s string) *model.ProviderInfo { return markerFrom(torrentioMarker, "+", s) },
		func(s string) *model.ProviderInfo { return markerFrom(cometMarker, "⚡", s) },
		func(s string) *model.ProviderInfo { return markerFrom(fusionMarker, "⚡", s) },
	} {
		if p := detect(text); p != nil {
			return p
		}
	}
	return nil
}

var (
	Generic = register(&Family{
		Name:     "generic",
		Filename: genericFilename,
		Marker:   genericMarker,
	})

	Torrentio = register(&Family{
		Name:     "torrentio",
		Filename: genericFilename,
		Marker: func(raw RawStream) *model.ProviderInfo {
			return markerFrom(torrentioMarker, "+", raw.Name)
		},
		Indexer: func(raw RawStream) string {
			return captured(torrentioIndex, raw.Title+"\n"+raw.Description)
		},
	})

	Comet = register(&Family{
		Name: "comet",
		Filename: func(raw RawStream) string {
			if name := captured(cometFilename, raw.Description+"\n"+raw.Title); name != "" {
				return name
			}
			return genericFilename(raw)
		},
		Marker: func(raw RawStream) *model.ProviderInfo {
			if cometP2P.MatchString(raw.Name) {
				return nil
			}
			return markerFrom(cometMarker, "⚡", raw.Name)
		},
		Indexer: func(raw RawStream) string {
			return captured(cometIndex, raw.Description+"\n"+raw.Title)
		},
	})

	MediaFusion = register(&Family{
		Name: "mediafusion",
		Filename: func(raw RawStream) string {
			if raw.BehaviorHints != nil && raw.BehaviorHints.Filename != "" {
				return raw.BehaviorHints.Filename
			}
			return captured(fusionFilename, raw.Description+"\n"+raw.Title)
		},
		Marker: func(raw RawStream) *model.ProviderInfo {
			return markerFrom(fusionMarker, "⚡", raw.Name)
		},
		Indexer: func(raw RawStream) string {
			return captured(fusionIndex, raw.Description+"\n"+raw.Title)
		},
	})

	Easynews = register(&Family{
		Name:     "easynews",
		Filename: genericFilename,
		Marker: func(RawStream) *model.ProviderInfo {
			return &model.ProviderInfo{Name: "Easynews", Cached: model.Cached}
		},
		Usenet: true,
	})
)

// Map converts a raw item into a Stream. It reports false for items without
// a usable filename or without anything a player can open.
func (f *Family) Map(raw RawStream, source string) (model.Stream, bool) {
	filenameOf := f.Filename
	if filenameOf == nil {
		filenameOf = genericFilename
	}

	filename := strings.TrimSpace(filenameOf(raw))
	if filename == "" {
		return model.Stream{}, false
	}

	text := raw.Name + "\n" + raw.Title + "\n" + raw.Description

	s := model.Stream{
		Tags:        titleparser.Parse(filename).WithLanguages(flagLanguages(text)...),
		SourceName:  source,
		Filename:    filename,
		ExternalURL: raw.ExternalURL,
		Subtitles:   raw.Subtitles,
	}

	if raw.BehaviorHints != nil && raw.BehaviorHints.VideoSize > 0 {
		s.SizeBytes = raw.BehaviorHints.VideoSize
	} else if size := emojiSizeOf(text); size > 0 {
		s.SizeBytes = size
	} else {
		s.SizeBytes = ParseSize(raw.Title + "\n" + raw.Description)
	}

	if f.Marker != nil {
		s.Provider = f.Marker(raw)
	}
	if f.Indexer != nil {
		s.Indexer = f.Indexer(raw)
	}

	infoHash := strings.ToLower(raw.InfoHash)
	if strings.HasPrefix(raw.URL, "magnet:") {
		if infoHash == "" {
			infoHash = magnet.InfoHashFromURL(raw.URL)
		}
	} else {
		s.URL = raw.URL
	}
	if s.URL == "" && s.ExternalURL == "" && infoHash == "" {
		return model.Stream{}, false
	}

	// Debrid links keep the seeder count of the torrent they come from.
	if seeders := seedersOf(text); infoHash != "" || seeders != nil {
		s.Torrent = &model.TorrentInfo{
			InfoHash:  infoHash,
			FileIndex: raw.FileIndex,
			Seeders:   seeders,
			Sources:   raw.Sources,
		}
	}

	if f.Usenet {
		s.Usenet = &model.UsenetInfo{Age: ageOf(text)}
	}

	s.Transport = model.DeriveTransport(&s)
	return s, true
}
