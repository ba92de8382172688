package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dbytex91/streamfusion/internal/titleparser"
)

var ErrInvalidPreferences = errors.New("invalid preferences")

type SortKey string

const (
	SortResolution  SortKey = "resolution"
	SortCached      SortKey = "cached"
	SortHasProvider SortKey = "hasProvider"
	SortProvider    SortKey = "provider"
	SortSize        SortKey = "size"
	SortSeeders     SortKey = "seeders"
	SortQuality     SortKey = "quality"
	SortVisualTag   SortKey = "visualTag"
	SortAudioTag    SortKey = "audioTag"
	SortEncode      SortKey = "encode"
	SortLanguage    SortKey = "language"
)

var sortKeys = []SortKey{
	SortResolution, SortCached, SortHasProvider, SortProvider, SortSize, SortSeeders,
	SortQuality, SortVisualTag, SortAudioTag, SortEncode, SortLanguage,
}

// SortDirection "desc" keeps the natural preferred-first order, "asc" flips it.
type SortDirection string

const (
	Desc SortDirection = "desc"
	Asc  SortDirection = "asc"
)

type SortCriterion struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction,omitempty"`
}

type Formatter string

const (
	FormatterGDrive    Formatter = "gdrive"
	FormatterTorrentio Formatter = "torrentio"
	FormatterMinimal   Formatter = "minimal"
)

// SizeRange bounds a file size in bytes. Zero leaves a side open.
type SizeRange struct {
	Min int64 `json:"min,omitempty"`
	Max int64 `json:"max,omitempty"`
}

// Contains reports whether size falls inside the range.
func (r SizeRange) Contains(size int64) bool {
	if r.Min > 0 && size < r.Min {
		return false
	}
	if r.Max > 0 && size > r.Max {
		return false
	}
	return true
}

// AddonConfig describes one enabled upstream.
type AddonConfig struct {
	Name   string `json:"name"`
	Family string `json:"family"`
	URL    string `json:"url"`
	APIKey string `json:"apiKey,omitempty"`
	// Timeout in milliseconds, zero for the server default.
	Timeout int `json:"timeout,omitempty"`
}

// Service ids used as keys of Preferences.Services.
const (
	ServiceRealDebrid = "realdebrid"
)

// Preferences is the per-request user configuration. Allow-list order is
// priority, membership is inclusion.
type Preferences struct {
	Resolutions  []string        `json:"resolutions,omitempty"`
	Qualities    []string        `json:"qualities,omitempty"`
	VisualTags   []string        `json:"visualTags,omitempty"`
	AudioTags    []string        `json:"audioTags,omitempty"`
	SortCriteria []SortCriterion `json:"sortCriteria,omitempty"`

	PrioritisedLanguages []string `json:"prioritisedLanguages,omitempty"`
	ExcludedLanguages    []string `json:"excludedLanguages,omitempty"`

	MinSize     int64      `json:"minSize,omitempty"`
	MaxSize     int64      `json:"maxSize,omitempty"`
	MovieSize   *SizeRange `json:"movieSize,omitempty"`
	EpisodeSize *SizeRange `json:"episodeSize,omitempty"`
	OnlyCached  bool       `json:"onlyCached,omitempty"`

	MaxResultsPerResolution int  `json:"maxResultsPerResolution,omitempty"`
	MaxResults              int  `json:"maxResults,omitempty"`
	CleanResults            bool `json:"cleanResults,omitempty"`

	Formatter Formatter         `json:"formatter,omitempty"`
	Addons    []AddonConfig     `json:"addons,omitempty"`
	Services  map[string]string `json:"services,omitempty"`
	AddonName string            `json:"addonName,omitempty"`
}

// DefaultPreferences enables everything except the theatre-recorded
// qualities and sorts cached, high-resolution results first.
func DefaultPreferences() Preferences {
	qualities := slices.DeleteFunc(titleparser.QualityNames(), func(q string) bool {
		return slices.Contains([]string{"CAM", "TS", "TC", "SCR"}, q)
	})

	return Preferences{
		Resolutions: titleparser.ResolutionNames(),
		Qualities:   qualities,
		VisualTags:  titleparser.VisualTagNames(),
		AudioTags:   titleparser.AudioTagNames(),
		SortCriteria: []SortCriterion{
			{Key: SortCached, Direction: Desc},
			{Key: SortResolution, Direction: Desc},
			{Key: SortQuality, Direction: Desc},
			{Key: SortVisualTag, Direction: Desc},
			{Key: SortSize, Direction: Desc},
		},
		Formatter: FormatterGDrive,
	}
}

// ApplyDefaults fills in any missing values with defaults.
func (p *Preferences) ApplyDefaults() {
	defaults := DefaultPreferences()

	if len(p.Resolutions) == 0 {
		p.Resolutions = defaults.Resolutions
	}
	if len(p.Qualities) == 0 {
		p.Qualities = defaults.Qualities
	}
	if len(p.VisualTags) == 0 {
		p.VisualTags = defaults.VisualTags
	}
	if len(p.AudioTags) == 0 {
		p.AudioTags = defaults.AudioTags
	}
	if len(p.SortCriteria) == 0 {
		p.SortCriteria = defaults.SortCriteria
	}
	for i := range p.SortCriteria {
		if p.SortCriteria[i].Direction == "" {
			p.SortCriteria[i].Direction = Desc
		}
	}
	if p.Formatter == "" {
		p.Formatter = defaults.Formatter
	}
}

// Validate checks every enumerated value. All problems are reported together,
// each wrapping ErrInvalidPreferences.
func (p *Preferences) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidPreferences}, args...)...))
	}

	checkList := func(field string, values, known []string) {
		if len(values) == 0 {
			fail("%s must enable at least one value", field)
		}
		for _, v := range values {
			if !slices.Contains(known, v) {
				fail("%s: unknown value %q", field, v)
			}
		}
	}

	checkList("resolutions", p.Resolutions, titleparser.ResolutionNames())
	checkList("qualities", p.Qualities, titleparser.QualityNames())
	checkList("visualTags", p.VisualTags, titleparser.VisualTagNames())
	checkList("audioTags", p.AudioTags, titleparser.AudioTagNames())

	for _, l := range append(slices.Clone(p.PrioritisedLanguages), p.ExcludedLanguages...) {
		if !slices.Contains(titleparser.LanguageNames(), l) {
			fail("unknown language %q", l)
		}
	}

	for _, c := range p.SortCriteria {
		if !slices.Contains(sortKeys, c.Key) {
			fail("unknown sort criterion %q", c.Key)
		}
		if c.Direction != "" && c.Direction != Asc && c.Direction != Desc {
			fail("sort criterion %q: direction %q", c.Key, c.Direction)
		}
	}

	if p.MinSize < 0 || p.MaxSize < 0 || (p.MaxSize > 0 && p.MinSize > p.MaxSize) {
		fail("size bounds [%d, %d]", p.MinSize, p.MaxSize)
	}
	for _, r := range []*SizeRange{p.MovieSize, p.EpisodeSize} {
		if r != nil && (r.Min < 0 || r.Max < 0 || (r.Max > 0 && r.Min > r.Max)) {
			fail("size bounds [%d, %d]", r.Min, r.Max)
		}
	}

	if p.MaxResults < 0 || p.MaxResultsPerResolution < 0 {
		fail("result limits must not be negative")
	}

	switch p.Formatter {
	case "", FormatterGDrive, FormatterTorrentio, FormatterMinimal:
	default:
		fail("unknown formatter %q", p.Formatter)
	}

	for i, a := range p.Addons {
		if a.Name == "" {
			fail("addon %d has no name", i)
		}
		if a.Timeout < 0 {
			fail("addon %q: negative timeout", a.Name)
		}
	}

	return errors.Join(errs...)
}

// SizeRangeFor returns the size bounds for a kind. Kind-specific bounds
// replace the global ones when set.
func (p *Preferences) SizeRangeFor(kind Kind) SizeRange {
	switch {
	case kind == KindMovie && p.MovieSize != nil:
		return *p.MovieSize
	case kind == KindSeries && p.EpisodeSize != nil:
		return *p.EpisodeSize
	default:
		return SizeRange{Min: p.MinSize, Max: p.MaxSize}
	}
}
