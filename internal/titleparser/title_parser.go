package titleparser

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unknown is reported by single-valued categories when no entry matches.
const Unknown = "Unknown"

// delimiter is the set of characters that may surround a tag. The title is
// padded with spaces before matching, so string edges are delimiters too.
const delimiter = `[\s._\-\[\]{}(),]`

// Tags is the structured metadata extracted from a release title.
type Tags struct {
	Resolution string   `json:"resolution"`
	Quality    string   `json:"quality"`
	Encode     string   `json:"encode"`
	VisualTags []string `json:"visualTags,omitempty"`
	AudioTags  []string `json:"audioTags,omitempty"`
	Languages  []string `json:"languages,omitempty"`
}

type span struct {
	start, end int
}

type entry struct {
	name       string
	pattern    *regexp.Regexp
	rejectIf   *regexp.Regexp
	shadowedBy []string
}

type entryOption func(*entry)

// table is an ordered list of entries. Order decides precedence for
// single-valued categories and output order for multi-valued ones.
type table []entry

func tag(name, pattern string, opts ...entryOption) entry {
	e := entry{
		name:    name,
		pattern: bounded(pattern),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// shadowedBy discards a match when it overlaps a match of any named entry.
func shadowedBy(names ...string) entryOption {
	return func(e *entry) {
		e.shadowedBy = append(e.shadowedBy, names...)
	}
}

// rejectIf disables the entry for titles that also match pattern.
func rejectIf(pattern string) entryOption {
	return func(e *entry) {
		e.rejectIf = bounded(pattern)
	}
}

func bounded(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + delimiter + `(` + pattern + `)` + delimiter)
}

// Parse extracts tags from a free-text title. It never fails: anything it
// cannot recognise is reported as Unknown or left out.
func Parse(title string) Tags {
	text := prepare(title)

	return Tags{
		Resolution: resolutions.first(text),
		Quality:    qualities.first(text),
		Encode:     encodes.first(text),
		VisualTags: visualTags.all(text),
		AudioTags:  audioTags.all(text),
		Languages:  languages.all(text),
	}
}

func prepare(title string) string {
	return " " + norm.NFKC.String(title) + " "
}

// find returns the spans of every delimiter-bounded occurrence. Matching
// restarts on the closing delimiter so adjacent tokens can share it.
func (e *entry) find(text string) []span {
	if e.rejectIf != nil && e.rejectIf.MatchString(text) {
		return nil
	}

	var spans []span
	offset := 0
	for offset < len(text) {
		loc := e.pattern.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			break
		}

		spans = append(spans, span{start: offset + loc[2], end: offset + loc[3]})
		offset += loc[3]
	}

	return spans
}

func (t table) first(text string) string {
	for i := range t {
		if len(t[i].find(text)) > 0 {
			return t[i].name
		}
	}

	return Unknown
}

func (t table) all(text string) []string {
	found := make(map[string][]span, len(t))
	for i := range t {
		if spans := t[i].find(text); len(spans) > 0 {
			found[t[i].name] = spans
		}
	}

	var names []string
	for i := range t {
		spans, ok := found[t[i].name]
		if !ok {
			continue
		}

		for _, stronger := range t[i].shadowedBy {
			spans = slices.DeleteFunc(spans, func(s span) bool {
				return overlapsAny(s, found[stronger])
			})
		}

		if len(spans) > 0 {
			names = append(names, t[i].name)
		}
	}

	return names
}

func overlapsAny(s span, others []span) bool {
	for _, o := range others {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}

	return false
}

func (t table) names() []string {
	names := make([]string, 0, len(t))
	for i := range t {
		names = append(names, t[i].name)
	}
	return names
}

func (t table) index(name string) int {
	for i := range t {
		if strings.EqualFold(t[i].name, name) {
			return i
		}
	}
	return -1
}

// HasLanguage reports whether the tags carry the given language.
func (t Tags) HasLanguage(language string) bool {
	return slices.Contains(t.Languages, language)
}

// WithLanguages returns a copy of t with the extra languages merged in.
// Known languages keep table order, unknown ones go last.
func (t Tags) WithLanguages(extra ...string) Tags {
	merged := slices.Clone(t.Languages)
	for _, l := range extra {
		if l != "" && !slices.Contains(merged, l) {
			merged = append(merged, l)
		}
	}

	slices.SortStableFunc(merged, func(a, b string) int {
		return rank(languages.index(a), len(languages)) - rank(languages.index(b), len(languages))
	})

	out := t
	out.VisualTags = slices.Clone(t.VisualTags)
	out.AudioTags = slices.Clone(t.AudioTags)
	out.Languages = merged
	return out
}

func rank(index, fallback int) int {
	if index < 0 {
		return fallback
	}
	return index
}

// ResolutionNames lists every resolution from best to worst, Unknown last.
func ResolutionNames() []string { return append(resolutions.names(), Unknown) }

// QualityNames lists every quality from best to worst, Unknown last.
func QualityNames() []string { return append(qualities.names(), Unknown) }

// EncodeNames lists every encode, Unknown last.
func EncodeNames() []string { return append(encodes.names(), Unknown) }

// VisualTagNames lists every visual tag in priority order.
func VisualTagNames() []string { return visualTags.names() }

// AudioTagNames lists every audio tag in priority order.
func AudioTagNames() []string { return audioTags.names() }

// LanguageNames lists every language the parser recognises, in table order.
func LanguageNames() []string { return languages.names() }
