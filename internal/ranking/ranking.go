// Package ranking filters aggregated streams by the user's allow-lists and
// orders them by the user's sort criteria.
package ranking

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/dbytex91/streamfusion/internal/model"
	"github.com/dbytex91/streamfusion/internal/titleparser"
)

const (
	multiLanguage = "Multi"
	hdr10Plus     = "HDR10+"
)

var nonWordCharacter = regexp.MustCompile(`[^\p{L}\p{N}]+`)

type options struct {
	kind model.Kind
}

type Option func(*options)

// ForKind selects the kind-specific size bounds of the preferences.
func ForKind(kind model.Kind) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// Process returns the records that pass the preference filters, ranked.
// The input slice is left untouched and identical inputs always give the
// same output.
func Process(records []model.Stream, prefs model.Preferences, opts ...Option) []model.Stream {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	f := newFilter(prefs, o.kind)
	kept := make([]model.Stream, 0, len(records))
	for i := range records {
		if f.keep(&records[i]) {
			kept = append(kept, records[i])
		}
	}

	slices.SortStableFunc(kept, func(a, b model.Stream) int {
		return strings.Compare(a.Filename, b.Filename)
	})

	r := newRanker(prefs)
	slices.SortStableFunc(kept, func(a, b model.Stream) int {
		return r.compare(&a, &b)
	})

	if prefs.CleanResults {
		kept = cleanResults(kept)
	}
	if prefs.MaxResultsPerResolution > 0 {
		kept = limitPerResolution(kept, prefs.MaxResultsPerResolution)
	}
	if prefs.MaxResults > 0 && len(kept) > prefs.MaxResults {
		kept = kept[:prefs.MaxResults]
	}

	return kept
}

type filter struct {
	resolutions []string
	qualities   []string
	visualTags  []string
	excluded    []string
	size        model.SizeRange
	onlyCached  bool
}

func newFilter(prefs model.Preferences, kind model.Kind) *filter {
	return &filter{
		resolutions: prefs.Resolutions,
		qualities:   prefs.Qualities,
		visualTags:  prefs.VisualTags,
		excluded:    prefs.ExcludedLanguages,
		size:        prefs.SizeRangeFor(kind),
		onlyCached:  prefs.OnlyCached,
	}
}

func (f *filter) keep(s *model.Stream) bool {
	if !slices.Contains(f.resolutions, orUnknown(s.Resolution)) {
		return false
	}
	if !slices.Contains(f.qualities, orUnknown(s.Quality)) {
		return false
	}
	for _, tag := range s.VisualTags {
		if !slices.Contains(f.visualTags, tag) {
			return false
		}
	}
	if s.HasSize() && !f.size.Contains(s.SizeBytes) {
		return false
	}
	if len(s.Languages) > 0 && len(f.excluded) > 0 {
		allExcluded := true
		for _, l := range s.Languages {
			if !slices.Contains(f.excluded, l) {
				allExcluded = false
				break
			}
		}
		if allExcluded {
			return false
		}
	}
	if f.onlyCached && s.Provider != nil && s.Provider.Cached != model.Cached {
		return false
	}
	return true
}

// ranker compares two streams. A negative result puts a first.
type ranker struct {
	criteria    []model.SortCriterion
	resolutions map[string]int
	qualities   map[string]int
	visualTags  map[string]int
	audioTags   map[string]int
	encodes     map[string]int
	languages   map[string]int
}

func newRanker(prefs model.Preferences) *ranker {
	return &ranker{
		criteria:    prefs.SortCriteria,
		resolutions: indexOf(prefs.Resolutions),
		qualities:   indexOf(prefs.Qualities),
		visualTags:  indexOf(prefs.VisualTags),
		audioTags:   indexOf(prefs.AudioTags),
		encodes:     indexOf(titleparser.EncodeNames()),
		languages:   indexOf(prefs.PrioritisedLanguages),
	}
}

func (r *ranker) compare(a, b *model.Stream) int {
	if c := r.compareLanguagePriority(a, b); c != 0 {
		return c
	}

	for _, criterion := range r.criteria {
		// p2p before uncached whatever the direction
		if criterion.Key == model.SortCached {
			if c := compareP2POverUncached(a, b); c != 0 {
				return c
			}
		}

		c := r.compareBy(criterion.Key, a, b)
		if criterion.Direction == model.Asc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}

	return 0
}

func (r *ranker) compareLanguagePriority(a, b *model.Stream) int {
	if len(r.languages) == 0 {
		return 0
	}
	if c := cmp.Compare(bestIndex(r.languages, a.Languages), bestIndex(r.languages, b.Languages)); c != 0 {
		return c
	}
	return preferTrue(a.HasLanguage(multiLanguage), b.HasLanguage(multiLanguage))
}

// compareBy returns the preferred-first order for key.
func (r *ranker) compareBy(key model.SortKey, a, b *model.Stream) int {
	switch key {
	case model.SortResolution:
		return cmp.Compare(rank(r.resolutions, orUnknown(a.Resolution)), rank(r.resolutions, orUnknown(b.Resolution)))
	case model.SortQuality:
		return cmp.Compare(rank(r.qualities, orUnknown(a.Quality)), rank(r.qualities, orUnknown(b.Quality)))
	case model.SortEncode:
		return cmp.Compare(rank(r.encodes, orUnknown(a.Encode)), rank(r.encodes, orUnknown(b.Encode)))
	case model.SortVisualTag:
		return cmp.Compare(r.visualRank(a.VisualTags), r.visualRank(b.VisualTags))
	case model.SortAudioTag:
		return cmp.Compare(bestIndex(r.audioTags, a.AudioTags), bestIndex(r.audioTags, b.AudioTags))
	case model.SortLanguage:
		return cmp.Compare(bestIndex(r.languages, a.Languages), bestIndex(r.languages, b.Languages))
	case model.SortCached:
		if a.Provider == nil || b.Provider == nil {
			return 0
		}
		return preferTrue(a.IsCached(), b.IsCached())
	case model.SortHasProvider:
		return preferTrue(a.Provider != nil, b.Provider != nil)
	case model.SortProvider:
		if a.Provider == nil || b.Provider == nil {
			return 0
		}
		return strings.Compare(a.Provider.Name, b.Provider.Name)
	case model.SortSize:
		return cmp.Compare(b.SizeBytes, a.SizeBytes)
	case model.SortSeeders:
		as, aok := a.Seeders()
		bs, bok := b.Seeders()
		if !aok || !bok {
			return 0
		}
		return cmp.Compare(bs, as)
	default:
		return 0
	}
}

// compareP2POverUncached puts a record without a provider before one whose
// provider has not confirmed it is cached.
func compareP2POverUncached(a, b *model.Stream) int {
	switch {
	case a.Provider != nil && b.Provider == nil && !a.IsCached():
		return 1
	case a.Provider == nil && b.Provider != nil && !b.IsCached():
		return -1
	default:
		return 0
	}
}

// visualRank is the best index among tags. Every HDR variant except
// HDR10+ itself ranks as HDR10+ so they stay together.
func (r *ranker) visualRank(tags []string) int {
	best := len(r.visualTags)
	for _, tag := range tags {
		idx, ok := r.visualTags[tag]
		if strings.HasPrefix(tag, "HDR") && tag != hdr10Plus {
			if plus, found := r.visualTags[hdr10Plus]; found {
				idx, ok = plus, true
			}
		}
		if ok && idx < best {
			best = idx
		}
	}
	return best
}

func indexOf(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		if _, ok := m[v]; !ok {
			m[v] = i
		}
	}
	return m
}

// rank places values missing from the list after every listed one.
func rank(index map[string]int, value string) int {
	if idx, ok := index[value]; ok {
		return idx
	}
	return len(index)
}

func bestIndex(index map[string]int, values []string) int {
	best := len(index)
	for _, v := range values {
		if idx, ok := index[v]; ok && idx < best {
			best = idx
		}
	}
	return best
}

func preferTrue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

func orUnknown(v string) string {
	if v == "" {
		return titleparser.Unknown
	}
	return v
}

// cleanResults keeps, per source and per content, the first cached and the
// first not cached record.
func cleanResults(records []model.Stream) []model.Stream {
	type key struct {
		source  string
		content string
		cached  bool
	}

	seen := make(map[key]struct{}, len(records))
	cleaned := make([]model.Stream, 0, len(records))
	for _, s := range records {
		k := key{source: s.SourceName, content: contentKey(&s), cached: s.IsCached()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cleaned = append(cleaned, s)
	}
	return cleaned
}

func contentKey(s *model.Stream) string {
	if h := s.InfoHash(); h != "" {
		return "btih:" + strings.ToLower(h)
	}
	return "name:" + strings.ToLower(nonWordCharacter.ReplaceAllString(s.Filename, ""))
}

func limitPerResolution(records []model.Stream, limit int) []model.Stream {
	counts := make(map[string]int)
	limited := make([]model.Stream, 0, len(records))
	for _, s := range records {
		res := orUnknown(s.Resolution)
		if counts[res] >= limit {
			continue
		}
		counts[res]++
		limited = append(limited, s)
	}
	return limited
}
