package titleparser

import (
	"regexp"
	"strconv"
	"strings"
)

// Release is the identity part of a release title: what it is rather than
// how it was encoded. Search adapters use it to match results to a request.
type Release struct {
	Title      string
	Year       int
	FromSeason int
	ToSeason   int
	Episode    int
}

// Each parser fills part of a Release and returns the offset where its match
// starts, or -1. The smallest offset marks the end of the clean title.
var releaseParsers = []func(string, *Release) int{
	parseYear(`(?:\b((?:19[0-9]|20[0-9])[0-9])\b)|(?:\(((?:19[0-9]|20[0-9])[0-9])\))`),
	marker(`(?i)\b[0-9]{3,4}[pi]\b|\b4k\b`),
	parseSeasonAndEpisode(`(?i)S(\d{1,2})[ .\-]?E(\d{1,3})`),
	parseSeasonAndEpisode(`(?i)\b(\d{1,2})x(\d{2,3})\b`),
	parseMultiSeason(`(?i)S(\d{2})\s*(?:to|-)?\s*S(\d{2})`),
	parseMultiSeason(`(?i)\bseasons?\s+(\d{1,2})[\s-]+(\d{1,2})\b`),
	parseSingleSeason(`(?i)\bs(\d{2})\b`),
	parseSingleSeason(`(?i)\bseason[- ]?(\d{1,2})\b`),
	marker(`(?i)[-\s.(]+\b(?:TV|Complete|Full) series\b`),
}

var titleSeparators = regexp.MustCompile(`[\s._]+`)

// ParseRelease extracts the clean title, year and season/episode range.
func ParseRelease(title string) Release {
	r := Release{}
	index := len(title)

	for _, parser := range releaseParsers {
		next := parser(title, &r)
		if next >= 0 && next < index {
			index = next
		}
	}

	r.Title = strings.TrimSpace(titleSeparators.ReplaceAllString(title[:index], " "))
	r.Title = strings.TrimRight(r.Title, " -([")
	return r
}

// Covers reports whether the release can contain the given episode.
func (r Release) Covers(season, episode int) bool {
	if r.FromSeason > 0 && (season < r.FromSeason || season > r.ToSeason) {
		return false
	}
	return r.Episode == 0 || r.Episode == episode
}

func lastSubmatch(compiled *regexp.Regexp, title string, groups int) []int {
	matches := compiled.FindAllStringSubmatchIndex(title, -1)
	if len(matches) == 0 || len(matches[len(matches)-1]) < 2+2*groups {
		return nil
	}
	return matches[len(matches)-1]
}

func parseYear(pattern string) func(string, *Release) int {
	compiled := regexp.MustCompile(pattern)
	return func(title string, r *Release) int {
		if r.Year > 0 {
			return -1
		}

		loc := lastSubmatch(compiled, title, 2)
		if loc == nil {
			return -1
		}

		// Either the bare or the parenthesised group matched.
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 {
				r.Year, _ = strconv.Atoi(title[loc[g]:loc[g+1]])
				break
			}
		}

		// A title that starts with a year ("1917", "2012") keeps it.
		if loc[0] == 0 {
			return -1
		}
		return loc[0]
	}
}

func marker(pattern string) func(string, *Release) int {
	compiled := regexp.MustCompile(pattern)
	return func(title string, _ *Release) int {
		loc := compiled.FindStringIndex(title)
		if loc == nil {
			return -1
		}
		return loc[0]
	}
}

func parseSeasonAndEpisode(pattern string) func(string, *Release) int {
	compiled := regexp.MustCompile(pattern)
	return func(title string, r *Release) int {
		if r.FromSeason > 0 {
			return -1
		}

		loc := lastSubmatch(compiled, title, 2)
		if loc == nil {
			return -1
		}

		r.FromSeason, _ = strconv.Atoi(title[loc[2]:loc[3]])
		r.ToSeason = r.FromSeason
		r.Episode, _ = strconv.Atoi(title[loc[4]:loc[5]])
		return loc[0]
	}
}

func parseMultiSeason(pattern string) func(string, *Release) int {
	compiled := regexp.MustCompile(pattern)
	return func(title string, r *Release) int {
		if r.FromSeason > 0 {
			return -1
		}

		loc := lastSubmatch(compiled, title, 2)
		if loc == nil {
			return -1
		}

		r.FromSeason, _ = strconv.Atoi(title[loc[2]:loc[3]])
		r.ToSeason, _ = strconv.Atoi(title[loc[4]:loc[5]])
		return loc[0]
	}
}

func parseSingleSeason(pattern string) func(string, *Release) int {
	compiled := regexp.MustCompile(pattern)
	return func(title string, r *Release) int {
		if r.FromSeason > 0 {
			return -1
		}

		loc := lastSubmatch(compiled, title, 1)
		if loc == nil {
			return -1
		}

		r.FromSeason, _ = strconv.Atoi(title[loc[2]:loc[3]])
		r.ToSeason = r.FromSeason
		return loc[0]
	}
}
