package provider

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	sizePattern    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*([KMGT]i?B|bytes|B)\b`)
	emojiSize      = regexp.MustCompile(`💾\s*([^\n|💾👤⚙🔎🔗]+)`)
	emojiSeeders   = regexp.MustCompile(`👤\s*(\d+)`)
	emojiAge       = regexp.MustCompile(`📅\s*([0-9]+\s*[a-zA-Z]+)`)
	torrentioIndex = regexp.MustCompile(`⚙\x{FE0F}?\s*([^\n]+)`)
	cometIndex     = regexp.MustCompile(`🔎\s*([^\n]+)`)
	fusionIndex    = regexp.MustCompile(`🔗\s*([^\n]+)`)
	fusionFilename = regexp.MustCompile(`📂\s*([^\n]+)`)
	cometFilename  = regexp.MustCompile(`📄\s*([^\n]+)`)
)

// unitSizes is the 1024 ladder used by every upstream.
var unitSizes = map[string]float64{
	"B":     1,
	"BYTES": 1,
	"KB":    1 << 10,
	"KIB":   1 << 10,
	"MB":    1 << 20,
	"MIB":   1 << 20,
	"GB":    1 << 30,
	"GIB":   1 << 30,
	"TB":    1 << 40,
	"TIB":   1 << 40,
}

// ParseSize finds the first human-readable size in text, e.g. "12.3 GB", and
// returns it in bytes. Zero means no size was found.
func ParseSize(text string) int64 {
	m := sizePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || value < 0 {
		return 0
	}

	return int64(value * unitSizes[strings.ToUpper(m[2])])
}

func emojiSizeOf(text string) int64 {
	if m := emojiSize.FindStringSubmatch(text); m != nil {
		return ParseSize(m[1])
	}
	return 0
}

// seedersOf returns nil when no seeder count is present.
func seedersOf(text string) *int {
	m := emojiSeeders.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func ageOf(text string) string {
	if m := emojiAge.FindStringSubmatch(text); m != nil {
		return strings.ReplaceAll(m[1], " ", "")
	}
	return ""
}

func captured(pattern *regexp.Regexp, text string) string {
	if m := pattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(line)
}

// flags maps regional-indicator flags used by addons to language names.
var flags = map[string]string{
	"🇬🇧": "English",
	"🇺🇸": "English",
	"🇯🇵": "Japanese",
	"🇨🇳": "Chinese",
	"🇹🇼": "Chinese",
	"🇷🇺": "Russian",
	"🇸🇦": "Arabic",
	"🇵🇹": "Portuguese",
	"🇧🇷": "Portuguese",
	"🇪🇸": "Spanish",
	"🇲🇽": "Latino",
	"🇫🇷": "French",
	"🇩🇪": "German",
	"🇮🇹": "Italian",
	"🇰🇷": "Korean",
	"🇮🇳": "Hindi",
	"🇹🇭": "Thai",
	"🇻🇳": "Vietnamese",
	"🇮🇩": "Indonesian",
	"🇹🇷": "Turkish",
	"🇮🇱": "Hebrew",
	"🇮🇷": "Persian",
	"🇺🇦": "Ukrainian",
	"🇬🇷": "Greek",
	"🇵🇱": "Polish",
	"🇨🇿": "Czech",
	"🇸🇰": "Slovak",
	"🇭🇺": "Hungarian",
	"🇷🇴": "Romanian",
	"🇧🇬": "Bulgarian",
	"🇷🇸": "Serbian",
	"🇭🇷": "Croatian",
	"🇳🇱": "Dutch",
	"🇩🇰": "Danish",
	"🇫🇮": "Finnish",
	"🇸🇪": "Swedish",
	"🇳🇴": "Norwegian",
	"🇲🇾": "Malay",
	"🇱🇹": "Lithuanian",
}

// flagLanguages returns the languages of every flag found in text.
func flagLanguages(text string) []string {
	var languages []string
	runes := []rune(text)
	for i := 0; i+1 < len(runes); i++ {
		if !isRegionalIndicator(runes[i]) || !isRegionalIndicator(runes[i+1]) {
			continue
		}

		if l, ok := flags[string(runes[i:i+2])]; ok {
			languages = append(languages, l)
		}
		i++
	}
	return languages
}

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// serviceNames maps debrid short names to display names.
var serviceNames = map[string]string{
	"RD":  "Real-Debrid",
	"AD":  "AllDebrid",
	"PM":  "Premiumize",
	"DL":  "Debrid-Link",
	"TB":  "TorBox",
	"OC":  "Offcloud",
	"PUT": "put.io",
	"ED":  "EasyDebrid",
}

// ServiceName returns the display name for a short service code.
func ServiceName(short string) string {
	if name, ok := serviceNames[strings.ToUpper(short)]; ok {
		return name
	}
	return short
}

const serviceCodes = `RD|AD|PM|DL|TB|OC|PUT|ED`
