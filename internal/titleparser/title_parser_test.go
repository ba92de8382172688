package titleparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolution(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Movie.2023.1080p.WEB-DL.mkv", "1080p"},
		{"Movie 2023 2160p UHD BluRay", "2160p"},
		{"Movie.4K.HDR.mkv", "2160p"},
		{"Show.S01E02.720p.HDTV.x264", "720p"},
		{"[Group] Anime - 01 (1920x1080)", "1080p"},
		{"Old.Movie.480p.DVDRip", "480p"},
		{"Movie.2023.mkv", Unknown},
		{"Movie10800p", Unknown},
		{"", Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.title).Resolution)
		})
	}
}

func TestParseRemuxExample(t *testing.T) {
	tags := Parse("Movie.2023.1080p.BluRay.REMUX.HDR10+.DTS-HD.MA.mkv")

	assert.Equal(t, "1080p", tags.Resolution)
	assert.Equal(t, "BluRay REMUX", tags.Quality)
	assert.Equal(t, []string{"HDR10+"}, tags.VisualTags)
	assert.Equal(t, []string{"DTS-HD MA"}, tags.AudioTags)
	assert.Equal(t, Unknown, tags.Encode)
	assert.Empty(t, tags.Languages)
}

func TestParseQualityPrecedence(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Movie.2019.BluRay.1080p.x264", "BluRay"},
		{"Movie.2019.1080p.BDRemux.AVC", "BluRay REMUX"},
		{"Movie.2019.REMUX.2160p", "BluRay REMUX"},
		{"Movie.2019.1080p.WEB-DL.DDP5.1.H.264", "WEB-DL"},
		{"Movie.2019.1080p.WEB.H264", "WEB-DL"},
		{"Movie.2019.1080p.WEBRip.x264", "WEBRip"},
		{"Movie.2019.WEB-DLRip.avi", "WEBRip"},
		{"Movie.2019.HC.HDRip.x264", "HC HD-Rip"},
		{"Movie.2019.HDRip.XviD", "HDRip"},
		{"Movie.2019.HDCAM.x264", "CAM"},
		{"Movie.2019.HDTS.WEB.x264", "TS"},
		{"Movie.2019.DVDScr.XviD", "SCR"},
		{"Movie.2019.mkv", Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.title).Quality)
		})
	}
}

func TestParseEncode(t *testing.T) {
	assert.Equal(t, "HEVC", Parse("Movie.2160p.x265.10bit").Encode)
	assert.Equal(t, "HEVC", Parse("Movie 1080p H 265").Encode)
	assert.Equal(t, "AVC", Parse("Movie.1080p.H.264").Encode)
	assert.Equal(t, "AV1", Parse("Movie.1080p.AV1.Opus").Encode)
	assert.Equal(t, Unknown, Parse("Movie.1080p").Encode)
}

func TestParseVisualTagsExclusion(t *testing.T) {
	cases := []struct {
		title string
		want  []string
	}{
		{"Movie.2160p.HDR10+.mkv", []string{"HDR10+"}},
		{"Movie.2160p.HDR10.Plus.mkv", []string{"HDR10+"}},
		{"Movie.2160p.HDR10.mkv", []string{"HDR10"}},
		{"Movie.2160p.HDR.10.mkv", []string{"HDR10"}},
		{"Movie.2160p.HDR.mkv", []string{"HDR"}},
		{"Movie.2160p.DV.HDR.mkv", []string{"HDR", "DV"}},
		{"Movie.2160p.HDR10+.DoVi.IMAX.mkv", []string{"HDR10+", "DV", "IMAX"}},
		{"Movie.1080p.x265.10bit", []string{"10bit"}},
		{"Movie.1080p.AI.Upscaled", []string{"AI"}},
		{"Movie.HDRip.mkv", nil},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.title).VisualTags)
		})
	}
}

func TestParseAudioTagsExclusion(t *testing.T) {
	cases := []struct {
		title string
		want  []string
	}{
		{"Movie.1080p.WEB-DL.DD+5.1", []string{"DD+"}},
		{"Movie.1080p.WEB-DL.DDP5.1.Atmos", []string{"Atmos", "DD+"}},
		{"Movie.1080p.WEB-DL.DD.Plus", []string{"DD+"}},
		{"Movie.1080p.WEB-DL.E-AC-3", []string{"DD+"}},
		{"Movie.1080p.WEB-DL.DD5.1", []string{"DD"}},
		{"Movie.1080p.BluRay.AC3", []string{"DD"}},
		{"Movie.1080p.BluRay.DTS-HD.MA.7.1", []string{"DTS-HD MA", "7.1"}},
		{"Movie.1080p.BluRay.DTS-X.mkv", []string{"DTS"}},
		{"Movie.1080p.BluRay.DTS-HD.mkv", []string{"DTS-HD"}},
		{"Movie.1080p.BluRay.DTS.mkv", []string{"DTS"}},
		{"Movie.1080p.BluRay.TrueHD.Atmos.7.1", []string{"Atmos", "TrueHD", "7.1"}},
		{"Movie.1080p.AAC.5.1", []string{"AAC", "5.1"}},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.title).AudioTags)
		})
	}
}

func TestParseLanguages(t *testing.T) {
	assert.Equal(t, []string{"Multi", "English", "French"}, Parse("Movie.2020.MULTi.VFF.ENG.1080p").Languages)
	assert.Equal(t, []string{"Dual Audio", "English", "Japanese"}, Parse("[Sub] Anime (Dual Audio) [English, Japanese]").Languages)
	assert.Equal(t, []string{"Italian"}, Parse("Film.2021.iTA.AC3.1080p").Languages)
	assert.Empty(t, Parse("Pirates.of.the.Caribbean.2003").Languages)
}

func TestParseWordBoundaries(t *testing.T) {
	tags := Parse("Hardware.Dvds.Dtss.Hdrip")
	assert.Equal(t, Unknown, tags.Resolution)
	assert.Empty(t, tags.VisualTags)
	assert.Empty(t, tags.AudioTags)

	tags = Parse("[HDR](DTS),English_1080p")
	assert.Equal(t, "1080p", tags.Resolution)
	assert.Equal(t, []string{"HDR"}, tags.VisualTags)
	assert.Equal(t, []string{"DTS"}, tags.AudioTags)
	assert.Equal(t, []string{"English"}, tags.Languages)
}

func TestParseIsIdempotent(t *testing.T) {
	titles := []string{
		"Movie.2023.1080p.BluRay.REMUX.HDR10+.DTS-HD.MA.mkv",
		"Show.S02E05.MULTi.2160p.WEB-DL.DV.HDR.DDP5.1.Atmos.H.265",
		"",
		"???",
	}

	for _, title := range titles {
		first := Parse(title)
		second := Parse(title)
		assert.Equal(t, first, second, title)
	}
}

func TestParseFullWidthCharacters(t *testing.T) {
	assert.Equal(t, "1080p", Parse("Movie　１０８０ｐ").Resolution)
}

func TestWithLanguagesKeepsTableOrder(t *testing.T) {
	original := Parse("Movie.1080p.FRENCH")
	merged := original.WithLanguages("English", "French", "Klingon", "")

	require.Equal(t, []string{"French"}, original.Languages)
	assert.Equal(t, []string{"English", "French", "Klingon"}, merged.Languages)
	assert.True(t, merged.HasLanguage("Klingon"))
	assert.False(t, original.HasLanguage("English"))
}

func TestNameListsEndWithUnknown(t *testing.T) {
	assert.Equal(t, "2160p", ResolutionNames()[0])
	assert.Equal(t, Unknown, ResolutionNames()[len(ResolutionNames())-1])
	assert.Equal(t, "BluRay REMUX", QualityNames()[0])
	assert.Equal(t, Unknown, QualityNames()[len(QualityNames())-1])
	assert.Equal(t, Unknown, EncodeNames()[len(EncodeNames())-1])
	assert.Contains(t, VisualTagNames(), "HDR10+")
	assert.Contains(t, AudioTagNames(), "DD+")
	assert.Contains(t, LanguageNames(), "Multi")
}
