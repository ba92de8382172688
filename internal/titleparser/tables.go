package titleparser

// channels matches an optional trailing channel layout such as "5.1" in DDP5.1.
const channels = `(?:[ .\-]?[1-9][ .][0-9])?`

var (
	resolutions = table{
		tag("2160p", `2160[pi]?|4k|uhd|3840x2160`),
		tag("1440p", `1440[pi]?|2k|2560x1440`),
		tag("1080p", `1080[pi]?|fhd|1920x1080`),
		tag("720p", `720[pi]?|1280x720`),
		tag("576p", `576[pi]?`),
		tag("480p", `480[pi]?|640x480`),
		tag("360p", `360[pi]?`),
		tag("240p", `240[pi]?`),
		tag("144p", `144[pi]?`),
	}

	// REMUX must come before BluRay and HC HD-Rip before HDRip.
	qualities = table{
		tag("BluRay REMUX", `(?:blu[ .\-]?ray|bd|br|uhd)[ .\-]?remux|remux(?:[ .\-]?(?:blu[ .\-]?ray|bd))?`),
		tag("BluRay", `blu[ .\-]?ray|b[dr][ .\-]?rip|bdmv|bd(?:25|50|66)?`),
		tag("WEB-DL", `web[ .\-]?dl|web`,
			rejectIf(`(?:web[ .\-]?)?dl[ .\-]?rip|(?:hd)?cam(?:[ .\-]?rip)?|(?:hd)?ts|telesync`)),
		tag("WEBRip", `web[ .\-]?(?:dl[ .\-]?)?rip|webmux`),
		tag("HC HD-Rip", `hc[ .\-]?hd[ .\-]?rip|hc`),
		tag("HDRip", `hd[ .\-]?rip|dl[ .\-]?rip`),
		tag("DVDRip", `dvd[ .\-]?rip|dvd(?:[ .\-]?r[0-9]?)?|dvd[59]`),
		tag("HDTV", `hdtv(?:[ .\-]?rip)?|pdtv|tv[ .\-]?rip|sat[ .\-]?rip|dsr`),
		tag("CAM", `(?:hd[ .\-]?)?cam(?:[ .\-]?rip)?`),
		tag("TS", `(?:hd[ .\-]?)?ts(?:[ .\-]?rip)?|telesync|pdvd`),
		tag("TC", `(?:hd[ .\-]?)?tc|telecine`),
		tag("SCR", `(?:dvd|bd|web)?[ .\-]?scr(?:eener)?|r5`),
	}

	encodes = table{
		tag("AV1", `av1`),
		tag("HEVC", `hevc(?:10)?|[xh][ .\-]?265`),
		tag("AVC", `avc|[xh][ .\-]?264`),
		tag("XviD", `xvid`),
		tag("DivX", `divx|dvix`),
		tag("H-OU", `h[ .\-]?ou|half[ .\-]?ou`),
		tag("H-SBS", `h[ .\-]?sbs|half[ .\-]?sbs`),
	}

	visualTags = table{
		tag("HDR10+", `hdr[ .\-]?10(?:\+|[ .\-]?plus|p)`),
		tag("HDR10", `hdr[ .\-]?10`, shadowedBy("HDR10+")),
		tag("HDR", `hdr`, shadowedBy("HDR10+", "HDR10")),
		tag("DV", `dv|dovi|do[ .\-]vi|dolby[ .\-]?vision`),
		tag("3D", `3d`),
		tag("IMAX", `imax`),
		tag("AI", `ai(?:[ .\-]?upscaled?)?|upscaled?`),
		tag("10bit", `10[ .\-]?bits?`),
	}

	audioTags = table{
		tag("Atmos", `atmos`),
		tag("DD+", `(?:dd\+|ddp|e[ .\-]?ac[ .\-]?3|dd[ .\-]?plus|dolby[ .\-]?digital[ .\-]?plus)`+channels),
		tag("DD", `(?:dd|ac[ .\-]?3|dolby[ .\-]?digital)`+channels, shadowedBy("DD+")),
		tag("DTS-HD MA", `dts[ .\-]?hd[ .\-]?ma`+channels),
		tag("DTS-HD", `dts[ .\-]?hd(?:[ .\-]?hra?)?`+channels, shadowedBy("DTS-HD MA")),
		tag("DTS-ES", `dts[ .\-]?es`+channels),
		tag("DTS", `dts(?:[ .\-]?x)?`+channels, shadowedBy("DTS-HD MA", "DTS-HD", "DTS-ES")),
		tag("TrueHD", `true[ .\-]?hd`+channels),
		tag("OPUS", `opus`+channels),
		tag("FLAC", `flac`+channels),
		tag("AAC", `aac(?:[ .\-]?lc)?`+channels),
		tag("7.1", `7[ .]1(?:ch)?`),
		tag("5.1", `5[ .]1(?:ch)?`),
	}

	// Two-letter and ambiguous three-letter codes are left out on purpose
	// where they collide with common words in titles.
	languages = table{
		tag("Multi", `multi(?:[ .\-]?(?:audio|lang(?:uage)?s?|subs?))?`),
		tag("Dual Audio", `dual(?:[ .\-]?audio)?`),
		tag("Dubbed", `dub(?:bed)?`),
		tag("English", `english|eng`),
		tag("Japanese", `japanese|jap|jpn`),
		tag("Chinese", `chinese|chi|chs|cht|mandarin|cantonese`),
		tag("Russian", `russian|rus`),
		tag("Arabic", `arabic|ara`),
		tag("Portuguese", `portuguese|pt[ .\-]?br|dublado`),
		tag("Spanish", `spanish|esp|castellano`),
		tag("Latino", `latino`),
		tag("French", `french|truefrench|fre|fra|vff|vfq|vf2?`),
		tag("German", `german|ger|deu`),
		tag("Italian", `italian|ita`),
		tag("Korean", `korean|kor`),
		tag("Hindi", `hindi|hin`),
		tag("Bengali", `bengali`),
		tag("Tamil", `tamil`),
		tag("Telugu", `telugu`),
		tag("Malayalam", `malayalam`),
		tag("Kannada", `kannada`),
		tag("Thai", `thai|tha`),
		tag("Vietnamese", `vietnamese`),
		tag("Indonesian", `indonesian`),
		tag("Turkish", `turkish`),
		tag("Hebrew", `hebrew|heb`),
		tag("Persian", `persian|farsi`),
		tag("Ukrainian", `ukrainian|ukr`),
		tag("Greek", `greek|gre`),
		tag("Polish", `polish|pol`),
		tag("Czech", `czech|cze|ces`),
		tag("Slovak", `slovak|slk`),
		tag("Hungarian", `hungarian|hun`),
		tag("Romanian", `romanian`),
		tag("Bulgarian", `bulgarian|bul`),
		tag("Serbian", `serbian|srp`),
		tag("Croatian", `croatian|hrv`),
		tag("Dutch", `dutch|nld`),
		tag("Danish", `danish`),
		tag("Finnish", `finnish`),
		tag("Swedish", `swedish|swe`),
		tag("Norwegian", `norwegian`),
		tag("Malay", `malay`),
		tag("Lithuanian", `lithuanian`),
	}
)
