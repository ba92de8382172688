package prowlarr

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/zeebo/bencode"
)

var (
	errNoInfo           = errors.New("no info dict in torrent file")
	errInvalidPieceData = errors.New("invalid piece data")
	errZeroPieceLength  = errors.New("torrent has zero piece length")
	errZeroPieces       = errors.New("torrent has zero pieces")
)

var mediaContainerExtensions = []string{
	".mkv",
	".mk3d",
	".mp4",
	".m4v",
	".mov",
	".avi",
	".ts",
	".webm",
}

// File is one entry of a torrent, in torrent order.
type File struct {
	Length  int64
	Path    string
	Padding bool
}

// Info is the decoded info dictionary of a .torrent file.
type Info struct {
	Name   string
	Hash   [20]byte
	Length int64
	Files  []File
}

// MetaInfo is a decoded .torrent file.
type MetaInfo struct {
	Info         Info
	AnnounceList [][]string
}

type infoDict struct {
	PieceLength uint32     `bencode:"piece length"`
	Pieces      []byte     `bencode:"pieces"`
	Name        string     `bencode:"name"`
	NameUTF8    string     `bencode:"name.utf-8,omitempty"`
	Length      int64      `bencode:"length"`
	Files       []fileDict `bencode:"files"`
}

type fileDict struct {
	Length   int64    `bencode:"length"`
	Path     []string `bencode:"path"`
	PathUTF8 []string `bencode:"path.utf-8,omitempty"`
	Attr     string   `bencode:"attr"`
}

// isPadding follows BEP 47 plus the BitComet naming convention.
func (f *fileDict) isPadding() bool {
	if strings.ContainsRune(f.Attr, 'p') {
		return true
	}
	return len(f.Path) > 0 && strings.HasPrefix(f.Path[len(f.Path)-1], "_____padding_file")
}

func parseTorrentFile(r io.Reader) (*MetaInfo, error) {
	var t struct {
		Info         bencode.RawMessage `bencode:"info"`
		Announce     bencode.RawMessage `bencode:"announce"`
		AnnounceList bencode.RawMessage `bencode:"announce-list"`
	}
	if err := bencode.NewDecoder(r).Decode(&t); err != nil {
		return nil, err
	}
	if len(t.Info) == 0 {
		return nil, errNoInfo
	}

	info, err := newInfo(t.Info)
	if err != nil {
		return nil, err
	}

	ret := &MetaInfo{Info: *info}
	if len(t.AnnounceList) > 0 {
		var tiers [][]string
		if bencode.DecodeBytes(t.AnnounceList, &tiers) == nil {
			for _, tier := range tiers {
				var supported []string
				for _, tr := range tier {
					if isTrackerSupported(tr) {
						supported = append(supported, tr)
					}
				}
				if len(supported) > 0 {
					ret.AnnounceList = append(ret.AnnounceList, supported)
				}
			}
		}
	} else {
		var tr string
		if bencode.DecodeBytes(t.Announce, &tr) == nil && isTrackerSupported(tr) {
			ret.AnnounceList = append(ret.AnnounceList, []string{tr})
		}
	}

	return ret, nil
}

// newInfo decodes and validates an info dictionary. The info hash is the
// sha1 of the raw bencoded bytes.
func newInfo(b []byte) (*Info, error) {
	var ib infoDict
	if err := bencode.DecodeBytes(b, &ib); err != nil {
		return nil, err
	}
	if ib.PieceLength == 0 {
		return nil, errZeroPieceLength
	}
	if len(ib.Pieces)%sha1.Size != 0 {
		return nil, errInvalidPieceData
	}
	numPieces := len(ib.Pieces) / sha1.Size
	if numPieces == 0 {
		return nil, errZeroPieces
	}

	if ib.NameUTF8 != "" {
		ib.Name = ib.NameUTF8
	}

	i := &Info{}
	i.Hash = sha1.Sum(b)
	i.Name = ib.Name
	if i.Name == "" {
		i.Name = hex.EncodeToString(i.Hash[:])
	}

	if len(ib.Files) == 0 {
		i.Length = ib.Length
		i.Files = []File{{Path: cleanName(i.Name), Length: i.Length}}
	} else {
		i.Files = make([]File, 0, len(ib.Files))
		for _, f := range ib.Files {
			parts := f.Path
			if len(f.PathUTF8) > 0 {
				parts = f.PathUTF8
			}

			cleaned := make([]string, 0, len(parts)+1)
			cleaned = append(cleaned, cleanName(i.Name))
			for _, p := range parts {
				if strings.TrimSpace(p) == ".." {
					return nil, fmt.Errorf("invalid file name: %q", path.Join(parts...))
				}
				cleaned = append(cleaned, cleanName(p))
			}

			i.Length += f.Length
			i.Files = append(i.Files, File{
				Path:    path.Join(cleaned...),
				Length:  f.Length,
				Padding: f.isPadding(),
			})
		}
	}

	delta := int64(ib.PieceLength)*int64(numPieces) - i.Length
	if delta >= int64(ib.PieceLength) || delta < 0 {
		return nil, errInvalidPieceData
	}

	return i, nil
}

// Trackers flattens the announce tiers.
func (m *MetaInfo) Trackers() []string {
	var trackers []string
	for _, tier := range m.AnnounceList {
		trackers = append(trackers, tier...)
	}
	return trackers
}

// LargestMediaFile returns the index of the biggest video file.
func (i *Info) LargestMediaFile() (int, bool) {
	best := -1
	for idx, f := range i.Files {
		if f.Padding || !hasMediaExtension(f.Path) {
			continue
		}
		if best == -1 || f.Length > i.Files[best].Length {
			best = idx
		}
	}
	return best, best >= 0
}

func hasMediaExtension(fileName string) bool {
	fileName = strings.ToLower(fileName)
	for _, extension := range mediaContainerExtensions {
		if strings.HasSuffix(fileName, extension) {
			return true
		}
	}
	return false
}

func isTrackerSupported(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "udp://")
}

// cleanName keeps names valid UTF-8, short enough for a file system and free
// of path separators.
func cleanName(s string) string {
	const max = 255
	s = strings.ToValidUTF8(s, string(unicode.ReplacementChar))
	if len(s) > max {
		ext := path.Ext(s)
		if len(ext) > max {
			s = s[:max]
		} else {
			s = s[:max-len(ext)] + ext
		}
	}
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "/", "_")
}
