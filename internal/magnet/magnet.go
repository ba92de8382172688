package magnet

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/multiformats/go-multihash"
)

var ErrInvalidMagnet = errors.New("invalid magnet uri")

// Magnet is the subset of a magnet link the addon cares about.
type Magnet struct {
	InfoHash [20]byte
	Name     string
	Trackers []string
}

// Parse reads a magnet URI. A v1 btih hash (hex or base32) wins over a v2
// btmh multihash. A v2-only link uses the truncated SHA-256 digest, which is
// what hybrid-aware clients accept in place of a v1 hash.
func Parse(uri string) (*Magnet, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
	}
	if u.Scheme != "magnet" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidMagnet, u.Scheme)
	}

	query := u.Query()
	m := &Magnet{
		Name:     query.Get("dn"),
		Trackers: query["tr"],
	}

	var v2 []byte
	for _, xt := range query["xt"] {
		switch {
		case strings.HasPrefix(xt, "urn:btih:"):
			hash, err := decodeBTIH(strings.TrimPrefix(xt, "urn:btih:"))
			if err != nil {
				return nil, err
			}
			copy(m.InfoHash[:], hash)
			return m, nil
		case strings.HasPrefix(xt, "urn:btmh:") && v2 == nil:
			v2, err = decodeBTMH(strings.TrimPrefix(xt, "urn:btmh:"))
			if err != nil {
				return nil, err
			}
		}
	}

	if v2 == nil {
		return nil, fmt.Errorf("%w: no info hash", ErrInvalidMagnet)
	}
	copy(m.InfoHash[:], v2)
	return m, nil
}

func decodeBTIH(value string) ([]byte, error) {
	switch len(value) {
	case 40:
		hash, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
		}
		return hash, nil
	case 32:
		hash, err := base32.StdEncoding.DecodeString(strings.ToUpper(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
		}
		return hash, nil
	default:
		return nil, fmt.Errorf("%w: btih of length %d", ErrInvalidMagnet, len(value))
	}
}

func decodeBTMH(value string) ([]byte, error) {
	mh, err := multihash.FromHexString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
	}

	decoded, err := multihash.Decode(mh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
	}
	if decoded.Code != multihash.SHA2_256 || len(decoded.Digest) < 20 {
		return nil, fmt.Errorf("%w: unsupported multihash %s", ErrInvalidMagnet, decoded.Name)
	}

	return decoded.Digest[:20], nil
}

// InfoHashHex is the lower-case hex info hash.
func (m *Magnet) InfoHashHex() string {
	return hex.EncodeToString(m.InfoHash[:])
}

func (m *Magnet) String() string {
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(m.InfoHashHex())
	if m.Name != "" {
		b.WriteString("&dn=")
		b.WriteString(url.QueryEscape(m.Name))
	}
	for _, tr := range m.Trackers {
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(tr))
	}
	return b.String()
}

// InfoHashFromURL returns the hex info hash of a magnet url, or "" when url
// is not a usable magnet link.
func InfoHashFromURL(uri string) string {
	if !strings.HasPrefix(uri, "magnet:") {
		return ""
	}

	m, err := Parse(uri)
	if err != nil {
		return ""
	}
	return m.InfoHashHex()
}
