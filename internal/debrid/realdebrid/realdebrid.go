package realdebrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"
)

const defaultBaseURL = "https://api.real-debrid.com/rest/1.0"

var (
	ErrNoTorrentFound  = errors.New("realdebrid: no torrent found")
	ErrNoFileFound     = errors.New("realdebrid: no file found")
	ErrTorrentNotReady = errors.New("realdebrid: torrent is not ready yet")
	ErrUnsupportedLink = errors.New("realdebrid: torrent has no link for the file")
)

type RealDebrid struct {
	client *resty.Client
}

// File is one cached file of a torrent.
type File struct {
	ID       string
	FileName string `json:"filename"`
	FileSize uint64 `json:"filesize"`
}

type addMagnetResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// hosterVariants tolerates the empty array Real-Debrid returns instead of an
// object for unknown hashes.
type hosterVariants map[string][]map[string]*File

func (h *hosterVariants) UnmarshalJSON(data []byte) error {
	variants := map[string][]map[string]*File(*h)
	_ = json.Unmarshal(data, &variants)
	*h = variants
	return nil
}

// New creates a client. ipAddress is forwarded to Real-Debrid so links are
// generated for the viewer, not for the server.
func New(apiToken string, ipAddress string) *RealDebrid {
	return NewWithURL(defaultBaseURL, apiToken, ipAddress)
}

func NewWithURL(baseURL, apiToken, ipAddress string) *RealDebrid {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetAuthScheme("Bearer").
		SetError(&ErrorResponse{}).
		SetAuthToken(apiToken)

	if ipAddress != "" {
		client.SetFormData(map[string]string{
			"ip": ipAddress,
		})
	}

	return &RealDebrid{client: client}
}

// InstantAvailability returns, per lowercase info-hash, the files Real-Debrid
// already holds. Hashes absent from the map are not cached.
func (rd *RealDebrid) InstantAvailability(ctx context.Context, infoHashes []string) (map[string][]*File, error) {
	if len(infoHashes) == 0 {
		return map[string][]*File{}, nil
	}

	result := map[string]hosterVariants{}
	resp, err := rd.client.R().
		SetContext(ctx).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/torrents/instantAvailability/" + strings.Join(infoHashes, "/"))
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to get instant availability from Real-Debrid, err: %v", err)
		return nil, err
	}

	if resp.IsError() {
		return nil, responseError(resp)
	}

	files := map[string][]*File{}
	for infoHash, hosters := range result {
		infoHash = strings.ToLower(infoHash)
		found := map[string]bool{}
		for _, variants := range hosters {
			for _, variant := range variants {
				for id, f := range variant {
					if found[id] || f == nil {
						continue
					}

					file := *f
					file.ID = id
					files[infoHash] = append(files[infoHash], &file)
					found[id] = true
				}
			}
		}
	}

	return files, nil
}

// GetDownloadByInfoHash returns an unrestricted link for one file of a
// torrent, adding the torrent to the account first when needed.
func (rd *RealDebrid) GetDownloadByInfoHash(ctx context.Context, infoHash string, fileID string) (string, error) {
	return rd.GetDownloadByMagnetURI(ctx, infoHash, "magnet:?xt=urn:btih:"+infoHash, fileID)
}

func (rd *RealDebrid) GetDownloadByMagnetURI(ctx context.Context, infoHash string, magnetURI string, fileID string) (string, error) {
	download, err := rd.getDownloadByInfoHash(ctx, infoHash, fileID)
	if err == nil {
		return download, nil
	}

	if !errors.Is(err, ErrNoTorrentFound) {
		return "", err
	}

	torrentID, err := rd.addMagnet(ctx, magnetURI)
	if err != nil {
		return "", err
	}

	torrent, err := rd.getTorrent(ctx, torrentID)
	if err != nil {
		return "", err
	}

	return rd.getDownload(ctx, torrent, fileID)
}

func (rd *RealDebrid) getDownloadByInfoHash(ctx context.Context, infoHash, fileID string) (string, error) {
	torrents, err := rd.getTorrents(ctx)
	if err != nil {
		return "", err
	}

	for i := range torrents {
		if !strings.EqualFold(torrents[i].Hash, infoHash) {
			continue
		}

		download, err := rd.getDownload(ctx, &torrents[i], fileID)
		if err == nil {
			return download, nil
		}

		if !errors.Is(err, ErrNoFileFound) {
			return "", err
		}
	}

	return "", ErrNoTorrentFound
}

func (rd *RealDebrid) addMagnet(ctx context.Context, magnetURI string) (string, error) {
	result := &addMagnetResponse{}
	resp, err := rd.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"magnet": magnetURI,
		}).
		SetResult(result).
		Post("/torrents/addMagnet")
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to add magnet on Real-Debrid, err: %v", err)
		return "", err
	}

	if resp.IsError() {
		return "", responseError(resp)
	}

	return result.ID, nil
}

func (rd *RealDebrid) getTorrent(ctx context.Context, torrentID string) (*Torrent, error) {
	result := &Torrent{}
	resp, err := rd.client.R().
		SetContext(ctx).
		SetResult(result).
		Get("/torrents/info/" + torrentID)
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to fetch torrent %s: %v", torrentID, err)
		return nil, err
	}

	if resp.IsError() {
		return nil, responseError(resp)
	}

	return result, nil
}

func (rd *RealDebrid) getTorrents(ctx context.Context) ([]Torrent, error) {
	result := []Torrent{}
	resp, err := rd.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("limit", "200").
		SetQueryParam("filter", "active").
		Get("/torrents")
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to fetch all torrents: %v", err)
		return nil, err
	}

	if resp.IsError() {
		return nil, responseError(resp)
	}

	return result, nil
}

func (rd *RealDebrid) getDownload(ctx context.Context, torrent *Torrent, fileID string) (string, error) {
	linkIndex := getIndexOfLinkForFile(torrent, fileID)
	if torrent.Status == "waiting_files_selection" || linkIndex == -1 {
		if err := rd.selectFileToDownload(ctx, torrent.ID); err != nil {
			return "", err
		}

		var err error
		torrent, err = rd.getTorrent(ctx, torrent.ID)
		if err != nil {
			return "", err
		}
	}

	if torrent.Status != "downloaded" {
		log.WithContext(ctx).Infof("Torrent status is still %s", torrent.Status)
		return "", ErrTorrentNotReady
	}

	linkIndex = getIndexOfLinkForFile(torrent, fileID)
	if linkIndex == -1 {
		return "", ErrNoFileFound
	}

	if linkIndex >= len(torrent.Links) {
		log.WithContext(ctx).Infof("Invalid torrent link: %d, len: %d", linkIndex, len(torrent.Links))
		return "", ErrUnsupportedLink
	}

	return rd.generateDownload(ctx, torrent.Links[linkIndex])
}

func (rd *RealDebrid) generateDownload(ctx context.Context, hosterLink string) (string, error) {
	result := &unrestrictedLink{}
	resp, err := rd.client.R().
		SetContext(ctx).
		SetResult(result).
		SetFormData(map[string]string{
			"link": hosterLink,
		}).
		Post("/unrestrict/link")
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to generate unrestricted link: %v", err)
		return "", err
	}

	if resp.IsError() {
		return "", responseError(resp)
	}

	return result.Download, nil
}

func (rd *RealDebrid) selectFileToDownload(ctx context.Context, torrentID string) error {
	resp, err := rd.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"files": "all",
		}).
		Post("/torrents/selectFiles/" + torrentID)
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to select files on Real-Debrid, err: %v", err)
		return err
	}

	if resp.IsError() {
		return responseError(resp)
	}

	return nil
}

// getIndexOfLinkForFile maps a file id to its position in Links, which only
// lists selected files.
func getIndexOfLinkForFile(torrent *Torrent, fileID string) int {
	index := 0
	for _, f := range torrent.Files {
		if strconv.Itoa(f.ID) == fileID {
			if f.Selected > 0 {
				return index
			}

			return -1
		}

		if f.Selected > 0 {
			index++
		}
	}

	return -1
}

func responseError(resp *resty.Response) error {
	if e, ok := resp.Error().(*ErrorResponse); ok && e.ErrTxt != "" {
		return e
	}
	return fmt.Errorf("realdebrid: unexpected status %d", resp.StatusCode())
}

type Torrent struct {
	ID          string        `json:"id"`
	Hash        string        `json:"hash"`
	Status      string        `json:"status"`
	Progress    float64       `json:"progress"`
	FileName    string        `json:"filename"`
	OrgFileName string        `json:"original_filename"`
	Files       []TorrentFile `json:"files"`
	Links       []string      `json:"links"`
}

type TorrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Selected int    `json:"selected"`
	Bytes    int64  `json:"bytes"`
}

type unrestrictedLink struct {
	Download string `json:"download"`
}

type ErrorResponse struct {
	ErrTxt    string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

func (er *ErrorResponse) Error() string {
	return fmt.Sprintf("realdebrid: %s (%d)", er.ErrTxt, er.ErrorCode)
}
