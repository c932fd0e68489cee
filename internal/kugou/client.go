package kugou

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yuchenw/songvault/internal/config"
	"github.com/yuchenw/songvault/internal/constants"
	"github.com/yuchenw/songvault/internal/domain"
	"github.com/yuchenw/songvault/internal/httpclient"
	"github.com/yuchenw/songvault/internal/logger"
)

// ErrNoResult is returned when a search yields nothing usable: transport
// failures, a malformed callback envelope, and an empty result list all
// normalize to it.
var ErrNoResult = errors.New("no result found")

// Candidate is one ranked search hit. Index 0 is the best match; FileName is
// the vendor's display name and AudioID keys all subsequent lookups.
type Candidate struct {
	FileName string `json:"file_name"`
	AudioID  string `json:"audio_id"`
}

// Client issues signed requests against the vendor catalog.
type Client struct {
	searchBase string
	infoBase   string
	signer     *Signer
	http       *httpclient.Client
	log        *logger.Logger

	now func() time.Time
}

func NewClient(cfg *config.Config, hc *httpclient.Client, log *logger.Logger) *Client {
	if hc == nil {
		hc = httpclient.NewClient(nil, cfg.VendorInterval)
	}
	return &Client{
		searchBase: strings.TrimRight(cfg.SearchBaseURL, "/"),
		infoBase:   strings.TrimRight(cfg.InfoBaseURL, "/"),
		signer:     NewSigner(cfg.Vendor),
		http:       hc,
		log:        log.WithComponent("kugou"),
		now:        time.Now,
	}
}

// Search looks the query up in the vendor catalog and returns at most
// MaxCandidates ranked candidates.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	clienttime := c.now().UnixMilli()
	pairs := c.signer.SearchParams(clienttime, query)

	body, err := c.get(ctx, c.searchBase+constants.SearchPath, pairs)
	if err != nil {
		c.log.Warn("search request failed", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	payload, err := unwrapCallback(string(body), constants.CallbackToken)
	if err != nil {
		c.log.Warn("search response not callback-wrapped", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	var resp struct {
		Data struct {
			Lists []struct {
				FileName   string `json:"FileName"`
				EMixSongID string `json:"EMixSongID"`
			} `json:"lists"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		c.log.Warn("search response decode failed", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	if len(resp.Data.Lists) == 0 {
		return nil, ErrNoResult
	}

	lists := resp.Data.Lists
	if len(lists) > constants.MaxCandidates {
		lists = lists[:constants.MaxCandidates]
	}
	candidates := make([]Candidate, 0, len(lists))
	for _, item := range lists {
		candidates = append(candidates, Candidate{
			FileName: item.FileName,
			AudioID:  item.EMixSongID,
		})
	}
	return candidates, nil
}

// songInfoData is the `data` object of the song-info endpoint. The vendor is
// loose about numeric types, hence flexInt64.
type songInfoData struct {
	AudioName  string    `json:"audio_name"`
	TimeLength flexInt64 `json:"timelength"` // milliseconds
	Img        string    `json:"img"`
	AlbumName  string    `json:"album_name"`
	AuthorName string    `json:"author_name"`
	Lyrics     string    `json:"lyrics"`
	PlayURL    string    `json:"play_url"`
}

// SongInfo resolves full track metadata for a candidate id. No partial
// records: a missing data object or track name fails the resolution.
func (c *Client) SongInfo(ctx context.Context, audioID string) (*domain.TrackMetadata, error) {
	data, err := c.songInfo(ctx, audioID)
	if err != nil {
		return nil, err
	}
	if data.AudioName == "" {
		return nil, fmt.Errorf("song info for %s has no track name", audioID)
	}

	album := data.AlbumName
	if album == "" {
		album = constants.UnknownAlbum
	}

	return &domain.TrackMetadata{
		CandidateID: audioID,
		Name:        data.AudioName,
		Duration:    int(int64(data.TimeLength) / 1000),
		ImageURL:    data.Img,
		AlbumName:   album,
		Artists:     SplitArtists(data.AuthorName),
		Lyrics:      domain.ParseLyrics(data.Lyrics),
	}, nil
}

// PlayURL resolves the time-limited direct stream URL for a candidate id.
func (c *Client) PlayURL(ctx context.Context, audioID string) (string, error) {
	data, err := c.songInfo(ctx, audioID)
	if err != nil {
		return "", err
	}
	if data.PlayURL == "" {
		return "", fmt.Errorf("song info for %s has no play url", audioID)
	}
	return data.PlayURL, nil
}

func (c *Client) songInfo(ctx context.Context, audioID string) (*songInfoData, error) {
	clienttime := c.now().UnixMilli()
	pairs := c.signer.SongInfoParams(clienttime, audioID)

	body, err := c.get(ctx, c.infoBase+constants.SongInfoPath, pairs)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data *songInfoData `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("song info decode failed: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("song info for %s has no data", audioID)
	}
	return resp.Data, nil
}

// get issues a signed GET: the ordered pairs are signed positionally, then
// sent as query parameters together with the signature.
func (c *Client) get(ctx context.Context, endpoint string, pairs [][2]string) ([]byte, error) {
	signature := c.signer.SignPairs(pairs)

	values := url.Values{}
	for _, p := range pairs {
		values.Set(p[0], p[1])
	}
	values.Set("signature", signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vendor request failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// SplitArtists splits the vendor's delimited author string on the full-width
// separator and trims each part. An empty string yields the unknown-artist
// sentinel so a song always has at least one artist.
func SplitArtists(author string) []string {
	var names []string
	for _, part := range strings.Split(author, constants.ArtistSeparator) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return []string{constants.UnknownArtist}
	}
	return names
}

// unwrapCallback extracts the JSON payload between the first parenthesis
// after the callback token and the matching trailing parenthesis.
func unwrapCallback(body, token string) (string, error) {
	start := strings.Index(body, token+"(")
	if start < 0 {
		return "", fmt.Errorf("callback wrapper %q not found", token)
	}
	rest := body[start+len(token)+1:]
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return "", fmt.Errorf("callback wrapper %q not closed", token)
	}
	return rest[:end], nil
}

// flexInt64 tolerates numeric fields arriving as numbers or quoted strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}
