package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"vinylvault/models"
)

const (
	DefaultBaseURL = "https://api.discogs.com"
	userAgent      = "VinylVault/1.0"
	maxImageBytes  = 10 << 20
)

type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client is a read-only Discogs API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	searches   *cache.Cache
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		searches:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

func (c *Client) hasToken() bool {
	return c.token != "" && !strings.Contains(c.token, "YOUR_")
}

// Search runs a vinyl release search. Results are cached per normalized query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return []SearchResult{}, nil
	}
	if cached, ok := c.searches.Get(key); ok {
		log.Tracef("Discogs search cache hit: %s", key)
		return cached.([]SearchResult), nil
	}

	span := sentry.StartSpan(ctx, "discogs.search")
	span.Description = "Search Discogs database"
	span.SetTag("query", query)
	defer span.Finish()

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "release")
	params.Set("format", "vinyl")

	var resp searchResponse
	if err := c.get(span.Context(), "/database/search", params, &resp); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []SearchResult{}
	}

	c.searches.Set(key, resp.Results, cache.DefaultExpiration)
	log.Debugf("Discogs search '%s' returned %d results", query, len(resp.Results))
	span.Status = sentry.SpanStatusOK
	return resp.Results, nil
}

func (c *Client) Release(ctx context.Context, id int) (*Release, error) {
	span := sentry.StartSpan(ctx, "discogs.release")
	span.Description = "Get release from Discogs"
	span.SetTag("release_id", strconv.Itoa(id))
	defer span.Finish()

	var release Release
	if err := c.get(span.Context(), fmt.Sprintf("/releases/%d", id), nil, &release); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	log.Debugf("Fetched Discogs release %d: '%s' by %s", id, release.AlbumTitle(), release.ArtistName())
	span.Status = sentry.SpanStatusOK
	return &release, nil
}

// LowestPrice returns the lowest marketplace listing price for a release.
func (c *Client) LowestPrice(ctx context.Context, id int) (float64, error) {
	span := sentry.StartSpan(ctx, "discogs.marketplace_stats")
	span.Description = "Get marketplace stats from Discogs"
	span.SetTag("release_id", strconv.Itoa(id))
	defer span.Finish()

	var stats marketplaceStats
	if err := c.get(span.Context(), fmt.Sprintf("/marketplace/stats/%d", id), nil, &stats); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return 0, err
	}
	if stats.LowestPrice == nil {
		span.Status = sentry.SpanStatusNotFound
		return 0, ErrNoPrice
	}

	span.Status = sentry.SpanStatusOK
	return stats.LowestPrice.Value, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	if !c.hasToken() {
		return ErrNoToken
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	log.Tracef("Discogs request: %s%s", c.baseURL, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		terr := &TransportError{Op: "GET " + path, Err: err}
		sentry.CaptureException(terr)
		return terr
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("X-Discogs-Ratelimit-Remaining"); remaining != "" {
		log.Tracef("Discogs rate limit remaining: %s", remaining)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrNoToken
	case http.StatusTooManyRequests:
		log.Warnf("Discogs rate limited on %s", path)
		return ErrRateLimited
	default:
		err := fmt.Errorf("%w: HTTP %d on %s", ErrBadResponse, resp.StatusCode, path)
		sentry.CaptureException(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		err = fmt.Errorf("%w: %v", ErrDecode, err)
		sentry.CaptureException(err)
		return err
	}
	return nil
}

// DownloadImage fetches a cover image and checks that it decodes as JPEG,
// PNG or GIF.
func (c *Client) DownloadImage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	span := sentry.StartSpan(ctx, "discogs.download_image")
	span.Description = "Download cover image"
	defer span.Finish()

	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, &TransportError{Op: "GET image", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: HTTP %d for image", ErrBadResponse, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, &TransportError{Op: "read image", Err: err}
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		return nil, ErrInvalidImage
	}

	log.Tracef("Downloaded %s cover (%d bytes)", format, len(data))
	span.Status = sentry.SpanStatusOK
	return data, nil
}

// ReleaseToAlbum builds a collection record from a release. The rating
// starts at zero and the record links back to the release page.
func ReleaseToAlbum(release Release, cover []byte) models.AlbumRecord {
	album := models.NewAlbum(release.AlbumTitle(), release.ArtistName(), release.Year, release.PrimaryGenre())
	album.DiscogsID = models.Ptr(release.ID)
	album.DiscogsURL = models.Ptr(fmt.Sprintf("https://www.discogs.com/release/%d", release.ID))
	if len(release.Labels) > 0 {
		album.Label = models.Ptr(release.Labels[0].Name)
		if release.Labels[0].Catno != "" {
			album.CatalogNumber = models.Ptr(release.Labels[0].Catno)
		}
	}
	if release.Country != "" {
		album.Country = models.Ptr(release.Country)
	}
	for _, t := range release.Tracklist {
		album.TrackListing = append(album.TrackListing, models.NewTrack(t.Position, t.Title, t.Duration))
	}
	if len(cover) > 0 {
		album.CoverImageData = cover
	}
	return album
}
