package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://lrclib.net"

var (
	ErrNotFound    = errors.New("no lyrics found")
	ErrBadResponse = errors.New("unexpected lyrics response")

	syncedTimestamp = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)
)

type searchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

type Result struct {
	Lyrics string `json:"lyrics"`
	Track  string `json:"track"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	results    *cache.Cache
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		results:    cache.New(time.Hour, 2*time.Hour),
	}
}

// Search looks up lyrics for a free-text query such as "artist title". Plain
// lyrics win over synced ones; synced lyrics lose their timestamps.
func (c *Client) Search(ctx context.Context, query string) (Result, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return Result{}, ErrNotFound
	}
	if cached, ok := c.results.Get(key); ok {
		return cached.(Result), nil
	}

	span := sentry.StartSpan(ctx, "lyrics.search")
	span.Description = "Search lrclib"
	span.SetTag("query", query)
	defer span.Finish()

	u := fmt.Sprintf("%s/api/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, u, nil)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return Result{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.SpanStatusInternalError
		return Result{}, fmt.Errorf("%w: lrclib returned status %d", ErrBadResponse, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return Result{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(results) == 0 {
		span.Status = sentry.SpanStatusNotFound
		return Result{}, ErrNotFound
	}

	res := results[0]
	text := res.PlainLyrics
	if text == "" && res.SyncedLyrics != "" {
		text = strings.TrimSpace(syncedTimestamp.ReplaceAllString(res.SyncedLyrics, ""))
	}
	if text == "" {
		span.Status = sentry.SpanStatusNotFound
		return Result{}, ErrNotFound
	}

	out := Result{Lyrics: text, Track: res.TrackName, Artist: res.ArtistName, Album: res.AlbumName}
	c.results.Set(key, out, cache.DefaultExpiration)
	log.Debugf("Found lyrics for '%s' by %s", res.TrackName, res.ArtistName)
	span.Status = sentry.SpanStatusOK
	return out, nil
}

