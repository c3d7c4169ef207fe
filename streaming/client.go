package streaming

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrDisabled = errors.New("streaming links are disabled")
	ErrNotFound = errors.New("album not found on spotify")
)

// Client finds Spotify album pages for collection records. A nil or
// disabled client answers every lookup with ErrDisabled.
type Client struct {
	spotify *spotifyclient.Client
	links   *cache.Cache
}

// New authenticates with the client-credentials flow.
func New(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("spotify authentication failed: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return newClient(spotifyclient.New(httpClient)), nil
}

func newClient(sc *spotifyclient.Client) *Client {
	return &Client{spotify: sc, links: cache.New(24*time.Hour, time.Hour)}
}

// NewWithHTTPClient talks to baseURL through hc without authenticating.
func NewWithHTTPClient(hc *http.Client, baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return newClient(spotifyclient.New(hc, spotifyclient.WithBaseURL(baseURL)))
}

func (c *Client) Enabled() bool {
	return c != nil && c.spotify != nil
}

// AlbumLink returns the open.spotify.com URL of the best album match.
func (c *Client) AlbumLink(ctx context.Context, title, artist string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	key := strings.ToLower(title + "\x00" + artist)
	if cached, ok := c.links.Get(key); ok {
		return cached.(string), nil
	}

	span := sentry.StartSpan(ctx, "spotify.search_album")
	span.Description = "Search Spotify albums"
	span.SetTag("title", title)
	defer span.Finish()

	query := fmt.Sprintf("album:%s artist:%s", title, artist)
	results, err := c.spotify.Search(span.Context(), query, spotifyclient.SearchTypeAlbum, spotifyclient.Limit(1))
	if err != nil {
		log.Errorf("Spotify album search failed for '%s' by %s: %v", title, artist, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return "", err
	}
	if results.Albums == nil || len(results.Albums.Albums) == 0 {
		span.Status = sentry.SpanStatusNotFound
		return "", ErrNotFound
	}

	link := results.Albums.Albums[0].ExternalURLs["spotify"]
	if link == "" {
		span.Status = sentry.SpanStatusNotFound
		return "", ErrNotFound
	}

	c.links.Set(key, link, cache.DefaultExpiration)
	log.Debugf("Spotify link for '%s' by %s: %s", title, artist, link)
	span.Status = sentry.SpanStatusOK
	return link, nil
}
