// Package marketplace reads the lowest listing price from the public Discogs
// marketplace page of a release, for deployments without API access to the
// marketplace stats endpoint.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://www.discogs.com"

var ErrNoPrice = errors.New("no price found on marketplace page")

type Scraper struct {
	httpClient *http.Client
	baseURL    string
}

func NewScraper(baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// LowestPrice fetches the sell page of a release and extracts its lowest
// offer price.
func (s *Scraper) LowestPrice(ctx context.Context, releaseID int) (float64, error) {
	span := sentry.StartSpan(ctx, "marketplace.lowest_price")
	span.Description = "Scrape lowest price from Discogs marketplace"
	span.SetTag("release_id", strconv.Itoa(releaseID))
	defer span.Finish()

	price, err := s.scrape(span.Context(), releaseID)
	if err != nil {
		log.Debugf("Marketplace scrape failed for release %d: %v", releaseID, err)
		span.Status = sentry.SpanStatusInternalError
		return 0, err
	}

	span.Status = sentry.SpanStatusOK
	span.SetData("price", price)
	return price, nil
}

func (s *Scraper) scrape(ctx context.Context, releaseID int) (float64, error) {
	url := fmt.Sprintf("%s/sell/release/%d", s.baseURL, releaseID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}

	// Set realistic User-Agent to avoid blocks
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	log.Tracef("Fetching marketplace page: %s", url)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	price, err := extractFromJSONLD(doc)
	if err == nil {
		return price, nil
	}
	log.Tracef("JSON-LD price extraction failed (%v), trying microdata fallback", err)

	return extractFromMicrodata(doc)
}

// extractFromJSONLD looks for an offers.lowPrice in any JSON-LD block.
func extractFromJSONLD(doc *goquery.Document) (float64, error) {
	price := -1.0

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			log.Tracef("Failed to parse JSON-LD block %d: %v", i, err)
			return true
		}

		offers, ok := data["offers"].(map[string]interface{})
		if !ok {
			return true
		}
		if p, ok := parsePrice(offers["lowPrice"]); ok {
			price = p
			return false
		}
		if p, ok := parsePrice(offers["price"]); ok {
			price = p
			return false
		}
		return true
	})

	if price < 0 {
		return 0, errors.New("no offers in JSON-LD")
	}
	return price, nil
}

func extractFromMicrodata(doc *goquery.Document) (float64, error) {
	for _, sel := range []string{"meta[itemprop='lowPrice']", "meta[itemprop='price']"} {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		if p, ok := parsePrice(content); ok {
			return p, nil
		}
	}
	return 0, ErrNoPrice
}

// parsePrice accepts JSON numbers and strings like "12.50" or "$1,012.50".
func parsePrice(v interface{}) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, p >= 0
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, p)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
