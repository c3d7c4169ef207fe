package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ConfigStruct struct {
	Options  Options
	Storage  StorageConfig
	Discogs  DiscogsConfig
	Prices   PriceConfig
	Geofence GeofenceConfig
	Notify   NotifyConfig
	Spotify  SpotifyConfig
	Widget   WidgetConfig
}

type Options struct {
	Port      string
	LogLevel  string
	SentryDSN string
	Release   string
}

type StorageConfig struct {
	LocalDBPath  string
	SharedDBPath string
	StoresFile   string
}

type DiscogsConfig struct {
	Token          string
	BaseURL        string
	TimeoutSeconds int
	CacheMinutes   int
}

type PriceConfig struct {
	Source          string // "api" or "scrape"
	IntervalMinutes int
	Concurrency     int
}

type GeofenceConfig struct {
	RadiusMeters float64
	MaxRegions   int
	Permission   string
}

type NotifyConfig struct {
	DiscordWebhookURL string
	URLs              []string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Enabled      bool
}

type WidgetConfig struct {
	RefreshMinutes int
}

func (d *DiscogsConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func (d *DiscogsConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheMinutes) * time.Minute
}

func (p *PriceConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMinutes) * time.Minute
}

func (p *PriceConfig) UseScraper() bool {
	return p.Source == "scrape"
}

func (s *SpotifyConfig) IsEnabled() bool {
	return s.Enabled && s.ClientID != "" && s.ClientSecret != ""
}

func (w *WidgetConfig) Refresh() time.Duration {
	return time.Duration(w.RefreshMinutes) * time.Minute
}

func NewConfig() *ConfigStruct {
	return &ConfigStruct{
		Options: Options{
			Port:      getString("PORT", "8080"),
			LogLevel:  getString("LOG_LEVEL", "info"),
			SentryDSN: os.Getenv("SENTRY_DSN"),
			Release:   os.Getenv("RELEASE"),
		},
		Storage: StorageConfig{
			LocalDBPath:  getString("LOCAL_DB_PATH", "data/vinylvault.db"),
			SharedDBPath: getString("SHARED_DB_PATH", "data/shared.db"),
			StoresFile:   getString("STORES_FILE", "data/stores_sydney.json"),
		},
		Discogs: DiscogsConfig{
			Token:          os.Getenv("DISCOGS_TOKEN"),
			BaseURL:        os.Getenv("DISCOGS_BASE_URL"),
			TimeoutSeconds: getInt("DISCOGS_TIMEOUT_SECONDS", 15, 1, 120),
			CacheMinutes:   getInt("DISCOGS_SEARCH_CACHE_MINUTES", 10, 1, 1440),
		},
		Prices: PriceConfig{
			Source:          getPriceSource(),
			IntervalMinutes: getInt("PRICE_CHECK_INTERVAL_MINUTES", 360, 5, 1440),
			Concurrency:     getInt("PRICE_CHECK_CONCURRENCY", 4, 1, 16),
		},
		Geofence: GeofenceConfig{
			RadiusMeters: getRadius(),
			MaxRegions:   getInt("GEOFENCE_MAX_REGIONS", 15, 1, 15),
			Permission:   getString("LOCATION_PERMISSION", "not_determined"),
		},
		Notify: NotifyConfig{
			DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
			URLs:              getList("NOTIFY_URLS"),
		},
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			Enabled:      os.Getenv("SPOTIFY_ENABLED") == "true",
		},
		Widget: WidgetConfig{
			RefreshMinutes: getInt("WIDGET_REFRESH_MINUTES", 15, 1, 1440),
		},
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getInt falls back on empty, invalid or non-positive values and clamps the
// rest into [min, max].
func getInt(key string, fallback, min, max int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getRadius() float64 {
	s := os.Getenv("GEOFENCE_RADIUS_METERS")
	if s == "" {
		return 200
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 200
	}
	if v < 50 {
		return 50
	}
	if v > 5000 {
		return 5000
	}
	return v
}

func getPriceSource() string {
	switch strings.ToLower(os.Getenv("PRICE_SOURCE")) {
	case "scrape":
		return "scrape"
	default:
		return "api"
	}
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
