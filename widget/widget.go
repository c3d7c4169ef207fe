package widget

import (
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"vinylvault/models"
	"vinylvault/store"
)

const (
	MaxAlbums      = 9
	DefaultRefresh = 15 * time.Minute
)

// Source is the read side of the shared namespace.
type Source interface {
	LoadCollection() ([]models.AlbumRecord, error)
	LoadSettings() (models.WidgetSettings, error)
}

type Entry struct {
	Date       time.Time            `json:"date"`
	Albums     []models.AlbumRecord `json:"albums"`
	Style      models.WidgetStyle   `json:"style"`
	NextUpdate time.Time            `json:"nextUpdate"`
}

// Timeline produces widget entries from the shared snapshot and caches the
// latest one until its NextUpdate or an explicit Reload.
type Timeline struct {
	source  Source
	refresh time.Duration
	now     func() time.Time

	mu     sync.Mutex
	cached *Entry
}

func NewTimeline(source Source, refresh time.Duration) *Timeline {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Timeline{source: source, refresh: refresh, now: time.Now}
}

// Current returns the cached entry while it is fresh, otherwise builds a new
// one from the source.
func (t *Timeline) Current() Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.cached != nil && now.Before(t.cached.NextUpdate) {
		return *t.cached
	}
	entry := t.build(now)
	t.cached = &entry
	return entry
}

// Reload drops the cached entry so the next Current reads the source again.
func (t *Timeline) Reload() {
	t.mu.Lock()
	t.cached = nil
	t.mu.Unlock()
	log.Debug("Widget timeline reloaded")
}

func (t *Timeline) build(now time.Time) Entry {
	albums, err := t.source.LoadCollection()
	albums = store.OrDefault(albums, err, func() []models.AlbumRecord { return nil })
	if len(albums) == 0 {
		albums = placeholderAlbums()
	}
	settings, err := t.source.LoadSettings()
	settings = store.OrDefault(settings, err, models.DefaultWidgetSettings)

	return Entry{
		Date:       now,
		Albums:     Select(albums, settings, now),
		Style:      settings.WidgetStyle,
		NextUpdate: now.Add(t.refresh),
	}
}

func placeholderAlbums() []models.AlbumRecord {
	samples := models.SampleAlbums()
	if len(samples) > MaxAlbums {
		samples = samples[:MaxAlbums]
	}
	return samples
}

// Select applies the widget settings to a collection: favorites filter,
// explicit selection, then a shuffle seeded by the day so the order is stable
// within one day. At most MaxAlbums are returned.
func Select(albums []models.AlbumRecord, settings models.WidgetSettings, day time.Time) []models.AlbumRecord {
	picked := make([]models.AlbumRecord, 0, len(albums))

	selected := map[string]bool{}
	for _, id := range settings.SelectedAlbumIDs {
		selected[id] = true
	}

	for _, a := range albums {
		if settings.ShowFavoritesOnly && !a.IsFavorite {
			continue
		}
		if len(selected) > 0 && !selected[a.ID] {
			continue
		}
		picked = append(picked, a)
	}

	if settings.ShuffleDaily {
		rng := rand.New(rand.NewSource(DayNumber(day)))
		rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	}

	if len(picked) > MaxAlbums {
		picked = picked[:MaxAlbums]
	}
	return picked
}

// DayNumber counts whole days since the Unix epoch in the time's location.
func DayNumber(t time.Time) int64 {
	_, offset := t.Zone()
	return (t.Unix() + int64(offset)) / 86400
}
